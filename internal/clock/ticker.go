package clock

import "time"

// Ticker is the wall-clock tick source behind Start.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker with the given period.
type TickerFactory func(d time.Duration) Ticker

type wallTicker struct {
	t *time.Ticker
}

// NewWallTicker wraps time.Ticker.
func NewWallTicker(d time.Duration) Ticker {
	return wallTicker{t: time.NewTicker(d)}
}

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }
