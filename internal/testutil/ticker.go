package testutil

import (
	"sync"
	"time"
)

// ManualTicker is a tick source fired by hand.
//
// It satisfies clock.Ticker structurally, so tests can drive the real-time
// clock driver without waiting on the wall clock. Each Fire blocks until the
// driver receives the tick.
//
// Thread-safety: All methods are safe for concurrent use.
type ManualTicker struct {
	ch chan time.Time

	mu       sync.Mutex
	interval time.Duration
	now      time.Time
	stopped  bool
	fired    int
}

// NewManualTicker creates a ticker whose simulated wall time starts at the
// Unix epoch.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{
		ch:  make(chan time.Time),
		now: time.Unix(0, 0).UTC(),
	}
}

// Reset records the requested period, marks the ticker live again and
// returns it. Use it as the body of a clock.TickerFactory.
func (m *ManualTicker) Reset(d time.Duration) *ManualTicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interval = d
	m.stopped = false
	return m
}

// C returns the tick channel.
func (m *ManualTicker) C() <-chan time.Time {
	return m.ch
}

// Fire delivers one tick, advancing simulated wall time by the interval.
// Returns false if the ticker was stopped or nobody received within timeout.
func (m *ManualTicker) Fire(timeout time.Duration) bool {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return false
	}
	m.now = m.now.Add(m.interval)
	now := m.now
	m.mu.Unlock()

	select {
	case m.ch <- now:
		m.mu.Lock()
		m.fired++
		m.mu.Unlock()
		return true
	case <-time.After(timeout):
		return false
	}
}

// Stop marks the ticker stopped. Later Fire calls return false.
func (m *ManualTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

// Interval returns the period passed to Reset.
func (m *ManualTicker) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Stopped reports whether Stop was called since the last Reset.
func (m *ManualTicker) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// Fired returns how many ticks were delivered.
func (m *ManualTicker) Fired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fired
}
