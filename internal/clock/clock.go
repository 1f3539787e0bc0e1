package clock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidRate    = errors.New("clock rate must be positive and finite")
	ErrNilTemporal    = errors.New("cannot register a nil temporal")
	ErrAlreadyRunning = errors.New("clock is already running")
	ErrNotRunning     = errors.New("clock is not running")
)

// Temporal is anything advanced by elapsed simulated seconds.
type Temporal interface {
	Tick(elapsed float64) error
}

// Registrar accepts Temporals. *Clock is the only implementation; the
// interface lets a Temporal register itself without importing a concrete
// scheduler.
type Registrar interface {
	Register(t Temporal) error
}

// State is the scheduler state.
type State int32

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// TemporalFault records one Temporal's tick failure within a firing.
type TemporalFault struct {
	Index int    // registration index
	Name  string // Temporal name if it has one, else its type
	Err   error
}

// Firing reports the outcome of one scheduler firing.
type Firing struct {
	Seq     int64
	Elapsed float64
	Faults  []TemporalFault
}

// Observer is called on the scheduler goroutine after every firing.
type Observer func(Firing)

// Clock is the tick scheduler.
//
// Thread-safety: Register, Start, Stop, Wait and State are safe from any
// goroutine. TickOnce, Step and Run must not be called while the real-time
// driver is running.
type Clock struct {
	rate      float64
	logger    *slog.Logger
	newTicker TickerFactory
	observers []Observer

	regMu     sync.Mutex
	temporals []Temporal

	opMu   sync.Mutex // serializes Start/Stop
	runMu  sync.Mutex // guards cancel/done
	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Int32

	seq atomic.Int64
}

// Option configures a Clock.
type Option func(*Clock)

// WithLogger sets the logger used for lifecycle and fault messages.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Clock) {
		c.logger = l
	}
}

// WithTickerFactory replaces the wall-clock ticker used by Start.
func WithTickerFactory(f TickerFactory) Option {
	return func(c *Clock) {
		c.newTicker = f
	}
}

// WithObserver adds an observer. Observers run in the order added.
func WithObserver(o Observer) Option {
	return func(c *Clock) {
		c.observers = append(c.observers, o)
	}
}

// New creates a stopped clock firing rate times per second.
func New(rate float64, opts ...Option) (*Clock, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRate, rate)
	}
	c := &Clock{
		rate:      rate,
		newTicker: NewWallTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Rate returns firings per second.
func (c *Clock) Rate() float64 { return c.rate }

// Elapsed returns the simulated seconds each firing advances (1/rate).
func (c *Clock) Elapsed() float64 { return 1 / c.rate }

// Interval returns the wall-clock period between real-time firings.
func (c *Clock) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.rate)
}

// State returns the current scheduler state.
func (c *Clock) State() State { return State(c.state.Load()) }

// Seq returns the number of firings so far.
func (c *Clock) Seq() int64 { return c.seq.Load() }

// Register appends t to the tick order. There is no unregister.
func (c *Clock) Register(t Temporal) error {
	if t == nil {
		return ErrNilTemporal
	}
	c.regMu.Lock()
	defer c.regMu.Unlock()
	c.temporals = append(c.temporals, t)
	return nil
}

// Registered returns how many Temporals are registered.
func (c *Clock) Registered() int {
	c.regMu.Lock()
	defer c.regMu.Unlock()
	return len(c.temporals)
}

// AddObserver adds an observer after construction. Not safe while running.
func (c *Clock) AddObserver(o Observer) {
	c.observers = append(c.observers, o)
}

// TickOnce runs one firing with the given elapsed seconds, ticking every
// Temporal in registration order. Tick errors are logged and collected in
// the returned Firing; they never stop the firing.
func (c *Clock) TickOnce(elapsed float64) Firing {
	seq := c.seq.Add(1)

	c.regMu.Lock()
	temporals := make([]Temporal, len(c.temporals))
	copy(temporals, c.temporals)
	c.regMu.Unlock()

	f := Firing{Seq: seq, Elapsed: elapsed}
	for i, t := range temporals {
		if err := t.Tick(elapsed); err != nil {
			name := nameOf(t)
			f.Faults = append(f.Faults, TemporalFault{Index: i, Name: name, Err: err})
			c.log().Error("temporal tick failed",
				"seq", seq,
				"index", i,
				"temporal", name,
				"error", err,
			)
		}
	}

	for _, o := range c.observers {
		o(f)
	}
	return f
}

// Step runs one firing with the configured quantum (1/rate seconds).
func (c *Clock) Step() Firing {
	return c.TickOnce(c.Elapsed())
}

// Run executes n deterministic firings back to back, without wall-clock
// waits. It stops early if ctx is cancelled and returns the firings made.
func (c *Clock) Run(ctx context.Context, n int) ([]Firing, error) {
	if c.State() == Running {
		return nil, ErrAlreadyRunning
	}
	firings := make([]Firing, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return firings, err
		}
		firings = append(firings, c.Step())
	}
	return firings, nil
}

// Start launches the real-time driver. It fails if the clock is running.
// The driver stops on Stop or when ctx is cancelled.
func (c *Clock) Start(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !c.state.CompareAndSwap(int32(Stopped), int32(Running)) {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.runMu.Lock()
	c.cancel = cancel
	c.done = done
	c.runMu.Unlock()

	ticker := c.newTicker(c.Interval())
	c.log().Info("clock started", "rate", c.rate, "interval", c.Interval(), "temporals", c.Registered())
	go c.loop(runCtx, ticker, done)
	return nil
}

// Stop halts the real-time driver, blocking until the in-flight firing
// completes. It fails if the clock is already stopped.
func (c *Clock) Stop() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.State() != Running {
		return ErrNotRunning
	}

	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.runMu.Unlock()

	cancel()
	<-done
	return nil
}

// Wait blocks until the real-time driver exits. It returns immediately if
// the driver was never started.
func (c *Clock) Wait() {
	c.runMu.Lock()
	done := c.done
	c.runMu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Clock) loop(ctx context.Context, t Ticker, done chan struct{}) {
	defer c.finish(done)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log().Info("clock stopped", "seq", c.Seq())
			return
		case <-t.C():
			if ctx.Err() != nil {
				c.log().Info("clock stopped", "seq", c.Seq())
				return
			}
			c.Step()
		}
	}
}

// finish marks the clock stopped and closes done in one runMu section, so a
// Start that wins the state CAS cannot swap in a new done channel before the
// old one is closed.
func (c *Clock) finish(done chan struct{}) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	c.state.Store(int32(Stopped))
	close(done)
}

func (c *Clock) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

func nameOf(t Temporal) string {
	if n, ok := t.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", t)
}
