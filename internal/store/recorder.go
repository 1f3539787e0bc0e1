package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ivolynets/spacesim/internal/clock"
	"github.com/ivolynets/spacesim/internal/engine"
	"github.com/ivolynets/spacesim/internal/tank"
)

// SnapshotSource supplies the state to record after each firing.
// *vehicle.Vehicle implements it.
type SnapshotSource interface {
	EngineSnapshots() []engine.Snapshot
	TankSnapshots() []tank.Snapshot
}

// Recorder writes every firing of a run to the store.
//
// Observe is meant to be registered with clock.WithObserver; it runs on the
// scheduler goroutine, so the snapshots it takes are consistent with the
// firing. Write errors are logged and counted, never returned to the clock.
type Recorder struct {
	ctx    context.Context
	store  *Store
	runID  string
	source SnapshotSource
	logger *slog.Logger

	mu       sync.Mutex
	recorded int
	failed   int
	lastErr  error
}

// NewRecorder creates a recorder for runID.
func NewRecorder(ctx context.Context, s *Store, runID string, source SnapshotSource, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		ctx:    ctx,
		store:  s,
		runID:  runID,
		source: source,
		logger: logger,
	}
}

// Observe records one firing. It satisfies clock.Observer.
func (r *Recorder) Observe(f clock.Firing) {
	err := r.store.WriteFiring(r.ctx, r.runID, f, r.source.EngineSnapshots(), r.source.TankSnapshots())

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failed++
		r.lastErr = err
		r.logger.Error("telemetry write failed", "run", r.runID, "seq", f.Seq, "error", err)
		return
	}
	r.recorded++
}

// Stats returns the number of recorded and failed firings and the last error.
func (r *Recorder) Stats() (recorded, failed int, lastErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded, r.failed, r.lastErr
}

// RunID returns the run being recorded.
func (r *Recorder) RunID() string { return r.runID }
