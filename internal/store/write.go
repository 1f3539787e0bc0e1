package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ivolynets/spacesim/internal/clock"
	"github.com/ivolynets/spacesim/internal/engine"
	"github.com/ivolynets/spacesim/internal/tank"
)

// RunInfo describes a run at its start.
type RunInfo struct {
	ID        string    `json:"id"`
	Vehicle   string    `json:"vehicle"`
	Rate      float64   `json:"rate"`
	StartedAt time.Time `json:"started_at"`
	Note      string    `json:"note,omitempty"`
}

// BeginRun inserts a run record and returns its ID. An empty info.ID is
// filled from the store's ID generator; a zero StartedAt becomes now (UTC).
func (s *Store) BeginRun(ctx context.Context, info RunInfo) (string, error) {
	if info.ID == "" {
		info.ID = s.ids.Generate()
	}
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, vehicle, rate, started_at, note)
		VALUES (?, ?, ?, ?, ?)
	`,
		info.ID,
		info.Vehicle,
		info.Rate,
		info.StartedAt.Format(time.RFC3339Nano),
		info.Note,
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return info.ID, nil
}

// WriteFiring stores one firing's engine samples, tank samples and faults
// in a single transaction.
//
// Rewriting the same (run, seq) is a no-op per row (ON CONFLICT DO NOTHING).
func (s *Store) WriteFiring(ctx context.Context, runID string, f clock.Firing, engines []engine.Snapshot, tanks []tank.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write firing %d: begin tx: %w", f.Seq, err)
	}
	defer tx.Rollback() // No-op if committed

	for _, e := range engines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO engine_samples
			(run_id, seq, engine, throttle, preburner, chamber, thrust_level, thrust)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, runID, f.Seq, e.Name, e.Throttle, e.PreburnerCombustion, e.ChamberCombustion, e.ThrustLevel, e.Thrust)
		if err != nil {
			return fmt.Errorf("write firing %d: engine %s: %w", f.Seq, e.Name, err)
		}
	}

	for _, t := range tanks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tank_samples
			(run_id, seq, tank, level_kg, fraction)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, runID, f.Seq, t.Name, t.Level, t.Fraction)
		if err != nil {
			return fmt.Errorf("write firing %d: tank %s: %w", f.Seq, t.Name, err)
		}
	}

	for _, fault := range f.Faults {
		var code string
		if c, ok := engine.FaultCodeOf(fault.Err); ok {
			code = string(c)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO faults
			(run_id, seq, idx, temporal, code, message)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, runID, f.Seq, fault.Index, fault.Name, code, fault.Err.Error())
		if err != nil {
			return fmt.Errorf("write firing %d: fault: %w", f.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write firing %d: commit: %w", f.Seq, err)
	}
	return nil
}
