package store

import (
	"context"
	"fmt"
	"time"
)

// EngineSample is one engine row.
type EngineSample struct {
	Seq         int64   `json:"seq"`
	Engine      string  `json:"engine"`
	Throttle    float64 `json:"throttle"`
	Preburner   float64 `json:"preburner"`
	Chamber     float64 `json:"chamber"`
	ThrustLevel float64 `json:"thrust_level"`
	Thrust      float64 `json:"thrust_n"`
}

// TankSample is one tank row.
type TankSample struct {
	Seq      int64   `json:"seq"`
	Tank     string  `json:"tank"`
	LevelKg  float64 `json:"level_kg"`
	Fraction float64 `json:"fraction"`
}

// FaultRecord is one fault row.
type FaultRecord struct {
	Seq      int64  `json:"seq"`
	Index    int    `json:"index"`
	Temporal string `json:"temporal"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

// ReadEngineSamples returns a run's engine rows ordered by seq, engine.
// Returns an empty slice (not nil) if the run has none.
func (s *Store) ReadEngineSamples(ctx context.Context, runID string) ([]EngineSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, engine, throttle, preburner, chamber, thrust_level, thrust
		FROM engine_samples
		WHERE run_id = ?
		ORDER BY seq ASC, engine COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query engine samples: %w", err)
	}
	defer rows.Close()

	samples := []EngineSample{}
	for rows.Next() {
		var es EngineSample
		if err := rows.Scan(&es.Seq, &es.Engine, &es.Throttle, &es.Preburner, &es.Chamber, &es.ThrustLevel, &es.Thrust); err != nil {
			return nil, fmt.Errorf("scan engine sample: %w", err)
		}
		samples = append(samples, es)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engine samples: %w", err)
	}
	return samples, nil
}

// ReadTankSamples returns a run's tank rows ordered by seq, tank.
func (s *Store) ReadTankSamples(ctx context.Context, runID string) ([]TankSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tank, level_kg, fraction
		FROM tank_samples
		WHERE run_id = ?
		ORDER BY seq ASC, tank COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query tank samples: %w", err)
	}
	defer rows.Close()

	samples := []TankSample{}
	for rows.Next() {
		var ts TankSample
		if err := rows.Scan(&ts.Seq, &ts.Tank, &ts.LevelKg, &ts.Fraction); err != nil {
			return nil, fmt.Errorf("scan tank sample: %w", err)
		}
		samples = append(samples, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tank samples: %w", err)
	}
	return samples, nil
}

// ReadFaults returns a run's fault rows ordered by seq, registration index.
func (s *Store) ReadFaults(ctx context.Context, runID string) ([]FaultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, idx, temporal, code, message
		FROM faults
		WHERE run_id = ?
		ORDER BY seq ASC, idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query faults: %w", err)
	}
	defer rows.Close()

	faults := []FaultRecord{}
	for rows.Next() {
		var fr FaultRecord
		if err := rows.Scan(&fr.Seq, &fr.Index, &fr.Temporal, &fr.Code, &fr.Message); err != nil {
			return nil, fmt.Errorf("scan fault: %w", err)
		}
		faults = append(faults, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faults: %w", err)
	}
	return faults, nil
}

// ReadRun returns one run. Returns sql.ErrNoRows (wrapped) if absent.
func (s *Store) ReadRun(ctx context.Context, runID string) (RunInfo, error) {
	var info RunInfo
	var started string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, vehicle, rate, started_at, note FROM runs WHERE id = ?
	`, runID).Scan(&info.ID, &info.Vehicle, &info.Rate, &started, &info.Note)
	if err != nil {
		return RunInfo{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	info.StartedAt, err = time.Parse(time.RFC3339Nano, started)
	if err != nil {
		return RunInfo{}, fmt.Errorf("read run %s: started_at: %w", runID, err)
	}
	return info, nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vehicle, rate, started_at, note
		FROM runs
		ORDER BY started_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunInfo{}
	for rows.Next() {
		var info RunInfo
		var started string
		if err := rows.Scan(&info.ID, &info.Vehicle, &info.Rate, &started, &info.Note); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if info.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("scan run %s: started_at: %w", info.ID, err)
		}
		runs = append(runs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// CountFaults returns how many faults of each code a run recorded.
func (s *Store) CountFaults(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, COUNT(*) FROM faults WHERE run_id = ? GROUP BY code
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count faults: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, fmt.Errorf("scan fault count: %w", err)
		}
		counts[code] = n
	}
	return counts, rows.Err()
}
