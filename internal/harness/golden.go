package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string      `json:"scenario_name"`
	Pass         bool        `json:"pass"`
	Trace        []TraceStep `json:"trace"`
}

// MarshalTrace renders a result as indented JSON with a trailing newline.
// Field order follows the struct definitions, so output is stable.
func MarshalTrace(name string, result *Result) ([]byte, error) {
	data, err := json.MarshalIndent(TraceSnapshot{
		ScenarioName: name,
		Pass:         result.Pass,
		Trace:        result.Trace,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Extra goldie options (e.g. a different fixture dir) are applied after the
// defaults. Returns an error if the scenario could not be executed; a trace
// mismatch fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...goldie.Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result, opts...); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, name string, result *Result, opts ...goldie.Option) error {
	t.Helper()

	traceJSON, err := MarshalTrace(name, result)
	if err != nil {
		return err
	}

	g := newGoldie(t, opts...)
	g.Assert(t, name, traceJSON)
	return nil
}

func newGoldie(t *testing.T, opts ...goldie.Option) *goldie.Goldie {
	base := []goldie.Option{
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	}
	return goldie.New(t, append(base, opts...)...)
}
