package harness

import (
	"github.com/ivolynets/spacesim/internal/engine"
	"github.com/ivolynets/spacesim/internal/tank"
)

// FaultEvent is one caught Temporal fault.
type FaultEvent struct {
	Seq      int64  `json:"seq"`
	Temporal string `json:"temporal"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

// TraceStep is the vehicle state after one scenario step.
type TraceStep struct {
	Index   int               `json:"index"`
	Kind    string            `json:"kind"`
	Seq     int64             `json:"seq"` // clock seq after the step
	Engines []engine.Snapshot `json:"engines"`
	Tanks   []tank.Snapshot   `json:"tanks"`
	Faults  []FaultEvent      `json:"faults,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Trace has one entry per step, in order.
	Trace []TraceStep `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceStep{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Faults returns every fault in the trace, in order.
func (r *Result) Faults() []FaultEvent {
	var out []FaultEvent
	for _, s := range r.Trace {
		out = append(out, s.Faults...)
	}
	return out
}
