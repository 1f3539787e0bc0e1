package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ivolynets/spacesim/internal/clock"
	"github.com/ivolynets/spacesim/internal/engine"
	"github.com/ivolynets/spacesim/internal/vehicle"
)

// Harness executes one scenario against one freshly built vehicle.
type Harness struct {
	vehicle *vehicle.Vehicle
	logger  *slog.Logger
	faults  []FaultEvent // collected by the clock observer, drained per step
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load or parse the vehicle definition and build it
// 2. Execute steps, recording a trace entry after each
// 3. Evaluate assertions against the final state
//
// A returned error means the scenario could not be executed (bad vehicle,
// unknown engine or tank in a step). Assertion failures are reported in
// the Result instead.
func Run(scenario *Scenario) (*Result, error) {
	def, err := loadVehicle(scenario.Vehicle)
	if err != nil {
		return nil, fmt.Errorf("failed to load vehicle: %w", err)
	}

	h := &Harness{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	v, err := def.Build(
		clock.WithLogger(h.logger),
		clock.WithObserver(h.observe),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build vehicle: %w", err)
	}
	h.vehicle = v

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Kind(), err)
		}
		result.Trace = append(result.Trace, h.snapshot(i, step.Kind()))
	}

	for _, errMsg := range EvaluateAssertions(result, v, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func loadVehicle(src string) (*vehicle.Definition, error) {
	if isVehiclePath(src) {
		return vehicle.Load(src)
	}
	return vehicle.Parse(src)
}

func (h *Harness) observe(f clock.Firing) {
	for _, tf := range f.Faults {
		fe := FaultEvent{Seq: f.Seq, Temporal: tf.Name, Message: tf.Err.Error()}
		if code, ok := engine.FaultCodeOf(tf.Err); ok {
			fe.Code = string(code)
		}
		h.faults = append(h.faults, fe)
	}
}

func (h *Harness) executeStep(ctx context.Context, step Step) error {
	switch step.Kind() {
	case StepFire:
		_, err := h.vehicle.Clock.Run(ctx, step.Fire)
		return err

	case StepSet:
		e, err := h.engine(step.Set.Engine)
		if err != nil {
			return err
		}
		if step.Set.Throttle != nil {
			if err := e.SetThrottle(*step.Set.Throttle); err != nil {
				return err
			}
		}
		if step.Set.PreburnerIgnition != nil {
			e.SetPreburnerIgnition(*step.Set.PreburnerIgnition)
		}
		if step.Set.ChamberIgnition != nil {
			e.SetChamberIgnition(*step.Set.ChamberIgnition)
		}
		return nil

	case StepFill:
		t, ok := h.vehicle.Tank(step.Fill.Tank)
		if !ok {
			return fmt.Errorf("unknown tank %q", step.Fill.Tank)
		}
		t.FillMass(step.Fill.Kg)
		return nil

	case StepDrain:
		t, ok := h.vehicle.Tank(step.Drain.Tank)
		if !ok {
			return fmt.Errorf("unknown tank %q", step.Drain.Tank)
		}
		t.DrainMass(step.Drain.Kg)
		return nil

	case StepShutdown:
		e, err := h.engine(step.Shutdown)
		if err != nil {
			return err
		}
		e.Shutdown()
		return nil
	}
	return fmt.Errorf("step has no single action")
}

func (h *Harness) engine(name string) (*engine.Engine, error) {
	e, ok := h.vehicle.Engine(name)
	if !ok {
		return nil, fmt.Errorf("unknown engine %q", name)
	}
	return e, nil
}

func (h *Harness) snapshot(index int, kind string) TraceStep {
	ts := TraceStep{
		Index:   index,
		Kind:    kind,
		Seq:     h.vehicle.Clock.Seq(),
		Engines: h.vehicle.EngineSnapshots(),
		Tanks:   h.vehicle.TankSnapshots(),
		Faults:  h.faults,
	}
	h.faults = nil
	return ts
}
