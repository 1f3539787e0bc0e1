package engine

import (
	"fmt"
	"math"

	"github.com/ivolynets/spacesim/internal/clock"
	"github.com/ivolynets/spacesim/internal/propellant"
	"github.com/ivolynets/spacesim/internal/tank"
)

// Fixed split of nominal propellant flow between the two stages.
const (
	PreburnerTapOff = 0.05
	ChamberTapOff   = 0.95
)

// StandardGravity in m/s², for SpecificImpulse.
const StandardGravity = 9.80665

// Nominal holds an engine's time-invariant design point.
type Nominal struct {
	Thrust       float64 // N
	FuelFlow     float64 // kg/s
	OxidizerFlow float64 // kg/s
}

// Engine is a two-stage combustion engine fed by a fuel and an oxidizer tank.
//
// Engine is not safe for concurrent use; the clock ticks it on a single
// goroutine and readers take Snapshots from clock observers.
type Engine struct {
	name    string
	nominal Nominal

	throttle          float64
	preburnerIgnition bool
	chamberIgnition   bool
	fuelTank          *tank.Tank
	oxidizerTank      *tank.Tank

	preburnerCombustion float64
	chamberCombustion   float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithName labels the engine for logs and telemetry.
func WithName(name string) Option {
	return func(e *Engine) {
		e.name = name
	}
}

// WithThrottle sets the initial throttle. Out-of-range values make New fail.
func WithThrottle(throttle float64) Option {
	return func(e *Engine) {
		e.throttle = throttle
	}
}

// New creates an engine with both stages extinguished, ignition off and
// throttle at 1 unless WithThrottle says otherwise.
func New(n Nominal, opts ...Option) (*Engine, error) {
	for _, v := range []float64{n.Thrust, n.FuelFlow, n.OxidizerFlow} {
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidNominal, n)
		}
	}
	e := &Engine{
		name:     "engine",
		nominal:  n,
		throttle: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := validThrottle(e.throttle); err != nil {
		return nil, err
	}
	return e, nil
}

// Name returns the engine label.
func (e *Engine) Name() string { return e.name }

// Nominal returns the design point.
func (e *Engine) Nominal() Nominal { return e.nominal }

// ThrustNominal is the design thrust in N.
func (e *Engine) ThrustNominal() float64 { return e.nominal.Thrust }

// FuelFlowNominal is the design fuel flow in kg/s.
func (e *Engine) FuelFlowNominal() float64 { return e.nominal.FuelFlow }

// OxidizerFlowNominal is the design oxidizer flow in kg/s.
func (e *Engine) OxidizerFlowNominal() float64 { return e.nominal.OxidizerFlow }

// PropellantFlowNominal is fuel plus oxidizer flow at the design point.
func (e *Engine) PropellantFlowNominal() float64 {
	return e.nominal.FuelFlow + e.nominal.OxidizerFlow
}

// ExhaustVelocityNominal is thrust over propellant flow at the design point (m/s).
func (e *Engine) ExhaustVelocityNominal() float64 {
	return e.nominal.Thrust / e.PropellantFlowNominal()
}

// Throttle returns the commanded throttle in [0,1].
func (e *Engine) Throttle() float64 { return e.throttle }

// SetThrottle commands a throttle in [0,1].
func (e *Engine) SetThrottle(throttle float64) error {
	if err := validThrottle(throttle); err != nil {
		return err
	}
	e.throttle = throttle
	return nil
}

// PreburnerIgnition reports the pre-burner ignition flag.
func (e *Engine) PreburnerIgnition() bool { return e.preburnerIgnition }

// SetPreburnerIgnition sets the pre-burner ignition flag. It only matters
// while the pre-burner is out.
func (e *Engine) SetPreburnerIgnition(on bool) { e.preburnerIgnition = on }

// ChamberIgnition reports the chamber ignition flag.
func (e *Engine) ChamberIgnition() bool { return e.chamberIgnition }

// SetChamberIgnition sets the chamber ignition flag.
func (e *Engine) SetChamberIgnition(on bool) { e.chamberIgnition = on }

// PreburnerCombustion is the pre-burner level in [0,1].
func (e *Engine) PreburnerCombustion() float64 { return e.preburnerCombustion }

// ChamberCombustion is the main chamber level in [0,1].
func (e *Engine) ChamberCombustion() float64 { return e.chamberCombustion }

// FuelTank returns the connected fuel tank, or nil.
func (e *Engine) FuelTank() *tank.Tank { return e.fuelTank }

// OxidizerTank returns the connected oxidizer tank, or nil.
func (e *Engine) OxidizerTank() *tank.Tank { return e.oxidizerTank }

// Burning reports whether either stage is lit.
func (e *Engine) Burning() bool { return e.ThrustLevel() > 0 }

// Register adds the engine to r's tick order.
func (e *Engine) Register(r clock.Registrar) error { return r.Register(e) }

// SetFuelTank connects t to the fuel port. t must hold a Fuel.
func (e *Engine) SetFuelTank(t *tank.Tank) error {
	if err := checkPort(t, propellant.Fuel); err != nil {
		return err
	}
	e.fuelTank = t
	return nil
}

// SetOxidizerTank connects t to the oxidizer port. t must hold an Oxidizer.
func (e *Engine) SetOxidizerTank(t *tank.Tank) error {
	if err := checkPort(t, propellant.Oxidizer); err != nil {
		return err
	}
	e.oxidizerTank = t
	return nil
}

// DisconnectFuelTank empties the fuel port. The next Tick faults.
func (e *Engine) DisconnectFuelTank() { e.fuelTank = nil }

// DisconnectOxidizerTank empties the oxidizer port. The next Tick faults.
func (e *Engine) DisconnectOxidizerTank() { e.oxidizerTank = nil }

// Shutdown cuts the engine off at once: both ignition flags are cleared, the
// throttle is closed and both stages are extinguished. A lit stage never goes
// out on its own while it is fed, so only Shutdown or starvation stops it.
func (e *Engine) Shutdown() {
	e.preburnerIgnition = false
	e.chamberIgnition = false
	e.throttle = 0
	e.preburnerCombustion = 0
	e.chamberCombustion = 0
}

// ThrustLevel is the weighted combustion level in [0,1].
func (e *Engine) ThrustLevel() float64 {
	return PreburnerTapOff*e.preburnerCombustion + ChamberTapOff*e.chamberCombustion
}

// Thrust in N.
func (e *Engine) Thrust() float64 { return e.nominal.Thrust * e.ThrustLevel() }

// FuelFlow in kg/s.
func (e *Engine) FuelFlow() float64 { return e.nominal.FuelFlow * e.ThrustLevel() }

// OxidizerFlow in kg/s.
func (e *Engine) OxidizerFlow() float64 { return e.nominal.OxidizerFlow * e.ThrustLevel() }

// PropellantFlow in kg/s.
func (e *Engine) PropellantFlow() float64 { return e.PropellantFlowNominal() * e.ThrustLevel() }

// EffectiveExhaustVelocity in m/s.
func (e *Engine) EffectiveExhaustVelocity() float64 {
	return e.ExhaustVelocityNominal() * e.ThrustLevel()
}

// SpecificImpulse returns thrust per unit propellant weight flow, in seconds,
// for gravitational acceleration g. It is 0 while the engine is not burning.
func (e *Engine) SpecificImpulse(g float64) float64 {
	flow := e.PropellantFlow()
	if flow <= 0 || g <= 0 {
		return 0
	}
	return e.Thrust() / (flow * g)
}

// Snapshot is a read-only copy of an engine's observable state.
type Snapshot struct {
	Name                string  `json:"name"`
	Throttle            float64 `json:"throttle"`
	PreburnerIgnition   bool    `json:"preburner_ignition"`
	ChamberIgnition     bool    `json:"chamber_ignition"`
	PreburnerCombustion float64 `json:"preburner_combustion"`
	ChamberCombustion   float64 `json:"chamber_combustion"`
	ThrustLevel         float64 `json:"thrust_level"`
	Thrust              float64 `json:"thrust_n"`
	PropellantFlow      float64 `json:"propellant_flow_kg_s"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Name:                e.name,
		Throttle:            e.throttle,
		PreburnerIgnition:   e.preburnerIgnition,
		ChamberIgnition:     e.chamberIgnition,
		PreburnerCombustion: e.preburnerCombustion,
		ChamberCombustion:   e.chamberCombustion,
		ThrustLevel:         e.ThrustLevel(),
		Thrust:              e.Thrust(),
		PropellantFlow:      e.PropellantFlow(),
	}
}

func validThrottle(throttle float64) error {
	if !(throttle >= 0 && throttle <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidThrottle, throttle)
	}
	return nil
}

func checkPort(t *tank.Tank, want propellant.Kind) error {
	if t == nil {
		return fmt.Errorf("%w: %s port", ErrNilTank, want)
	}
	if got := t.Compound().Kind(); got != want {
		return fmt.Errorf("%w: %s port cannot hold %s %q", ErrCompoundMismatch, want, got, t.Compound().Name())
	}
	return nil
}
