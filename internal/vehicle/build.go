package vehicle

import (
	"fmt"

	"github.com/ivolynets/spacesim/internal/clock"
	"github.com/ivolynets/spacesim/internal/engine"
	"github.com/ivolynets/spacesim/internal/propellant"
	"github.com/ivolynets/spacesim/internal/tank"
)

// Vehicle is a built definition: named tanks and engines, with every engine
// registered on Clock in declaration order.
type Vehicle struct {
	Name    string
	Clock   *clock.Clock
	Tanks   []*tank.Tank
	Engines []*engine.Engine

	tankByName   map[string]*tank.Tank
	engineByName map[string]*engine.Engine
}

// Build creates the tanks, engines and clock. Clock options (logger,
// observers, ticker) are passed through.
func (d *Definition) Build(opts ...clock.Option) (*Vehicle, error) {
	c, err := clock.New(d.Rate, opts...)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", d.Name, err)
	}

	v := &Vehicle{
		Name:         d.Name,
		Clock:        c,
		tankByName:   make(map[string]*tank.Tank, len(d.Tanks)),
		engineByName: make(map[string]*engine.Engine, len(d.Engines)),
	}

	for _, td := range d.Tanks {
		t, err := buildTank(td)
		if err != nil {
			return nil, err
		}
		v.Tanks = append(v.Tanks, t)
		v.tankByName[td.Name] = t
	}

	for _, ed := range d.Engines {
		e, err := v.buildEngine(ed)
		if err != nil {
			return nil, err
		}
		if err := e.Register(c); err != nil {
			return nil, fmt.Errorf("engine %s: %w", ed.Name, err)
		}
		v.Engines = append(v.Engines, e)
		v.engineByName[ed.Name] = e
	}

	return v, nil
}

func buildTank(td TankDef) (*tank.Tank, error) {
	c, ok := propellant.Lookup(td.Compound)
	if !ok {
		return nil, &DefinitionError{
			Field:   "tanks." + td.Name + ".compound",
			Message: fmt.Sprintf("unknown compound %q", td.Compound),
		}
	}

	var volume float64
	if td.CapacityML != nil {
		volume = *td.CapacityML
	} else {
		volume = c.Volume(*td.CapacityKg)
	}

	t, err := tank.New(c, volume, tank.WithName(td.Name))
	if err != nil {
		return nil, fmt.Errorf("tank %s: %w", td.Name, err)
	}

	switch {
	case td.Full:
		t.FillToCapacity()
	case td.FillKg != nil:
		t.FillMass(*td.FillKg)
	}
	return t, nil
}

func (v *Vehicle) buildEngine(ed EngineDef) (*engine.Engine, error) {
	e, err := engine.New(engine.Nominal{
		Thrust:       ed.ThrustN,
		FuelFlow:     ed.FuelFlowKgS,
		OxidizerFlow: ed.OxidizerFlowKgS,
	}, engine.WithName(ed.Name), engine.WithThrottle(ed.Throttle))
	if err != nil {
		return nil, fmt.Errorf("engine %s: %w", ed.Name, err)
	}

	if ed.FuelTank != "" {
		if err := v.connect(ed.Name, "fuel_tank", ed.FuelTank, e.SetFuelTank); err != nil {
			return nil, err
		}
	}
	if ed.OxidizerTank != "" {
		if err := v.connect(ed.Name, "oxidizer_tank", ed.OxidizerTank, e.SetOxidizerTank); err != nil {
			return nil, err
		}
	}

	e.SetPreburnerIgnition(ed.PreburnerIgnition)
	e.SetChamberIgnition(ed.ChamberIgnition)
	return e, nil
}

func (v *Vehicle) connect(engineName, field, tankName string, set func(*tank.Tank) error) error {
	t, ok := v.tankByName[tankName]
	if !ok {
		return &DefinitionError{
			Field:   "engines." + engineName + "." + field,
			Message: fmt.Sprintf("undeclared tank %q", tankName),
		}
	}
	if err := set(t); err != nil {
		return fmt.Errorf("engine %s %s: %w", engineName, field, err)
	}
	return nil
}

// Tank returns the named tank.
func (v *Vehicle) Tank(name string) (*tank.Tank, bool) {
	t, ok := v.tankByName[name]
	return t, ok
}

// Engine returns the named engine.
func (v *Vehicle) Engine(name string) (*engine.Engine, bool) {
	e, ok := v.engineByName[name]
	return e, ok
}

// EngineSnapshots returns every engine's state in declaration order.
func (v *Vehicle) EngineSnapshots() []engine.Snapshot {
	out := make([]engine.Snapshot, len(v.Engines))
	for i, e := range v.Engines {
		out[i] = e.Snapshot()
	}
	return out
}

// TankSnapshots returns every tank's state in declaration order.
func (v *Vehicle) TankSnapshots() []tank.Snapshot {
	out := make([]tank.Snapshot, len(v.Tanks))
	for i, t := range v.Tanks {
		out[i] = t.Snapshot()
	}
	return out
}

// TotalThrust sums the thrust of every engine, in N.
func (v *Vehicle) TotalThrust() float64 {
	var total float64
	for _, e := range v.Engines {
		total += e.Thrust()
	}
	return total
}
