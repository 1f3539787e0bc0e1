package engine

import (
	"fmt"
	"math"

	"github.com/ivolynets/spacesim/internal/propellant"
)

// Tick advances the engine by elapsed seconds, implementing clock.Temporal.
//
// Both tank ports are checked before anything is drained. A missing tank
// returns a *Fault and leaves the combustion levels unchanged.
func (e *Engine) Tick(elapsed float64) error {
	if !(elapsed >= 0) || math.IsInf(elapsed, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidElapsed, elapsed)
	}
	if e.fuelTank == nil {
		return NewNoTankFault(e.name, propellant.Fuel)
	}
	if e.oxidizerTank == nil {
		return NewNoTankFault(e.name, propellant.Oxidizer)
	}

	// Pre-burner draw follows the throttle.
	e.preburnerCombustion = e.burn(e.preburnerIgnition, e.preburnerCombustion, PreburnerTapOff, e.throttle, elapsed)

	// The pump, and so the chamber draw, follows the pre-burner.
	e.chamberCombustion = e.burn(e.chamberIgnition, e.chamberCombustion, ChamberTapOff, e.preburnerCombustion, elapsed)

	return nil
}

// burn runs one stage and returns its new combustion level, the supply ratio
// of the limiting reactant. demand only sizes the request.
func (e *Engine) burn(ignition bool, level, tapOff, demand, elapsed float64) float64 {
	if !ignition && !(level > 0) {
		return 0
	}

	fuelRequired := e.nominal.FuelFlow * tapOff * demand * elapsed
	oxidizerRequired := e.nominal.OxidizerFlow * tapOff * demand * elapsed

	fuelSupply := supply(e.fuelTank.DrainMass(fuelRequired), fuelRequired)
	oxidizerSupply := supply(e.oxidizerTank.DrainMass(oxidizerRequired), oxidizerRequired)

	return math.Min(fuelSupply, oxidizerSupply)
}

// supply is drained/required, or 1 when nothing was required.
func supply(drained, required float64) float64 {
	if required <= 0 {
		return 1
	}
	return clamp01(drained / required)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
