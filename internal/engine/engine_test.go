package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivolynets/spacesim/internal/propellant"
	"github.com/ivolynets/spacesim/internal/tank"
)

var testNominal = Nominal{Thrust: 1000, FuelFlow: 1, OxidizerFlow: 2}

// newFilledTank creates a tank of c holding exactly fillKg with capacity capKg.
func newFilledTank(t *testing.T, c propellant.Compound, capKg, fillKg float64) *tank.Tank {
	t.Helper()
	tk, err := tank.New(c, capKg/c.Density())
	require.NoError(t, err)
	tk.FillMass(fillKg)
	return tk
}

// newTestEngine creates an engine wired to fresh tanks holding fuelKg and oxKg.
func newTestEngine(t *testing.T, fuelKg, oxKg float64) (*Engine, *tank.Tank, *tank.Tank) {
	t.Helper()
	e, err := New(testNominal, WithName("test"))
	require.NoError(t, err)

	fuel := newFilledTank(t, propellant.RP1, 1000, fuelKg)
	ox := newFilledTank(t, propellant.LiquidOxygen, 1000, oxKg)
	require.NoError(t, e.SetFuelTank(fuel))
	require.NoError(t, e.SetOxidizerTank(ox))
	return e, fuel, ox
}

func ignite(e *Engine) {
	e.SetPreburnerIgnition(true)
	e.SetChamberIgnition(true)
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(testNominal)
	require.NoError(t, err)

	assert.Equal(t, 1.0, e.Throttle())
	assert.False(t, e.PreburnerIgnition())
	assert.False(t, e.ChamberIgnition())
	assert.Equal(t, 0.0, e.ThrustLevel())
	assert.Nil(t, e.FuelTank())
	assert.Nil(t, e.OxidizerTank())
	assert.Equal(t, 3.0, e.PropellantFlowNominal())
	assert.InDelta(t, 1000.0/3.0, e.ExhaustVelocityNominal(), 1e-9)
}

func TestNew_RejectsInvalidNominal(t *testing.T) {
	bad := []Nominal{
		{Thrust: 0, FuelFlow: 1, OxidizerFlow: 1},
		{Thrust: 1, FuelFlow: -1, OxidizerFlow: 1},
		{Thrust: 1, FuelFlow: 1, OxidizerFlow: math.NaN()},
		{Thrust: math.Inf(1), FuelFlow: 1, OxidizerFlow: 1},
	}
	for _, n := range bad {
		_, err := New(n)
		assert.ErrorIs(t, err, ErrInvalidNominal, "%+v", n)
	}

	_, err := New(testNominal, WithThrottle(1.5))
	assert.ErrorIs(t, err, ErrInvalidThrottle)
}

func TestSetThrottle_Range(t *testing.T) {
	e, err := New(testNominal)
	require.NoError(t, err)

	require.NoError(t, e.SetThrottle(0))
	require.NoError(t, e.SetThrottle(0.42))
	assert.Equal(t, 0.42, e.Throttle())

	for _, v := range []float64{-0.01, 1.01, math.NaN(), math.Inf(-1)} {
		assert.ErrorIs(t, e.SetThrottle(v), ErrInvalidThrottle, "throttle %v", v)
	}
	assert.Equal(t, 0.42, e.Throttle(), "rejected value must not be applied")
}

func TestSetTank_KindMismatch(t *testing.T) {
	e, err := New(testNominal)
	require.NoError(t, err)
	fuel := newFilledTank(t, propellant.Kerosene, 10, 0)
	ox := newFilledTank(t, propellant.NitrogenTetroxide, 10, 0)

	assert.ErrorIs(t, e.SetFuelTank(ox), ErrCompoundMismatch)
	assert.ErrorIs(t, e.SetOxidizerTank(fuel), ErrCompoundMismatch)
	assert.Nil(t, e.FuelTank())
	assert.Nil(t, e.OxidizerTank())

	assert.ErrorIs(t, e.SetFuelTank(nil), ErrNilTank)
	assert.ErrorIs(t, e.SetOxidizerTank(nil), ErrNilTank)
}

func TestTick_NeverIgnited(t *testing.T) {
	e, fuel, ox := newTestEngine(t, 1000, 1000)

	require.NoError(t, e.Tick(1))

	assert.Equal(t, 0.0, e.ThrustLevel())
	assert.Equal(t, 0.0, e.Thrust())
	assert.False(t, e.Burning())
	assert.InDelta(t, 1000, fuel.Level(), 1e-9, "no propellant drawn")
	assert.InDelta(t, 1000, ox.Level(), 1e-9)
}

func TestTick_FullSupplyReachesNominal(t *testing.T) {
	e, fuel, ox := newTestEngine(t, 1000, 1000)
	ignite(e)

	require.NoError(t, e.Tick(1))

	assert.InDelta(t, 1.0, e.PreburnerCombustion(), 1e-12)
	assert.InDelta(t, 1.0, e.ChamberCombustion(), 1e-12)
	assert.InDelta(t, 1.0, e.ThrustLevel(), 1e-12)
	assert.InDelta(t, e.ThrustNominal(), e.Thrust(), 1e-9)
	assert.InDelta(t, 3.0, e.PropellantFlow(), 1e-9)

	// One second at nominal flow.
	assert.InDelta(t, 999, fuel.Level(), 1e-9)
	assert.InDelta(t, 998, ox.Level(), 1e-9)
}

func TestTick_FlowQuantitiesScaleWithThrustLevel(t *testing.T) {
	// Half the fuel one second needs, so the level lands below 1.
	e, _, _ := newTestEngine(t, 0.5, 1000)
	ignite(e)
	require.NoError(t, e.Tick(1))

	level := e.ThrustLevel()
	require.InDelta(t, 0.5, level, 1e-9)
	assert.InDelta(t, e.ThrustNominal()*level, e.Thrust(), 1e-9)
	assert.InDelta(t, e.FuelFlowNominal()*level, e.FuelFlow(), 1e-9)
	assert.InDelta(t, e.OxidizerFlowNominal()*level, e.OxidizerFlow(), 1e-9)
	assert.InDelta(t, e.PropellantFlowNominal()*level, e.PropellantFlow(), 1e-9)
	assert.InDelta(t, e.ExhaustVelocityNominal()*level, e.EffectiveExhaustVelocity(), 1e-9)
}

func TestTick_FuelStarvation(t *testing.T) {
	// Half the fuel one full-throttle second needs.
	e, fuel, _ := newTestEngine(t, 0.5, 1000)
	ignite(e)

	require.NoError(t, e.Tick(1))

	// Pre-burner is fully fed (0.05 kg); the chamber gets the remaining 0.45
	// of the 0.95 kg it asked for.
	assert.InDelta(t, 1.0, e.PreburnerCombustion(), 1e-9)
	assert.InDelta(t, 0.45/0.95, e.ChamberCombustion(), 1e-9)
	assert.LessOrEqual(t, e.ChamberCombustion(), 0.5)
	assert.InDelta(t, 0.5, e.ThrustLevel(), 1e-9, "thrust follows the 50% fuel supply")
	assert.True(t, fuel.Empty())
}

func TestTick_PreburnerStarvationGatesChamber(t *testing.T) {
	// Half of the pre-burner's 0.05 kg.
	e, _, _ := newTestEngine(t, 0.025, 1000)
	ignite(e)

	require.NoError(t, e.Tick(1))

	assert.InDelta(t, 0.5, e.PreburnerCombustion(), 1e-9)
	assert.Equal(t, 0.0, e.ChamberCombustion(), "nothing left for the chamber")
	assert.InDelta(t, PreburnerTapOff*0.5, e.ThrustLevel(), 1e-9)
}

func TestTick_LimitingReactantCapsLevel(t *testing.T) {
	// Oxidizer is the short one: 30% of one second's 2 kg.
	e, _, _ := newTestEngine(t, 1000, 0.6)
	ignite(e)

	require.NoError(t, e.Tick(1))

	assert.InDelta(t, 0.3, e.ThrustLevel(), 1e-9)
	assert.LessOrEqual(t, e.PreburnerCombustion(), 1.0)
	assert.LessOrEqual(t, e.ChamberCombustion(), 0.3/0.95+1e-9)
}

func TestTick_SelfSustainsWithoutIgnition(t *testing.T) {
	e, _, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.Tick(1))

	e.SetPreburnerIgnition(false)
	e.SetChamberIgnition(false)
	require.NoError(t, e.Tick(1))
	require.NoError(t, e.Tick(1))

	assert.InDelta(t, 1.0, e.ThrustLevel(), 1e-12, "lit stages keep burning")
}

func TestTick_StarvationExtinguishesUntilReignited(t *testing.T) {
	e, fuel, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.Tick(1))
	e.SetPreburnerIgnition(false)
	e.SetChamberIgnition(false)

	fuel.DrainMass(fuel.Level())
	require.NoError(t, e.Tick(1))
	assert.Equal(t, 0.0, e.PreburnerCombustion())
	assert.Equal(t, 0.0, e.ChamberCombustion())

	fuel.FillMass(100)
	require.NoError(t, e.Tick(1))
	assert.Equal(t, 0.0, e.ThrustLevel(), "refilling does not relight without ignition")
	assert.InDelta(t, 100, fuel.Level(), 1e-9)

	ignite(e)
	require.NoError(t, e.Tick(1))
	assert.InDelta(t, 1.0, e.ThrustLevel(), 1e-9)
}

func TestTick_ChamberNeedsItsOwnIgnition(t *testing.T) {
	e, _, _ := newTestEngine(t, 1000, 1000)
	e.SetPreburnerIgnition(true)

	require.NoError(t, e.Tick(1))

	assert.InDelta(t, 1.0, e.PreburnerCombustion(), 1e-12)
	assert.Equal(t, 0.0, e.ChamberCombustion())
	assert.InDelta(t, PreburnerTapOff, e.ThrustLevel(), 1e-12)
}

func TestTick_PartialThrottleAtFullSupply(t *testing.T) {
	e, fuel, ox := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.SetThrottle(0.5))

	require.NoError(t, e.Tick(2))

	// Both stages got everything they asked for.
	assert.InDelta(t, 1.0, e.PreburnerCombustion(), 1e-12)
	assert.InDelta(t, 1.0, e.ChamberCombustion(), 1e-12)
	assert.InDelta(t, 1.0, e.ThrustLevel(), 1e-12)

	// Throttle halves only the pre-burner draw: 2 s × (0.05×0.5 + 0.95) × flow.
	assert.InDelta(t, 1000-2*(PreburnerTapOff*0.5+ChamberTapOff)*1, fuel.Level(), 1e-9)
	assert.InDelta(t, 1000-2*(PreburnerTapOff*0.5+ChamberTapOff)*2, ox.Level(), 1e-9)
}

func TestTick_PartialThrottleStarvesSooner(t *testing.T) {
	// Enough fuel for the half-throttle pre-burner (0.025 kg) but only part
	// of the chamber's 0.95 kg.
	e, _, _ := newTestEngine(t, 0.5, 1000)
	ignite(e)
	require.NoError(t, e.SetThrottle(0.5))

	require.NoError(t, e.Tick(1))

	assert.InDelta(t, 1.0, e.PreburnerCombustion(), 1e-12)
	assert.InDelta(t, 0.475/0.95, e.ChamberCombustion(), 1e-9)
}

func TestTick_ZeroDemandCountsAsFullSupply(t *testing.T) {
	e, fuel, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.Tick(1))
	require.InDelta(t, 1.0, e.ThrustLevel(), 1e-12)

	e.SetPreburnerIgnition(false)
	e.SetChamberIgnition(false)
	require.NoError(t, e.SetThrottle(0))
	before := fuel.Level()
	require.NoError(t, e.Tick(1))

	// The pre-burner asked for nothing, so it had no shortfall and stays lit.
	assert.InDelta(t, 1.0, e.PreburnerCombustion(), 1e-12)
	assert.InDelta(t, 1.0, e.ChamberCombustion(), 1e-12)
	// Only the chamber drew fuel.
	assert.InDelta(t, before-ChamberTapOff, fuel.Level(), 1e-9)
}

func TestTick_ZeroElapsedKeepsLevels(t *testing.T) {
	e, fuel, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.Tick(0))

	assert.InDelta(t, 1.0, e.ThrustLevel(), 1e-12, "no demand, no shortfall")
	assert.InDelta(t, 1000, fuel.Level(), 1e-9)
}

func TestShutdown_ExtinguishesImmediately(t *testing.T) {
	e, fuel, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.Tick(1))
	require.True(t, e.Burning())

	e.Shutdown()
	assert.Equal(t, 0.0, e.ThrustLevel())
	assert.False(t, e.PreburnerIgnition())
	assert.False(t, e.ChamberIgnition())
	assert.Equal(t, 0.0, e.Throttle())

	before := fuel.Level()
	require.NoError(t, e.Tick(1))
	assert.False(t, e.Burning(), "stays out without ignition")
	assert.Equal(t, before, fuel.Level())
}

func TestTick_NoFuelTankFault(t *testing.T) {
	e, _, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.SetThrottle(0.7))
	require.NoError(t, e.Tick(1))
	pre, chamber := e.PreburnerCombustion(), e.ChamberCombustion()

	e.DisconnectFuelTank()
	err := e.Tick(1)

	require.Error(t, err)
	code, ok := FaultCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeNoFuelTank, code)
	assert.True(t, IsNoTankFault(err))
	assert.Contains(t, err.Error(), "no fuel tank connected")
	assert.Contains(t, err.Error(), "engine=test")
	assert.Equal(t, pre, e.PreburnerCombustion())
	assert.Equal(t, chamber, e.ChamberCombustion())
}

func TestTick_NoOxidizerTankFaultDrainsNothing(t *testing.T) {
	e, fuel, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	e.DisconnectOxidizerTank()

	err := e.Tick(1)

	code, ok := FaultCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeNoOxidizerTank, code)
	assert.InDelta(t, 1000, fuel.Level(), 1e-9, "fuel untouched when the oxidizer port is empty")
	assert.Equal(t, 0.0, e.ThrustLevel())
}

func TestTick_InvalidElapsed(t *testing.T) {
	e, _, _ := newTestEngine(t, 1000, 1000)
	ignite(e)

	for _, dt := range []float64{-1, math.NaN(), math.Inf(1)} {
		err := e.Tick(dt)
		assert.ErrorIs(t, err, ErrInvalidElapsed, "elapsed %v", dt)
		_, isFault := FaultCodeOf(err)
		assert.False(t, isFault, "contract violations are not faults")
	}
	assert.Equal(t, 0.0, e.ThrustLevel())
}

func TestDerivedAccessors_DoNotMutate(t *testing.T) {
	e, fuel, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.Tick(0.25))
	before := e.Snapshot()
	level := fuel.Level()

	for i := 0; i < 5; i++ {
		e.Thrust()
		e.FuelFlow()
		e.OxidizerFlow()
		e.PropellantFlow()
		e.EffectiveExhaustVelocity()
		e.SpecificImpulse(StandardGravity)
		e.Snapshot()
	}

	assert.Equal(t, before, e.Snapshot())
	assert.Equal(t, level, fuel.Level())
}

func TestSpecificImpulse(t *testing.T) {
	e, _, _ := newTestEngine(t, 1000, 1000)
	assert.Equal(t, 0.0, e.SpecificImpulse(StandardGravity), "not burning")

	ignite(e)
	require.NoError(t, e.Tick(1))

	want := e.ExhaustVelocityNominal() / StandardGravity
	assert.InDelta(t, want, e.SpecificImpulse(StandardGravity), 1e-9)
	assert.Equal(t, 0.0, e.SpecificImpulse(0))
}

func TestSnapshot(t *testing.T) {
	e, _, _ := newTestEngine(t, 1000, 1000)
	ignite(e)
	require.NoError(t, e.Tick(1))

	s := e.Snapshot()
	assert.Equal(t, "test", s.Name)
	assert.True(t, s.PreburnerIgnition)
	assert.InDelta(t, 1.0, s.ThrustLevel, 1e-12)
	assert.InDelta(t, 1000, s.Thrust, 1e-9)
	assert.InDelta(t, 3, s.PropellantFlow, 1e-9)
}
