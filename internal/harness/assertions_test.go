package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssertFaultCount_Filters(t *testing.T) {
	faults := []FaultEvent{
		{Seq: 1, Temporal: "a", Code: "NO_FUEL_TANK"},
		{Seq: 1, Temporal: "b", Code: "NO_OXIDIZER_TANK"},
		{Seq: 2, Temporal: "a", Code: "NO_FUEL_TANK"},
		{Seq: 2, Temporal: "c"},
	}

	tests := []struct {
		name   string
		engine string
		code   string
		count  int
	}{
		{"all", "", "", 4},
		{"by engine", "a", "", 2},
		{"by code", "", "NO_OXIDIZER_TANK", 1},
		{"by engine and code", "a", "NO_OXIDIZER_TANK", 0},
		{"uncoded", "c", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFaultCount(faults, Assertion{Type: AssertFaultCount, Engine: tt.engine, Code: tt.code, Count: tt.count})
			assert.NoError(t, err)

			err = assertFaultCount(faults, Assertion{Type: AssertFaultCount, Engine: tt.engine, Code: tt.code, Count: tt.count + 1})
			assert.Error(t, err)
		})
	}
}

func TestAssertFaultCount_Message(t *testing.T) {
	err := assertFaultCount(nil, Assertion{Type: AssertFaultCount, Engine: "a", Code: "NO_FUEL_TANK", Count: 2})

	var ae *AssertionError
	if assert.ErrorAs(t, err, &ae) {
		assert.Equal(t, "a NO_FUEL_TANK", ae.Subject)
		assert.Equal(t, "2 faults", ae.Expected)
		assert.Equal(t, "0 faults", ae.Actual)
	}
}

func TestAssertNear_Tolerance(t *testing.T) {
	a := Assertion{Type: AssertThrustLevel, Expect: 0.5, Tolerance: 0.1}

	assert.NoError(t, assertNear(a, "e", 0.55))
	assert.NoError(t, assertNear(a, "e", 0.45))
	assert.Error(t, assertNear(a, "e", 0.65))
}

func TestAssertNear_DefaultTolerance(t *testing.T) {
	a := Assertion{Type: AssertTankLevel, Expect: 1}

	assert.NoError(t, assertNear(a, "t", 1+1e-12))
	assert.Error(t, assertNear(a, "t", 1+1e-6))
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "tank_level", Subject: "rp1", Expected: "1 (±1e-09)", Actual: "0.5"}
	assert.Equal(t, "Assertion failed: tank_level (rp1)\n  Expected: 1 (±1e-09)\n  Actual: 0.5", err.Error())

	err = &AssertionError{Type: "fault_count", Expected: "1 faults", Actual: "0 faults"}
	assert.Equal(t, "Assertion failed: fault_count\n  Expected: 1 faults\n  Actual: 0 faults", err.Error())
}

func TestResult_Faults(t *testing.T) {
	r := NewResult()
	r.Trace = []TraceStep{
		{Faults: []FaultEvent{{Seq: 1}}},
		{},
		{Faults: []FaultEvent{{Seq: 2}, {Seq: 3}}},
	}

	faults := r.Faults()
	assert.Len(t, faults, 3)
	assert.Equal(t, int64(3), faults[2].Seq)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
