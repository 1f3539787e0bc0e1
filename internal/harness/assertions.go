package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivolynets/spacesim/internal/vehicle"
)

// defaultTolerance applies when an assertion gives none.
const defaultTolerance = 1e-9

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Subject  string // engine or tank the assertion is about
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Subject != "" {
		fmt.Fprintf(&buf, " (%s)", e.Subject)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against the final vehicle state
// and the faults recorded in result. It returns one message per failure.
func EvaluateAssertions(result *Result, v *vehicle.Vehicle, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, v, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, v *vehicle.Vehicle, a Assertion) error {
	switch a.Type {
	case AssertThrustLevel, AssertCombustion:
		e, ok := v.Engine(a.Engine)
		if !ok {
			return fmt.Errorf("unknown engine %q", a.Engine)
		}
		got := e.ThrustLevel()
		if a.Type == AssertCombustion {
			got = e.ChamberCombustion()
			if a.Stage == StagePreburner {
				got = e.PreburnerCombustion()
			}
		}
		return assertNear(a, a.Engine, got)

	case AssertTankLevel, AssertTankFraction:
		t, ok := v.Tank(a.Tank)
		if !ok {
			return fmt.Errorf("unknown tank %q", a.Tank)
		}
		got := t.Level()
		if a.Type == AssertTankFraction {
			got = t.Fraction()
		}
		return assertNear(a, a.Tank, got)

	case AssertFaultCount:
		return assertFaultCount(result.Faults(), a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertNear checks |got - expect| <= tolerance.
func assertNear(a Assertion, subject string, got float64) error {
	tol := a.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	if math.Abs(got-a.Expect) <= tol {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Subject:  subject,
		Expected: fmt.Sprintf("%g (±%g)", a.Expect, tol),
		Actual:   fmt.Sprintf("%g", got),
	}
}

// assertFaultCount counts faults, optionally filtered by engine and code.
func assertFaultCount(faults []FaultEvent, a Assertion) error {
	count := 0
	for _, f := range faults {
		if a.Engine != "" && f.Temporal != a.Engine {
			continue
		}
		if a.Code != "" && f.Code != a.Code {
			continue
		}
		count++
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertFaultCount,
			Subject:  strings.TrimSpace(a.Engine + " " + a.Code),
			Expected: fmt.Sprintf("%d faults", a.Count),
			Actual:   fmt.Sprintf("%d faults", count),
		}
	}
	return nil
}
