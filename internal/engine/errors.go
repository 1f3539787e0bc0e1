package engine

import (
	"errors"
	"fmt"

	"github.com/ivolynets/spacesim/internal/propellant"
)

// Contract violations. These indicate a configuration or programming defect
// and are returned from the offending call unchanged.
var (
	ErrInvalidNominal   = errors.New("nominal engine constants must be positive and finite")
	ErrInvalidThrottle  = errors.New("throttle must be within [0,1]")
	ErrInvalidElapsed   = errors.New("elapsed time must be finite and non-negative")
	ErrNilTank          = errors.New("tank is nil")
	ErrCompoundMismatch = errors.New("tank compound does not match port")
)

// Fault is an operational failure raised during Tick.
//
// A Fault leaves the engine's combustion state untouched. The clock logs it
// and ticks the engine again next firing, so a persistent fault repeats
// until the configuration is fixed.
type Fault struct {
	// Code identifies the fault category.
	Code FaultCode

	// Engine is the name of the engine that failed.
	Engine string

	// Message is a human-readable description.
	Message string
}

// FaultCode categorizes faults.
type FaultCode string

const (
	// CodeNoFuelTank indicates the fuel port has no tank.
	CodeNoFuelTank FaultCode = "NO_FUEL_TANK"

	// CodeNoOxidizerTank indicates the oxidizer port has no tank.
	CodeNoOxidizerTank FaultCode = "NO_OXIDIZER_TANK"

	// CodeOutOfFuel is reserved. Drains clamp instead, and starvation only
	// lowers the combustion level.
	CodeOutOfFuel FaultCode = "OUT_OF_FUEL"

	// CodeOutOfOxidizer is reserved, see CodeOutOfFuel.
	CodeOutOfOxidizer FaultCode = "OUT_OF_OXIDIZER"
)

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Engine != "" {
		return fmt.Sprintf("%s: %s (engine=%s)", f.Code, f.Message, f.Engine)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// NewNoTankFault creates the fault for an empty tank port of the given kind.
func NewNoTankFault(engine string, kind propellant.Kind) *Fault {
	code := CodeNoFuelTank
	if kind == propellant.Oxidizer {
		code = CodeNoOxidizerTank
	}
	return &Fault{
		Code:    code,
		Engine:  engine,
		Message: fmt.Sprintf("no %s tank connected", kind),
	}
}

// FaultCodeOf extracts the code of a wrapped *Fault.
func FaultCodeOf(err error) (FaultCode, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Code, true
	}
	return "", false
}

// IsNoTankFault returns true for either "no tank connected" fault.
// Uses errors.As to handle wrapped errors.
func IsNoTankFault(err error) bool {
	code, ok := FaultCodeOf(err)
	return ok && (code == CodeNoFuelTank || code == CodeNoOxidizerTank)
}
