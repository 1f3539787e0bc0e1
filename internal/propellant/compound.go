package propellant

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCompound is returned when a compound is constructed with a
// non-positive or non-finite density, an empty name, or an unknown kind.
var ErrInvalidCompound = errors.New("invalid compound")

// Kind tags a compound as fuel or oxidizer.
type Kind int

const (
	// KindUnknown is the zero value and never valid on a constructed compound.
	KindUnknown Kind = iota
	Fuel
	Oxidizer
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Fuel:
		return "fuel"
	case Oxidizer:
		return "oxidizer"
	default:
		return "unknown"
	}
}

// ParseKind converts "fuel" or "oxidizer" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch normalize(s) {
	case "fuel":
		return Fuel, nil
	case "oxidizer":
		return Oxidizer, nil
	default:
		return KindUnknown, fmt.Errorf("%w: unknown kind %q", ErrInvalidCompound, s)
	}
}

// Compound is a propellant's physical constants.
//
// The struct is a value type with unexported fields; copies are safe to share
// and nothing can mutate a compound after construction.
type Compound struct {
	name          string
	kind          Kind
	density       float64 // kg/mL
	meltingPointC float64
	boilingPointC float64
}

// NewCompound validates and returns a compound.
// meltingPointC and boilingPointC may be NaN when unknown.
func NewCompound(name string, kind Kind, density, meltingPointC, boilingPointC float64) (Compound, error) {
	if name == "" {
		return Compound{}, fmt.Errorf("%w: name is required", ErrInvalidCompound)
	}
	if kind != Fuel && kind != Oxidizer {
		return Compound{}, fmt.Errorf("%w: %s has no fuel/oxidizer kind", ErrInvalidCompound, name)
	}
	if !(density > 0) || math.IsInf(density, 0) {
		return Compound{}, fmt.Errorf("%w: %s density must be positive and finite, got %v", ErrInvalidCompound, name, density)
	}
	return Compound{
		name:          name,
		kind:          kind,
		density:       density,
		meltingPointC: meltingPointC,
		boilingPointC: boilingPointC,
	}, nil
}

// mustCompound is used for the static catalog only.
func mustCompound(name string, kind Kind, density, meltingPointC, boilingPointC float64) Compound {
	c, err := NewCompound(name, kind, density, meltingPointC, boilingPointC)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Compound) Name() string           { return c.name }
func (c Compound) Kind() Kind             { return c.kind }
func (c Compound) Density() float64       { return c.density }
func (c Compound) MeltingPointC() float64 { return c.meltingPointC }
func (c Compound) BoilingPointC() float64 { return c.boilingPointC }

// IsFuel reports whether the compound is tagged Fuel.
func (c Compound) IsFuel() bool { return c.kind == Fuel }

// IsOxidizer reports whether the compound is tagged Oxidizer.
func (c Compound) IsOxidizer() bool { return c.kind == Oxidizer }

// Valid reports whether c was produced by NewCompound (the zero value is not).
func (c Compound) Valid() bool {
	return c.name != "" && c.density > 0 && (c.kind == Fuel || c.kind == Oxidizer)
}

// Mass converts a volume in mL to kg.
func (c Compound) Mass(volumeML float64) float64 {
	return volumeML * c.density
}

// Volume converts a mass in kg to mL.
func (c Compound) Volume(massKg float64) float64 {
	return massKg / c.density
}

func (c Compound) String() string {
	return fmt.Sprintf("%s (%s)", c.name, c.kind)
}
