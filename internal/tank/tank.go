// Package tank models a depletable propellant reservoir.
//
// A Tank holds one compound up to a fixed volume capacity. Every fill and
// drain clamps the request against the remaining headroom (for fills) or the
// current level (for drains) and returns the amount actually moved. Callers
// compare the returned amount with the requested one to detect shortfall;
// no transfer ever fails.
//
// INVARIANT: 0 <= Level() <= MassCapacity() after every call.
//
// Tanks are not safe for concurrent use. The clock runs every tick on one
// goroutine, so engines sharing a tank drain it one after another.
package tank

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivolynets/spacesim/internal/propellant"
)

var (
	// ErrInvalidCompound is returned when a tank is created with the zero Compound.
	ErrInvalidCompound = errors.New("tank compound is not set")

	// ErrInvalidCapacity is returned for a non-positive or non-finite capacity.
	ErrInvalidCapacity = errors.New("tank capacity must be positive and finite")
)

// Tank is a reservoir of a single compound. Level is stored as mass (kg).
type Tank struct {
	name             string
	compound         propellant.Compound
	volumeCapacityML float64
	massCapacity     float64
	level            float64
}

// Option configures a Tank at construction.
type Option func(*Tank)

// WithName labels the tank for logs, telemetry and snapshots.
func WithName(name string) Option {
	return func(t *Tank) {
		t.name = name
	}
}

// New creates an empty tank of the given compound and volume capacity (mL).
func New(c propellant.Compound, volumeCapacityML float64, opts ...Option) (*Tank, error) {
	if !c.Valid() {
		return nil, ErrInvalidCompound
	}
	if !(volumeCapacityML > 0) || math.IsInf(volumeCapacityML, 0) {
		return nil, fmt.Errorf("%w: got %v mL", ErrInvalidCapacity, volumeCapacityML)
	}

	t := &Tank{
		name:             c.Name(),
		compound:         c,
		volumeCapacityML: volumeCapacityML,
		massCapacity:     c.Mass(volumeCapacityML),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the tank label. It defaults to the compound name.
func (t *Tank) Name() string { return t.name }

// Compound returns what the tank holds.
func (t *Tank) Compound() propellant.Compound { return t.compound }

// VolumeCapacity returns the capacity in mL.
func (t *Tank) VolumeCapacity() float64 { return t.volumeCapacityML }

// MassCapacity returns the capacity in kg.
func (t *Tank) MassCapacity() float64 { return t.massCapacity }

// Level returns the current contents in kg.
func (t *Tank) Level() float64 { return t.level }

// VolumeLevel returns the current contents in mL.
func (t *Tank) VolumeLevel() float64 { return t.compound.Volume(t.level) }

// Fraction returns Level/MassCapacity in [0,1].
func (t *Tank) Fraction() float64 { return t.level / t.massCapacity }

// Empty reports whether the tank holds no propellant.
func (t *Tank) Empty() bool { return t.level <= 0 }

// FillMass adds up to m kg and returns the mass actually added.
func (t *Tank) FillMass(m float64) float64 {
	added := math.Min(sanitize(m), t.massCapacity-t.level)
	if added <= 0 {
		return 0
	}
	t.level += added
	if t.level > t.massCapacity {
		t.level = t.massCapacity
	}
	return added
}

// DrainMass removes up to m kg and returns the mass actually removed.
func (t *Tank) DrainMass(m float64) float64 {
	removed := math.Min(sanitize(m), t.level)
	if removed <= 0 {
		return 0
	}
	t.level -= removed
	if t.level < 0 {
		t.level = 0
	}
	return removed
}

// FillVolume adds up to v mL and returns the volume actually added.
func (t *Tank) FillVolume(v float64) float64 {
	return t.compound.Volume(t.FillMass(t.compound.Mass(sanitize(v))))
}

// DrainVolume removes up to v mL and returns the volume actually removed.
func (t *Tank) DrainVolume(v float64) float64 {
	return t.compound.Volume(t.DrainMass(t.compound.Mass(sanitize(v))))
}

// FillToCapacity tops the tank up and returns the mass added.
func (t *Tank) FillToCapacity() float64 {
	return t.FillMass(t.massCapacity)
}

// Snapshot is a read-only copy of a tank's observable state.
type Snapshot struct {
	Name         string  `json:"name"`
	Compound     string  `json:"compound"`
	Level        float64 `json:"level_kg"`
	MassCapacity float64 `json:"mass_capacity_kg"`
	Fraction     float64 `json:"fraction"`
}

// Snapshot captures the current state.
func (t *Tank) Snapshot() Snapshot {
	return Snapshot{
		Name:         t.name,
		Compound:     t.compound.Name(),
		Level:        t.level,
		MassCapacity: t.massCapacity,
		Fraction:     t.Fraction(),
	}
}

// sanitize maps negative and NaN requests to zero.
func sanitize(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	return x
}
