// Package vehicle loads declarative vehicle definitions and builds the
// tanks, engines and clock they describe.
//
// A definition is CUE:
//
//	name: "twin"
//	clock: rate: 24
//	tanks: {
//		rp1: {compound: "RP-1", capacity_kg: 5000, full: true}
//		lox: {compound: "liquid oxygen", capacity_kg: 12000, full: true}
//	}
//	engines: {
//		left: {
//			thrust_n: 1.9e6, fuel_flow_kg_s: 180, oxidizer_flow_kg_s: 440
//			fuel_tank: "rp1", oxidizer_tank: "lox"
//			preburner_ignition: true, chamber_ignition: true
//		}
//	}
//
// The source is unified with an embedded schema, so misspelled fields and
// out-of-range values fail with a CUE position. Declaration order is kept:
// engines are registered with the clock in the order they are written, which
// decides who drains a shared tank first.
package vehicle

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// TankDef declares one tank. Exactly one of CapacityML or CapacityKg is set.
type TankDef struct {
	Name       string   `json:"-"`
	Compound   string   `json:"compound"`
	CapacityML *float64 `json:"capacity_ml,omitempty"`
	CapacityKg *float64 `json:"capacity_kg,omitempty"`
	Full       bool     `json:"full"`
	FillKg     *float64 `json:"fill_kg,omitempty"`
}

// EngineDef declares one engine. Empty tank names leave the port
// unconnected; ticking such an engine faults.
type EngineDef struct {
	Name              string  `json:"-"`
	ThrustN           float64 `json:"thrust_n"`
	FuelFlowKgS       float64 `json:"fuel_flow_kg_s"`
	OxidizerFlowKgS   float64 `json:"oxidizer_flow_kg_s"`
	FuelTank          string  `json:"fuel_tank,omitempty"`
	OxidizerTank      string  `json:"oxidizer_tank,omitempty"`
	Throttle          float64 `json:"throttle"`
	PreburnerIgnition bool    `json:"preburner_ignition"`
	ChamberIgnition   bool    `json:"chamber_ignition"`
}

// Definition is a parsed, schema-checked vehicle.
type Definition struct {
	Name    string
	Rate    float64
	Tanks   []TankDef   // declaration order
	Engines []EngineDef // declaration order
}

// DefinitionError reports an invalid definition.
type DefinitionError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *DefinitionError) Error() string {
	var prefix string
	if e.Pos.IsValid() {
		prefix = fmt.Sprintf("%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if e.Field != "" {
		return fmt.Sprintf("%s%s: %s", prefix, e.Field, e.Message)
	}
	return prefix + e.Message
}

// Parse reads a definition from CUE source text.
func Parse(src string) (*Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("vehicle.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decode(ctx, v)
}

// Load reads a definition from a .cue file or a directory of them.
func Load(path string) (*Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("vehicle definition: %w", err)
	}

	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("vehicle definition: %w", err)
		}
		ctx := cuecontext.New()
		v := ctx.CompileBytes(src, cue.Filename(filepath.Base(path)))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		return decode(ctx, v)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, &DefinitionError{Message: fmt.Sprintf("no CUE instances in %s", path)}
	}
	if err := instances[0].Err; err != nil {
		return nil, formatCUEError(err)
	}
	ctx := cuecontext.New()
	v := ctx.BuildInstance(instances[0])
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decode(ctx, v)
}

func decode(ctx *cue.Context, v cue.Value) (*Definition, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("vehicle schema: %w", err)
	}

	v = schema.LookupPath(cue.ParsePath("#Vehicle")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	def := &Definition{}
	if err := v.LookupPath(cue.ParsePath("name")).Decode(&def.Name); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.LookupPath(cue.ParsePath("clock.rate")).Decode(&def.Rate); err != nil {
		return nil, formatCUEError(err)
	}

	tanks, err := v.LookupPath(cue.ParsePath("tanks")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for tanks.Next() {
		var td TankDef
		if err := tanks.Value().Decode(&td); err != nil {
			return nil, formatCUEError(err)
		}
		td.Name = tanks.Label()
		if (td.CapacityML == nil) == (td.CapacityKg == nil) {
			return nil, &DefinitionError{
				Field:   "tanks." + td.Name,
				Message: "exactly one of capacity_ml or capacity_kg is required",
				Pos:     tanks.Value().Pos(),
			}
		}
		if td.Full && td.FillKg != nil {
			return nil, &DefinitionError{
				Field:   "tanks." + td.Name,
				Message: "full and fill_kg are mutually exclusive",
				Pos:     tanks.Value().Pos(),
			}
		}
		def.Tanks = append(def.Tanks, td)
	}

	engines, err := v.LookupPath(cue.ParsePath("engines")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for engines.Next() {
		var ed EngineDef
		if err := engines.Value().Decode(&ed); err != nil {
			return nil, formatCUEError(err)
		}
		ed.Name = engines.Label()
		def.Engines = append(def.Engines, ed)
	}

	return def, nil
}

// formatCUEError converts a CUE error into a DefinitionError carrying the
// position of the first reported problem.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &DefinitionError{Message: err.Error()}
	}

	first := errs[0]
	de := &DefinitionError{Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		de.Pos = positions[0]
	}
	if len(errs) > 1 {
		de.Message = fmt.Sprintf("%s (and %d more errors)", de.Message, len(errs)-1)
	}
	return de
}
