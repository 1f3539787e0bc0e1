package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines one simulation test.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Vehicle is inline CUE source, or a path to a .cue file or directory
	// when it is a single line. Relative paths resolve against the
	// scenario file's directory.
	Vehicle string `yaml:"vehicle"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the state after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is exactly one action. Fire runs n deterministic clock firings;
// the others act on a named engine or tank between firings.
type Step struct {
	Fire     int           `yaml:"fire,omitempty"`
	Set      *SetStep      `yaml:"set,omitempty"`
	Fill     *TransferStep `yaml:"fill,omitempty"`
	Drain    *TransferStep `yaml:"drain,omitempty"`
	Shutdown string        `yaml:"shutdown,omitempty"`
}

// SetStep changes engine controls. Nil fields are left alone.
type SetStep struct {
	Engine            string   `yaml:"engine"`
	Throttle          *float64 `yaml:"throttle,omitempty"`
	PreburnerIgnition *bool    `yaml:"preburner_ignition,omitempty"`
	ChamberIgnition   *bool    `yaml:"chamber_ignition,omitempty"`
}

// TransferStep moves propellant mass into or out of a tank.
type TransferStep struct {
	Tank string  `yaml:"tank"`
	Kg   float64 `yaml:"kg"`
}

// Step kinds, as reported in the trace.
const (
	StepFire     = "fire"
	StepSet      = "set"
	StepFill     = "fill"
	StepDrain    = "drain"
	StepShutdown = "shutdown"
)

// Kind returns which action the step holds, or "" if it holds none or more
// than one.
func (s Step) Kind() string {
	var kinds []string
	if s.Fire != 0 {
		kinds = append(kinds, StepFire)
	}
	if s.Set != nil {
		kinds = append(kinds, StepSet)
	}
	if s.Fill != nil {
		kinds = append(kinds, StepFill)
	}
	if s.Drain != nil {
		kinds = append(kinds, StepDrain)
	}
	if s.Shutdown != "" {
		kinds = append(kinds, StepShutdown)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// Assertion checks one value of the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "thrust_level": engine thrust level in [0,1]
	// - "combustion": one stage's combustion level (stage: preburner|chamber)
	// - "tank_level": tank level in kg
	// - "tank_fraction": tank level over mass capacity
	// - "fault_count": faults caught over the whole run
	Type string `yaml:"type"`

	Engine string `yaml:"engine,omitempty"`
	Tank   string `yaml:"tank,omitempty"`
	Stage  string `yaml:"stage,omitempty"`

	// Code filters fault_count by fault code (e.g. NO_FUEL_TANK).
	Code string `yaml:"code,omitempty"`

	// Expect is the expected value. Count is used by fault_count.
	Expect    float64 `yaml:"expect,omitempty"`
	Count     int     `yaml:"count,omitempty"`
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertThrustLevel  = "thrust_level"
	AssertCombustion   = "combustion"
	AssertTankLevel    = "tank_level"
	AssertTankFraction = "tank_fraction"
	AssertFaultCount   = "fault_count"
)

// Combustion stages.
const (
	StagePreburner = "preburner"
	StageChamber   = "chamber"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A vehicle path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if isVehiclePath(s.Vehicle) && !filepath.IsAbs(s.Vehicle) {
		s.Vehicle = filepath.Join(filepath.Dir(path), s.Vehicle)
	}
	return s, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// isVehiclePath reports whether the vehicle field names a file rather than
// holding CUE source.
func isVehiclePath(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && !strings.Contains(v, "\n")
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(s.Vehicle) == "" {
		return fmt.Errorf("vehicle is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	switch s.Kind() {
	case StepFire:
		if s.Fire < 0 {
			return fmt.Errorf("steps[%d]: fire must be positive", index)
		}
	case StepSet:
		if s.Set.Engine == "" {
			return fmt.Errorf("steps[%d]: set.engine is required", index)
		}
	case StepFill, StepDrain:
		t := s.Fill
		if t == nil {
			t = s.Drain
		}
		if t.Tank == "" {
			return fmt.Errorf("steps[%d]: %s.tank is required", index, s.Kind())
		}
	case StepShutdown:
	default:
		return fmt.Errorf("steps[%d]: exactly one of fire, set, fill, drain, shutdown is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
	}

	switch a.Type {
	case AssertThrustLevel:
		if a.Engine == "" {
			return fmt.Errorf("assertions[%d]: engine is required for thrust_level", index)
		}
	case AssertCombustion:
		if a.Engine == "" {
			return fmt.Errorf("assertions[%d]: engine is required for combustion", index)
		}
		if a.Stage != StagePreburner && a.Stage != StageChamber {
			return fmt.Errorf("assertions[%d]: stage must be preburner or chamber, got %q", index, a.Stage)
		}
	case AssertTankLevel, AssertTankFraction:
		if a.Tank == "" {
			return fmt.Errorf("assertions[%d]: tank is required for %s", index, a.Type)
		}
	case AssertFaultCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for fault_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
