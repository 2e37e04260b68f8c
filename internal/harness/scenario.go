package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the path to a CUE model file or package directory.
	// Relative paths are resolved against the scenario file.
	Model string `yaml:"model"`

	// ModelName selects one model when Model defines several.
	ModelName string `yaml:"model_name,omitempty"`

	// Seed overrides the model seed. Zero keeps the model's.
	Seed int64 `yaml:"seed,omitempty"`

	// Draws scripts the head of the random stream.
	Draws *Draws `yaml:"draws,omitempty"`

	// Initial overrides the model's initial node states.
	Initial []int `yaml:"initial,omitempty"`

	// Checkpoints are the horizons the engine is run to, in order.
	Checkpoints []Checkpoint `yaml:"checkpoints"`

	// Assertions validate the final trajectory.
	Assertions []Assertion `yaml:"assertions"`
}

// Draws lists scripted exponential and uniform draws.
type Draws struct {
	Exp     []float64 `yaml:"exp,omitempty"`
	Uniform []float64 `yaml:"uniform,omitempty"`
}

// Checkpoint is one run horizon with optional expected node states.
type Checkpoint struct {
	Until      float64 `yaml:"until"`
	NodeStates []int   `yaml:"node_states,omitempty"`
}

// Assertion validates the trajectory.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_state": node states after the last checkpoint equal NodeStates
	// - "state_count": exactly Count nodes are in State at the end
	// - "time_bounded": no checkpoint time exceeds its horizon or MaxTime
	// - "deterministic": a second run yields the identical trajectory
	// - "property_conserved": the property sum never drifts beyond Tolerance
	// - "min_applied": at least Count transitions were applied
	Type string `yaml:"type"`

	// NodeStates are the expected node states (final_state).
	NodeStates []int `yaml:"node_states,omitempty"`

	// State is a state name (state_count).
	State string `yaml:"state,omitempty"`

	// Count is the expected node count (state_count) or the minimum number
	// of applied transitions (min_applied).
	Count int `yaml:"count,omitempty"`

	// MaxTime optionally caps simulated time (time_bounded).
	MaxTime float64 `yaml:"max_time,omitempty"`

	// Tolerance is the allowed drift of the property sum
	// (property_conserved). Zero means 1e-9.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState        = "final_state"
	AssertStateCount        = "state_count"
	AssertTimeBounded       = "time_bounded"
	AssertDeterministic     = "deterministic"
	AssertPropertyConserved = "property_conserved"
	AssertMinApplied        = "min_applied"
)

// LoadScenario reads and parses a scenario YAML file. The model path is
// resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Reject unknown fields so typos like "assertion:" fail loudly.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, in name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if _, err := os.Stat(s.Model); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", s.Model)
	}

	if len(s.Checkpoints) == 0 {
		return fmt.Errorf("checkpoints list is required and must be non-empty")
	}
	prev := 0.0
	for i, cp := range s.Checkpoints {
		if cp.Until <= prev {
			return fmt.Errorf("checkpoints[%d]: until must increase (got %g after %g)", i, cp.Until, prev)
		}
		prev = cp.Until
	}

	if s.Draws != nil {
		for i, u := range s.Draws.Uniform {
			if u < 0 || u >= 1 {
				return fmt.Errorf("draws.uniform[%d]: %g outside [0,1)", i, u)
			}
		}
		for i, x := range s.Draws.Exp {
			if x <= 0 {
				return fmt.Errorf("draws.exp[%d]: %g must be positive", i, x)
			}
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalState:
		if len(a.NodeStates) == 0 {
			return fmt.Errorf("assertions[%d]: node_states is required for final_state", index)
		}
	case AssertStateCount:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for state_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for state_count", index)
		}
	case AssertMinApplied:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for min_applied", index)
		}
	case AssertPropertyConserved:
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
	case AssertTimeBounded, AssertDeterministic:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
