package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rowlock/internal/store"
	"github.com/roach88/rowlock/internal/workitem"
)

// Scenario defines one sequence of updates and what must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Preflight toggles the store's stale-stamp pre-check. Defaults to true.
	Preflight *bool `yaml:"preflight,omitempty"`

	// InjectedAssignee overrides the name the conflict injector writes.
	InjectedAssignee string `yaml:"injected_assignee,omitempty"`

	// Seed lists the records to create. Empty means store.DefaultSeed().
	Seed []store.SeedItem `yaml:"seed,omitempty"`

	// Flow is executed in order, one update per step.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one update call.
type Step struct {
	Strategy      string        `yaml:"strategy"`
	ID            int64         `yaml:"id"`
	Assign        string        `yaml:"assign"`
	ForceConflict bool          `yaml:"force_conflict,omitempty"`
	Expect        *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected result of a step.
type ExpectClause struct {
	// Outcome is Success, NotFound, Conflict or Failure.
	Outcome string `yaml:"outcome"`

	// Code optionally pins the error code of a non-Success outcome.
	Code string `yaml:"code,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Strategy and ID select the record (final_state) or event (trace_contains).
	Strategy string `yaml:"strategy,omitempty"`
	ID       int64  `yaml:"id,omitempty"`

	// Outcome is matched by trace_contains and counted by trace_count.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Outcomes is the expected outcome order (used by trace_order).
	Outcomes []string `yaml:"outcomes,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// final_state fields.
const (
	FieldAssignedTo        = "assigned_to"
	FieldVersion           = "version"
	FieldRowVersionChanged = "row_version_changed"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML, rejecting unknown fields.
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

// preflight returns the effective preflight setting.
func (s *Scenario) preflight() bool {
	return s.Preflight == nil || *s.Preflight
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, item := range s.Seed {
		if item.ID <= 0 {
			return fmt.Errorf("seed[%d]: id must be positive", i)
		}
		if item.AssignedTo == "" {
			return fmt.Errorf("seed[%d]: assigned_to is required", i)
		}
	}

	for i, step := range s.Flow {
		if _, err := workitem.ParseStrategy(step.Strategy); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.ID == 0 {
			return fmt.Errorf("flow[%d]: id is required", i)
		}
		if step.Expect != nil {
			if _, err := workitem.ParseOutcome(step.Expect.Outcome); err != nil {
				return fmt.Errorf("flow[%d].expect: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
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
	case AssertTraceContains:
		if _, err := workitem.ParseOutcome(a.Outcome); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertTraceOrder:
		if len(a.Outcomes) == 0 {
			return fmt.Errorf("assertions[%d]: outcomes list is required for trace_order", index)
		}
		for _, o := range a.Outcomes {
			if _, err := workitem.ParseOutcome(o); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertTraceCount:
		if _, err := workitem.ParseOutcome(a.Outcome); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if _, err := workitem.ParseStrategy(a.Strategy); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.ID == 0 {
			return fmt.Errorf("assertions[%d]: id is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
		for key := range a.Expect {
			switch key {
			case FieldAssignedTo, FieldVersion, FieldRowVersionChanged:
			default:
				return fmt.Errorf("assertions[%d]: unknown final_state field %q", index, key)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
