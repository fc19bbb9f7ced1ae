package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/streaks/internal/streak"
)

// Scenario defines a streak scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Expect is the exact ranked table after the last step. Nil skips the
	// comparison.
	Expect []ExpectRow `yaml:"expect,omitempty"`

	// Assertions are evaluated against the final result.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one Compute call.
type Step struct {
	// Periods are the sets to process. Integer items are read as strings.
	Periods [][]string `yaml:"periods"`

	// StartPeriod is the period of the first set, 0 to continue.
	StartPeriod int `yaml:"start_period,omitempty"`

	ExcludeBroken bool `yaml:"exclude_broken,omitempty"`

	// Resume starts from the state of the last successful step.
	Resume bool `yaml:"resume,omitempty"`

	// ExpectError is the validation error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// ExpectRow is one expected row of the final table.
type ExpectRow struct {
	Item   string `yaml:"item"`
	Start  int    `yaml:"start"`
	Length int    `yaml:"length"`
	Status string `yaml:"status"`
}

// Assertion validates the final result.
type Assertion struct {
	// Type is one of row_contains, row_order, row_count, period.
	Type string `yaml:"type"`

	// Item, Start, Length and Status select rows. Zero values match any
	// (used by row_contains; Status also by row_count).
	Item   string `yaml:"item,omitempty"`
	Start  int    `yaml:"start,omitempty"`
	Length int    `yaml:"length,omitempty"`
	Status string `yaml:"status,omitempty"`

	// Items is the expected order (used by row_order).
	Items []string `yaml:"items,omitempty"`

	// Count is the expected number of rows (used by row_count).
	Count int `yaml:"count,omitempty"`

	// Period is the expected final period (used by period).
	Period int `yaml:"period,omitempty"`
}

// Assertion type constants.
const (
	AssertRowContains = "row_contains"
	AssertRowOrder    = "row_order"
	AssertRowCount    = "row_count"
	AssertPeriod      = "period"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Steps[0].Resume {
		return fmt.Errorf("steps[0]: resume has no prior step")
	}

	for i, step := range s.Steps {
		switch streak.ValidationErrorCode(step.ExpectError) {
		case "", streak.ErrCodeStartPeriodInvalid, streak.ErrCodeStartPeriodMismatch:
		default:
			return fmt.Errorf("steps[%d]: unknown expect_error %q", i, step.ExpectError)
		}
	}

	for i, row := range s.Expect {
		if row.Item == "" {
			return fmt.Errorf("expect[%d]: item is required", i)
		}
		if !validStatus(row.Status) {
			return fmt.Errorf("expect[%d]: unknown status %q", i, row.Status)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
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
	if a.Status != "" && !validStatus(a.Status) {
		return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
	}

	switch a.Type {
	case AssertRowContains:
		if a.Item == "" {
			return fmt.Errorf("assertions[%d]: item is required for row_contains", index)
		}
	case AssertRowOrder:
		if len(a.Items) == 0 {
			return fmt.Errorf("assertions[%d]: items list is required for row_order", index)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertPeriod:
		if a.Period < 0 {
			return fmt.Errorf("assertions[%d]: period must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validStatus(s string) bool {
	switch streak.Status(s) {
	case streak.StatusOngoing, streak.StatusMightBreak, streak.StatusBroken:
		return true
	}
	return false
}
