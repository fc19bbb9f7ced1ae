package harness

import "github.com/roach88/streaks/internal/streak"

// StepResult records the outcome of one scenario step.
type StepResult struct {
	Index   int    `json:"index"`
	Period  int    `json:"period"`
	Streaks int    `json:"streaks"`
	Error   string `json:"error,omitempty"` // validation error code
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Period is the last period processed by the last successful step.
	Period int `json:"period"`

	// Rows is the ranked table after the last successful step.
	Rows []streak.Row `json:"rows"`

	// Steps has one entry per executed step.
	Steps []StepResult `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Rows:   []streak.Row{},
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
