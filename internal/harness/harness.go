package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/streaks/internal/snapshot"
	"github.com/roach88/streaks/internal/store"
	"github.com/roach88/streaks/internal/streak"
)

// Harness executes the steps of one scenario.
type Harness struct {
	store  *store.Store
	name   string
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with run
// IDs derived from the scenario name so reruns are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Execute steps, saving each successful state
// 3. Compare the final table against expect
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ids := make([]string, len(scenario.Steps))
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%d", scenario.Name, i+1)
	}

	st, err := store.Open(":memory:", store.WithRunIDGenerator(store.NewFixedGenerator(ids...)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		name:   scenario.Name,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	if scenario.Expect != nil {
		for _, msg := range compareRows(result.Rows, scenario.Expect) {
			result.AddError(msg)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one Compute call and records its outcome.
// Validation failures are recorded on the result; other errors abort.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	var prior *streak.State
	if step.Resume {
		var err error
		prior, err = h.resume(ctx)
		if err != nil {
			return err
		}
	}

	res, err := streak.Compute(toSets(step.Periods), streak.Options{
		Prior:         prior,
		StartPeriod:   step.StartPeriod,
		ExcludeBroken: step.ExcludeBroken,
	})

	sr := StepResult{Index: index}
	if err != nil {
		var verr *streak.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		sr.Error = string(verr.Code)
		result.Steps = append(result.Steps, sr)

		switch step.ExpectError {
		case "":
			result.AddError(fmt.Sprintf("steps[%d]: unexpected error: %v", index, err))
		case sr.Error:
			h.logger.Debug("step failed as expected", "step", index, "code", sr.Error)
		default:
			result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got %s", index, step.ExpectError, sr.Error))
		}
		return nil
	}

	if step.ExpectError != "" {
		result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got none", index, step.ExpectError))
	}

	run, err := h.store.SaveState(ctx, h.name, res.State, store.RunParams{
		StartPeriod: step.StartPeriod,
		PeriodCount: len(step.Periods),
		Period:      res.Period,
	})
	if err != nil {
		return err
	}
	h.logger.Debug("step executed", "step", index, "run", run.ID, "period", res.Period)

	sr.Period = res.Period
	sr.Streaks = res.State.Len()
	result.Steps = append(result.Steps, sr)
	result.Period = res.Period
	result.Rows = res.Rows
	return nil
}

// resume loads the last saved state and passes it through the snapshot
// codec. Returns nil if no step has succeeded yet.
func (h *Harness) resume(ctx context.Context) (*streak.State, error) {
	saved, err := h.store.LoadState(ctx, h.name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	blob, err := snapshot.Encode(saved)
	if err != nil {
		return nil, err
	}
	return snapshot.Decode(blob)
}

func toSets(periods [][]string) [][]streak.Item {
	sets := make([][]streak.Item, len(periods))
	for i, p := range periods {
		set := make([]streak.Item, len(p))
		for j, item := range p {
			set[j] = streak.Item(item)
		}
		sets[i] = set
	}
	return sets
}
