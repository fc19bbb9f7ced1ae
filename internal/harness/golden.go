package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/streaks/internal/snapshot"
)

// GoldenDir is the fixture directory used by RunWithGolden and AssertGolden.
const GoldenDir = "testdata/scenarios/golden"

// GoldenBytes returns the canonical JSON recorded in a scenario's golden
// file: the scenario name, the final period and the ranked rows.
func GoldenBytes(scenarioName string, result *Result) ([]byte, error) {
	rows := make([]any, len(result.Rows))
	for i, r := range result.Rows {
		rows[i] = map[string]any{
			"item":   string(r.Item),
			"start":  r.Start,
			"length": r.Length,
			"status": string(r.Status),
		}
	}
	return snapshot.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"period":        result.Period,
		"rows":          rows,
	})
}

// RunWithGolden executes a scenario and compares its rows against
// GoldenDir/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
