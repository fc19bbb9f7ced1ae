package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/streaks/internal/streak"
)

// AssertionError is returned when an assertion fails.
// It includes the final table to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Rows     []streak.Row
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nRows:\n")
	for i, r := range e.Rows {
		fmt.Fprintf(&buf, "  [%d] %s start=%d length=%d %s\n", i+1, r.Item, r.Start, r.Length, r.Status)
	}

	return buf.String()
}

// matchRow reports whether r matches every non-zero selector of a.
func matchRow(r streak.Row, a Assertion) bool {
	if a.Item != "" && string(r.Item) != a.Item {
		return false
	}
	if a.Start != 0 && r.Start != a.Start {
		return false
	}
	if a.Length != 0 && r.Length != a.Length {
		return false
	}
	if a.Status != "" && string(r.Status) != a.Status {
		return false
	}
	return true
}

func assertRowContains(rows []streak.Row, a Assertion) error {
	for _, r := range rows {
		if matchRow(r, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRowContains,
		Expected: describeSelector(a),
		Actual:   "not found in rows",
		Rows:     rows,
	}
}

// assertRowOrder checks that the first row of each listed item appears in
// the listed order. Other rows may appear in between.
func assertRowOrder(rows []streak.Row, a Assertion) error {
	positions := make(map[string]int)
	for i, r := range rows {
		if _, seen := positions[string(r.Item)]; !seen {
			positions[string(r.Item)] = i + 1
		}
	}

	for _, item := range a.Items {
		if positions[item] == 0 {
			return &AssertionError{
				Type:     AssertRowOrder,
				Expected: fmt.Sprintf("all items present: %v", a.Items),
				Actual:   fmt.Sprintf("missing item: %s", item),
				Rows:     rows,
			}
		}
	}

	for i := 1; i < len(a.Items); i++ {
		prev, curr := a.Items[i-1], a.Items[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertRowOrder,
				Expected: fmt.Sprintf("items in order: %v", a.Items),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Rows: rows,
			}
		}
	}
	return nil
}

func assertRowCount(rows []streak.Row, a Assertion) error {
	count := 0
	for _, r := range rows {
		if a.Status == "" || string(r.Status) == a.Status {
			count++
		}
	}
	if count != a.Count {
		what := "rows"
		if a.Status != "" {
			what = a.Status + " rows"
		}
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d %s", a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
			Rows:     rows,
		}
	}
	return nil
}

func assertPeriod(result *Result, a Assertion) error {
	if result.Period != a.Period {
		return &AssertionError{
			Type:     AssertPeriod,
			Expected: fmt.Sprintf("period %d", a.Period),
			Actual:   fmt.Sprintf("period %d", result.Period),
			Rows:     result.Rows,
		}
	}
	return nil
}

func describeSelector(a Assertion) string {
	parts := []string{"item " + a.Item}
	if a.Start != 0 {
		parts = append(parts, fmt.Sprintf("start %d", a.Start))
	}
	if a.Length != 0 {
		parts = append(parts, fmt.Sprintf("length %d", a.Length))
	}
	if a.Status != "" {
		parts = append(parts, "status "+a.Status)
	}
	return strings.Join(parts, ", ")
}

// compareRows checks the final table against the expected rows, in order.
func compareRows(rows []streak.Row, expect []ExpectRow) []string {
	var errs []string
	if len(rows) != len(expect) {
		errs = append(errs, fmt.Sprintf("expect: got %d rows, want %d", len(rows), len(expect)))
	}
	for i := 0; i < len(rows) && i < len(expect); i++ {
		got, want := rows[i], expect[i]
		if string(got.Item) != want.Item || got.Start != want.Start ||
			got.Length != want.Length || string(got.Status) != want.Status {
			errs = append(errs, fmt.Sprintf("expect[%d]: got %s start=%d length=%d %s, want %s start=%d length=%d %s",
				i, got.Item, got.Start, got.Length, got.Status,
				want.Item, want.Start, want.Length, want.Status))
		}
	}
	return errs
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRowContains:
			err = assertRowContains(result.Rows, assertion)
		case AssertRowOrder:
			err = assertRowOrder(result.Rows, assertion)
		case AssertRowCount:
			err = assertRowCount(result.Rows, assertion)
		case AssertPeriod:
			err = assertPeriod(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
