package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/streaks/internal/streak"
)

func TestValidate_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "periods.yaml", "start_period: 1\nperiods:\n  - [A, B]\n  - [A]\n")

	out, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Input valid: 2 period(s), 3 item(s)")

	out, _, err = execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)
	resp := decodeResponse[ValidationResult](t, out)
	assert.Equal(t, ValidationResult{Valid: true, Periods: 2, Items: 3, StartPeriod: 1}, resp.Data)
}

func TestValidate_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		wantCode string
	}{
		{"parse error", "[[A, B]", "E202"},
		{"schema error", `{"periods": [[true]]}`, "E203"},
		{"negative start", `{"start_period": -1, "periods": []}`, "E203"},
		{"missing periods", `{"start_period": 1}`, "E203"},
		{"empty", "", "E204"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name+".yaml", tt.content)

			out, _, err := execute(t, "--format", "json", "validate", path)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decodeResponse[any](t, out)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_AgainstStoredState(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "streaks.db")
	seed := writeFile(t, dir, "seed.json", basicPeriods)
	ok := writeFile(t, dir, "ok.json", `{"start_period": 4, "periods": [["A"]]}`)
	gap := writeFile(t, dir, "gap.json", `{"start_period": 6, "periods": [["A"]]}`)

	_, _, err := execute(t, "rank", "--db", db, seed)
	require.NoError(t, err)

	out, _, err := execute(t, "--format", "json", "validate", "--db", db, ok)
	require.NoError(t, err)
	resp := decodeResponse[ValidationResult](t, out)
	assert.Equal(t, 3, resp.Data.LastPeriod)

	out, _, err = execute(t, "--format", "json", "validate", "--db", db, gap)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	errResp := decodeResponse[any](t, out)
	require.NotNil(t, errResp.Error)
	assert.Equal(t, string(streak.ErrCodeStartPeriodMismatch), errResp.Error.Code)

	// validate never writes
	out, _, err = execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "1 run(s)")
}
