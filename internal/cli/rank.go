package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/streaks/internal/export"
	"github.com/roach88/streaks/internal/periods"
	"github.com/roach88/streaks/internal/snapshot"
	"github.com/roach88/streaks/internal/store"
	"github.com/roach88/streaks/internal/streak"
)

// RankOptions holds flags for the rank command.
type RankOptions struct {
	*RootOptions
	StateOptions

	StartPeriod   int
	ExcludeBroken bool
	Raw           bool
	WriteState    string
	NoSave        bool
	Prom          string
	NFC           bool
}

// RankOutput is the JSON payload of a ranked run.
type RankOutput struct {
	Period int          `json:"period"`
	Rows   []streak.Row `json:"rows"`
	Run    *store.Run   `json:"run,omitempty"`
}

// RawOutput is the JSON payload of a raw run.
type RawOutput struct {
	Period int             `json:"period"`
	State  json.RawMessage `json:"state"`
	Run    *store.Run      `json:"run,omitempty"`
}

// NewRankCommand creates the rank command.
func NewRankCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RankOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rank <periods-file>",
		Short: "Process periods and rank streaks",
		Long: `Process a periods file on top of the prior state and print the ranked
streaks.

The periods file is JSON or YAML: either a list of item lists, or an object
with "periods" and an optional "start_period". Use "-" to read stdin.

Prior state comes from --state (a snapshot file) or --db/--name (a SQLite
database). The updated state is written back unless --no-save is given.
--exclude-broken only affects the output; the saved state keeps every
streak.

Start period rules:
  omitted       continue after the prior state's last period
  last period   reprocess the last period
  last + 1      append
  1             required for an empty state

Exit codes:
  0 - Success
  1 - Invalid input or start period
  2 - Command error (unreadable files, database errors, conflicting flags)

Examples:
  streaks rank periods.json
  streaks rank --db streaks.db --name daily today.yaml
  streaks rank --state state.json --start-period 7 week.json
  streaks rank --exclude-broken --format json periods.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig(cmd)
			return runRank(opts, args[0], cmd)
		},
	}

	opts.StateOptions.addFlags(cmd)
	cmd.Flags().IntVar(&opts.StartPeriod, "start-period", 0, "period number of the first set (overrides the file)")
	cmd.Flags().BoolVar(&opts.ExcludeBroken, "exclude-broken", false, "drop streaks that broke before the current period")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print the updated state instead of the ranked table")
	cmd.Flags().StringVar(&opts.WriteState, "write-state", "", "also write the updated state to this snapshot file")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "do not write the updated state back to --state or --db")
	cmd.Flags().StringVar(&opts.Prom, "prom", "", "write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&opts.NFC, "nfc", false, "normalize items to Unicode NFC")

	return cmd
}

// applyConfig fills flags not set on the command line from the config file.
func (o *RankOptions) applyConfig(cmd *cobra.Command) {
	cfg := o.loadedConfig()
	o.StateOptions.applyConfig(cmd, cfg)
	if !cmd.Flags().Changed("exclude-broken") {
		o.ExcludeBroken = cfg.ExcludeBroken
	}
	if !cmd.Flags().Changed("nfc") {
		o.NFC = cfg.NFC
	}
	if !cmd.Flags().Changed("prom") {
		o.Prom = cfg.Prom
	}
}

func runRank(opts *RankOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if err := opts.StateOptions.check(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, err.Error(), nil)
	}

	input, err := readPeriods(path, cmd.InOrStdin(), periods.Options{NFC: opts.NFC})
	if err != nil {
		return failInput(formatter, err)
	}
	if cmd.Flags().Changed("start-period") {
		input.StartPeriod = opts.StartPeriod
	}
	formatter.VerboseLog("Loaded %d period(s) from %s", len(input.Periods), path)

	src, err := openSource(opts.StateOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer src.close()

	ctx := cmd.Context()
	prior, err := src.load(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, fmt.Sprintf("failed to load prior state from %s: %v", src.describe(), err), nil)
	}

	slog.Debug("computing", "source", src.describe(), "prior_last_period", prior.LastPeriod(), "start_period", input.StartPeriod)
	// The cache always keeps broken streaks; --exclude-broken only shapes
	// the output.
	res, err := streak.Compute(input.Periods, streak.Options{
		Prior:       prior,
		StartPeriod: input.StartPeriod,
		Raw:         true,
	})
	if err != nil {
		return failCompute(formatter, err)
	}

	var run *store.Run
	if !opts.NoSave {
		run, err = src.save(ctx, res.State, store.RunParams{
			StartPeriod: input.StartPeriod,
			PeriodCount: len(input.Periods),
			Period:      res.Period,
		})
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to save state: %v", err), nil)
		}
	}

	if opts.WriteState != "" {
		if err := snapshot.WriteFile(opts.WriteState, res.State); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeState, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote state to %s", opts.WriteState)
	}

	view := outputState(res.State, res.Period, opts.ExcludeBroken)
	rows := streak.Rank(view, res.Period)
	if opts.Prom != "" {
		if err := export.WriteFile(opts.Prom, rows, res.Period); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote metrics to %s", opts.Prom)
	}

	if opts.Raw {
		return outputRaw(formatter, view, res.Period, run)
	}
	if formatter.JSON() {
		return formatter.Success(RankOutput{Period: res.Period, Rows: rows, Run: run})
	}
	renderRows(formatter.Writer, rows, res.Period)
	return nil
}

// outputState returns the state to display: state itself, or a filtered
// copy when excludeBroken is set.
func outputState(state *streak.State, period int, excludeBroken bool) *streak.State {
	if !excludeBroken {
		return state
	}
	view := state.Clone()
	streak.Filter(view, period)
	return view
}

func outputRaw(formatter *OutputFormatter, state *streak.State, period int, run *store.Run) error {
	blob, err := snapshot.Encode(state)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, err.Error(), nil)
	}
	if formatter.JSON() {
		return formatter.Success(RawOutput{Period: period, State: blob, Run: run})
	}
	fmt.Fprintln(formatter.Writer, string(blob))
	return nil
}

// readPeriods loads the periods file at path, or stdin for "-".
func readPeriods(path string, stdin io.Reader, opts periods.Options) (*periods.Input, error) {
	if path != "-" {
		return periods.LoadFile(path, opts)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, &periods.LoadError{Code: periods.ErrCodeRead, Message: err.Error()}
	}
	return periods.Parse(data, opts)
}

// failInput reports an input loading error. Unreadable files are command
// errors; malformed content is a validation failure.
func failInput(formatter *OutputFormatter, err error) error {
	var le *periods.LoadError
	if !errors.As(err, &le) {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	exit := ExitFailure
	if le.Code == periods.ErrCodeRead {
		exit = ExitCommandError
	}
	return formatter.Fail(exit, le.Code, le.Message, nil)
}

// failCompute reports a Compute error.
func failCompute(formatter *OutputFormatter, err error) error {
	var ve *streak.ValidationError
	if !errors.As(err, &ve) {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	return formatter.Fail(ExitFailure, string(ve.Code), ve.Message, map[string]int{
		"start_period": ve.StartPeriod,
		"last_period":  ve.LastPeriod,
	})
}
