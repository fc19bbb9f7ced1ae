package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/streaks/internal/export"
	"github.com/roach88/streaks/internal/store"
	"github.com/roach88/streaks/internal/streak"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	StateOptions

	ExcludeBroken bool
	Prom          string
	List          bool
}

// ShowOutput is the JSON payload of the show command.
type ShowOutput struct {
	Period int          `json:"period"`
	Rows   []streak.Row `json:"rows"`
}

// ListOutput is the JSON payload of show --list.
type ListOutput struct {
	States []store.StateInfo `json:"states"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Rank a stored state without new periods",
		Long: `Print the ranked streaks of a stored state as of its last period.

With --list, print a summary of every state in the database instead.

Examples:
  streaks show --db streaks.db --name daily
  streaks show --state state.json --exclude-broken
  streaks show --db streaks.db --list`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadedConfig()
			opts.StateOptions.applyConfig(cmd, cfg)
			if !cmd.Flags().Changed("exclude-broken") {
				opts.ExcludeBroken = cfg.ExcludeBroken
			}
			if !cmd.Flags().Changed("prom") {
				opts.Prom = cfg.Prom
			}
			return runShow(opts, cmd)
		},
	}

	opts.StateOptions.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.ExcludeBroken, "exclude-broken", false, "drop streaks that broke before the last period")
	cmd.Flags().StringVar(&opts.Prom, "prom", "", "write Prometheus textfile metrics to this path")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list stored states (requires --db)")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if err := opts.StateOptions.check(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, err.Error(), nil)
	}
	if opts.Database == "" && (opts.List || opts.StateFile == "") {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, "show requires --db, or --state without --list", nil)
	}

	if opts.Database != "" && !fileExists(opts.Database) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	src, err := openSource(opts.StateOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer src.close()

	ctx := cmd.Context()
	if opts.List {
		infos, err := src.store.ListStates(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
		}
		if formatter.JSON() {
			return formatter.Success(ListOutput{States: infos})
		}
		renderStates(formatter.Writer, infos)
		return nil
	}

	state, err := src.load(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, fmt.Sprintf("failed to load state from %s: %v", src.describe(), err), nil)
	}
	if state == nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no stored state at %s", src.describe()), nil)
	}

	period := state.LastPeriod()
	if opts.ExcludeBroken {
		streak.Filter(state, period)
	}
	rows := streak.Rank(state, period)

	if opts.Prom != "" {
		if err := export.WriteFile(opts.Prom, rows, period); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		formatter.VerboseLog("Wrote metrics to %s", opts.Prom)
	}

	if formatter.JSON() {
		return formatter.Success(ShowOutput{Period: period, Rows: rows})
	}
	renderRows(formatter.Writer, rows, period)
	return nil
}
