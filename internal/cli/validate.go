package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/streaks/internal/periods"
	"github.com/roach88/streaks/internal/streak"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	StateOptions

	StartPeriod int
	NFC         bool
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool `json:"valid"`
	Periods     int  `json:"periods"`
	Items       int  `json:"items"`
	StartPeriod int  `json:"start_period,omitempty"`
	LastPeriod  int  `json:"last_period,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <periods-file>",
		Short: "Validate a periods file without processing it",
		Long: `Check a periods file against the input schema.

When --state or --db is given, also check that the start period is
consistent with the stored state. Nothing is written.

Exit codes:
  0 - Input valid
  1 - Input invalid
  2 - Command error (unreadable files, database errors)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadedConfig()
			if !cmd.Flags().Changed("nfc") {
				opts.NFC = cfg.NFC
			}
			return runValidate(opts, args[0], cmd)
		},
	}

	opts.StateOptions.addFlags(cmd)
	cmd.Flags().IntVar(&opts.StartPeriod, "start-period", 0, "period number of the first set (overrides the file)")
	cmd.Flags().BoolVar(&opts.NFC, "nfc", false, "normalize items to Unicode NFC")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
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

	result := ValidationResult{
		Valid:       true,
		Periods:     len(input.Periods),
		StartPeriod: input.StartPeriod,
	}
	for _, set := range input.Periods {
		result.Items += len(set)
	}
	formatter.VerboseLog("Schema check passed for %s", path)

	if opts.StateFile != "" || opts.Database != "" {
		if opts.Database != "" && !fileExists(opts.Database) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		}
		src, err := openSource(opts.StateOptions)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
		}
		defer src.close()

		prior, err := src.load(cmd.Context())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeState, fmt.Sprintf("failed to load state from %s: %v", src.describe(), err), nil)
		}
		result.LastPeriod = prior.LastPeriod()

		// Compute works on a copy; the result is discarded.
		if _, err := streak.Compute(input.Periods, streak.Options{
			Prior:       prior,
			StartPeriod: input.StartPeriod,
			Raw:         true,
		}); err != nil {
			return failCompute(formatter, err)
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Input valid: %d period(s), %d item(s)\n", result.Periods, result.Items)
	return nil
}
