package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/streaks/internal/config"
	"github.com/roach88/streaks/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Name     string
}

// HistoryOutput is the JSON payload of the history command.
type HistoryOutput struct {
	Name string      `json:"name"`
	Runs []store.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the runs recorded for a stored state",
		Long: `List every run that updated a named state, oldest first.

Example:
  streaks history --db streaks.db --name daily`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadedConfig()
			if !cmd.Flags().Changed("db") {
				opts.Database = cfg.DB
			}
			if !cmd.Flags().Changed("name") {
				opts.Name = cfg.Name
			}
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite state database")
	cmd.Flags().StringVar(&opts.Name, "name", config.DefaultName, "state name inside the database")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Database == "" {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, "history requires --db", nil)
	}

	if !fileExists(opts.Database) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	runs, err := st.Runs(cmd.Context(), opts.Name)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(HistoryOutput{Name: opts.Name, Runs: runs})
	}
	renderRuns(formatter.Writer, opts.Name, runs)
	return nil
}
