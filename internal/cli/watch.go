package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/streaks/internal/export"
	"github.com/roach88/streaks/internal/periods"
	"github.com/roach88/streaks/internal/snapshot"
	"github.com/roach88/streaks/internal/streak"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	StateOptions

	StartPeriod   int
	ExcludeBroken bool
	WriteState    string
	Prom          string
	NFC           bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch <periods-file>",
		Short: "Re-rank streaks whenever the periods file changes",
		Long: `Rank the periods file, then re-rank it each time it is written.

The prior state is read once at startup and every refresh is computed on
top of it, so repeated saves of the same file give the same table. The
database or snapshot given by --db/--state is never written; use
--write-state to keep the latest result.

A file that fails to load is reported and the previous table stays.
Stop with Ctrl-C.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.loadedConfig()
			opts.StateOptions.applyConfig(cmd, cfg)
			if !cmd.Flags().Changed("exclude-broken") {
				opts.ExcludeBroken = cfg.ExcludeBroken
			}
			if !cmd.Flags().Changed("nfc") {
				opts.NFC = cfg.NFC
			}
			if !cmd.Flags().Changed("prom") {
				opts.Prom = cfg.Prom
			}
			return runWatch(opts, args[0], cmd)
		},
	}

	opts.StateOptions.addFlags(cmd)
	cmd.Flags().IntVar(&opts.StartPeriod, "start-period", 0, "period number of the first set (overrides the file)")
	cmd.Flags().BoolVar(&opts.ExcludeBroken, "exclude-broken", false, "drop streaks that broke before the current period")
	cmd.Flags().StringVar(&opts.WriteState, "write-state", "", "write the latest state to this snapshot file")
	cmd.Flags().StringVar(&opts.Prom, "prom", "", "write Prometheus textfile metrics to this path on every refresh")
	cmd.Flags().BoolVar(&opts.NFC, "nfc", false, "normalize items to Unicode NFC")

	return cmd
}

func runWatch(opts *WatchOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if path == "-" {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, "watch needs a file, not stdin", nil)
	}
	if err := opts.StateOptions.check(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeFlags, err.Error(), nil)
	}

	src, err := openSource(opts.StateOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	prior, err := src.load(cmd.Context())
	src.close()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeState, fmt.Sprintf("failed to load prior state from %s: %v", src.describe(), err), nil)
	}

	// The first pass must succeed; later failures only log.
	if err := refresh(opts, formatter, path, prior, cmd); err != nil {
		return err
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	err = watchFile(ctx, path, func() {
		if err := refresh(opts, formatter, path, prior, cmd); err != nil {
			slog.Error("refresh failed, keeping previous table", "path", path, "err", err)
		}
	})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("failed to watch %s: %v", path, err), nil)
	}
	return nil
}

// refresh loads path, computes on top of prior and renders the result.
func refresh(opts *WatchOptions, formatter *OutputFormatter, path string, prior *streak.State, cmd *cobra.Command) error {
	input, err := periods.LoadFile(path, periods.Options{NFC: opts.NFC})
	if err != nil {
		return failInput(formatter, err)
	}
	if cmd.Flags().Changed("start-period") {
		input.StartPeriod = opts.StartPeriod
	}

	res, err := streak.Compute(input.Periods, streak.Options{
		Prior:       prior,
		StartPeriod: input.StartPeriod,
		Raw:         true,
	})
	if err != nil {
		return failCompute(formatter, err)
	}
	rows := streak.Rank(outputState(res.State, res.Period, opts.ExcludeBroken), res.Period)

	if opts.WriteState != "" {
		if err := snapshot.WriteFile(opts.WriteState, res.State); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeState, err.Error(), nil)
		}
	}
	if opts.Prom != "" {
		if err := export.WriteFile(opts.Prom, rows, res.Period); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
	}

	if formatter.JSON() {
		return formatter.Success(RankOutput{Period: res.Period, Rows: rows})
	}
	renderRows(formatter.Writer, rows, res.Period)
	fmt.Fprintln(formatter.Writer)
	return nil
}

// watchFile calls onChange each time path is written, created or replaced.
// It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file, so saves that
// rename a temporary file over path are seen.
func watchFile(ctx context.Context, path string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}

	slog.Info("watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			// A rename over path arrives as Create; Remove and Rename
			// leave nothing to read.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			slog.Debug("periods file changed", "path", path, "op", event.Op.String())
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "err", err)
		}
	}
}
