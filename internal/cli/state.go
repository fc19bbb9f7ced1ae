package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/streaks/internal/config"
	"github.com/roach88/streaks/internal/snapshot"
	"github.com/roach88/streaks/internal/store"
	"github.com/roach88/streaks/internal/streak"
)

// StateOptions selects where prior state is read from: a snapshot file or
// a named state in a SQLite database.
type StateOptions struct {
	StateFile string
	Database  string
	Name      string
}

func (o *StateOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.StateFile, "state", "", "snapshot file holding the prior state")
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite state database")
	cmd.Flags().StringVar(&o.Name, "name", config.DefaultName, "state name inside the database")
}

// applyConfig fills flags not set on the command line from cfg.
func (o *StateOptions) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("db") && o.StateFile == "" {
		o.Database = cfg.DB
	}
	if !cmd.Flags().Changed("name") {
		o.Name = cfg.Name
	}
}

func (o *StateOptions) check() error {
	if o.StateFile != "" && o.Database != "" {
		return errors.New("--state and --db are mutually exclusive")
	}
	if o.Database != "" && o.Name == "" {
		return errors.New("--name must not be empty")
	}
	return nil
}

// stateSource is an opened state location.
type stateSource struct {
	opts  StateOptions
	store *store.Store
}

// openSource opens the database if one is configured. The caller must call
// close.
func openSource(opts StateOptions) (*stateSource, error) {
	src := &stateSource{opts: opts}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return nil, err
		}
		src.store = st
	}
	return src, nil
}

func (s *stateSource) close() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// load returns the prior state, or nil when none has been stored yet.
func (s *stateSource) load(ctx context.Context) (*streak.State, error) {
	switch {
	case s.store != nil:
		st, err := s.store.LoadState(ctx, s.opts.Name)
		if errors.Is(err, store.ErrNotFound) {
			slog.Debug("no stored state, starting fresh", "db", s.opts.Database, "name", s.opts.Name)
			return nil, nil
		}
		return st, err
	case s.opts.StateFile != "":
		st, err := snapshot.ReadFile(s.opts.StateFile)
		if snapshot.IsNotExist(err) {
			slog.Debug("no snapshot file, starting fresh", "path", s.opts.StateFile)
			return nil, nil
		}
		return st, err
	}
	return nil, nil
}

// save persists state back to where it was loaded from. A snapshot file
// source is rewritten; a database source gets a new run record.
func (s *stateSource) save(ctx context.Context, state *streak.State, params store.RunParams) (*store.Run, error) {
	switch {
	case s.store != nil:
		run, err := s.store.SaveState(ctx, s.opts.Name, state, params)
		if err != nil {
			return nil, err
		}
		slog.Info("state saved", "name", s.opts.Name, "seq", run.Seq, "run", run.ID)
		return &run, nil
	case s.opts.StateFile != "":
		if err := snapshot.WriteFile(s.opts.StateFile, state); err != nil {
			return nil, err
		}
		slog.Info("snapshot written", "path", s.opts.StateFile)
	}
	return nil, nil
}

func (s *stateSource) describe() string {
	switch {
	case s.store != nil:
		return fmt.Sprintf("%s#%s", s.opts.Database, s.opts.Name)
	case s.opts.StateFile != "":
		return s.opts.StateFile
	}
	return "(none)"
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
