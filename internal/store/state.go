package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/streaks/internal/snapshot"
	"github.com/roach88/streaks/internal/streak"
)

// ErrNotFound is returned when a named state does not exist.
var ErrNotFound = errors.New("state not found")

// RunParams describes the computation that produced a state.
type RunParams struct {
	// StartPeriod is the requested start period, 0 if omitted.
	StartPeriod int

	// PeriodCount is the number of period sets processed.
	PeriodCount int

	// Period is the last period processed.
	Period int
}

// Run is one entry of the run log.
type Run struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Seq         int64  `json:"seq"`
	StartPeriod int    `json:"start_period,omitempty"`
	PeriodCount int    `json:"period_count"`
	LastPeriod  int    `json:"last_period"`
	StateHash   string `json:"state_hash"`
}

// StateInfo summarizes a stored state.
type StateInfo struct {
	Name       string `json:"name"`
	LastPeriod int    `json:"last_period"`
	Streaks    int    `json:"streaks"`
	StateHash  string `json:"state_hash"`
	UpdatedSeq int64  `json:"updated_seq"`
}

// SaveState replaces the state stored under name and appends a run record.
// Both happen in one transaction.
func (s *Store) SaveState(ctx context.Context, name string, state *streak.State, params RunParams) (Run, error) {
	hash, err := snapshot.Hash(state)
	if err != nil {
		return Run{}, fmt.Errorf("save state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("save state: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM runs WHERE name = ?
	`, name).Scan(&seq)
	if err != nil {
		return Run{}, fmt.Errorf("save state: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO states (name, last_period, state_hash, updated_seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			last_period = excluded.last_period,
			state_hash = excluded.state_hash,
			updated_seq = excluded.updated_seq
	`, name, state.LastPeriod(), hash, seq)
	if err != nil {
		return Run{}, fmt.Errorf("save state: upsert state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM streaks WHERE name = ?`, name); err != nil {
		return Run{}, fmt.Errorf("save state: clear streaks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO streaks (name, start_period, item, length, break_period)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("save state: prepare: %w", err)
	}
	defer stmt.Close()

	for _, k := range state.Keys() {
		st := state.Streaks[k]
		if _, err := stmt.ExecContext(ctx, name, k.Start, string(k.Item), st.Length, nullablePeriod(st.Break)); err != nil {
			return Run{}, fmt.Errorf("save state: insert streak (%d, %q): %w", k.Start, k.Item, err)
		}
	}

	run := Run{
		ID:          s.ids.Generate(),
		Name:        name,
		Seq:         seq,
		StartPeriod: params.StartPeriod,
		PeriodCount: params.PeriodCount,
		LastPeriod:  params.Period,
		StateHash:   hash,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, name, seq, start_period, period_count, last_period, state_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Name, run.Seq, nullablePeriod(run.StartPeriod), run.PeriodCount, run.LastPeriod, run.StateHash)
	if err != nil {
		return Run{}, fmt.Errorf("save state: insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("save state: commit: %w", err)
	}
	return run, nil
}

// LoadState returns the state stored under name.
// Returns an error wrapping ErrNotFound if there is none.
func (s *Store) LoadState(ctx context.Context, name string) (*streak.State, error) {
	var wantHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT state_hash FROM states WHERE name = ?
	`, name).Scan(&wantHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load state %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load state %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT start_period, item, length, break_period
		FROM streaks
		WHERE name = ?
		ORDER BY start_period ASC, item COLLATE BINARY ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("load state %q: query streaks: %w", name, err)
	}
	defer rows.Close()

	state := streak.NewState()
	for rows.Next() {
		var (
			start, length int
			item          string
			brk           sql.NullInt64
		)
		if err := rows.Scan(&start, &item, &length, &brk); err != nil {
			return nil, fmt.Errorf("load state %q: scan streak: %w", name, err)
		}
		state.Streaks[streak.Key{Start: start, Item: streak.Item(item)}] = &streak.Streak{
			Length: length,
			Break:  int(brk.Int64),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load state %q: iterate streaks: %w", name, err)
	}

	gotHash, err := snapshot.Hash(state)
	if err != nil {
		return nil, fmt.Errorf("load state %q: %w", name, err)
	}
	if gotHash != wantHash {
		return nil, fmt.Errorf("load state %q: hash mismatch (stored %s, computed %s)", name, wantHash, gotHash)
	}

	return state, nil
}

// ListStates returns a summary of every stored state ordered by name.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListStates(ctx context.Context) ([]StateInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.name, s.last_period, s.state_hash, s.updated_seq, COUNT(k.item)
		FROM states s
		LEFT JOIN streaks k ON k.name = s.name
		GROUP BY s.name
		ORDER BY s.name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	infos := []StateInfo{}
	for rows.Next() {
		var info StateInfo
		if err := rows.Scan(&info.Name, &info.LastPeriod, &info.StateHash, &info.UpdatedSeq, &info.Streaks); err != nil {
			return nil, fmt.Errorf("list states: scan: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list states: iterate: %w", err)
	}
	return infos, nil
}

// Runs returns the run log for name ordered by seq.
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) Runs(ctx context.Context, name string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, seq, start_period, period_count, last_period, state_hash
		FROM runs
		WHERE name = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run   Run
			start sql.NullInt64
		)
		if err := rows.Scan(&run.ID, &run.Name, &run.Seq, &start, &run.PeriodCount, &run.LastPeriod, &run.StateHash); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartPeriod = int(start.Int64)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// nullablePeriod maps the zero period to SQL NULL.
func nullablePeriod(p int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(p), Valid: p != 0}
}
