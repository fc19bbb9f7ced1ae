package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/roach88/streaks/internal/snapshot"
	"github.com/roach88/streaks/internal/streak"
)

func sampleState() *streak.State {
	return &streak.State{Streaks: map[streak.Key]*streak.Streak{
		{Start: 1, Item: "A"}:   {Length: 3},
		{Start: 1, Item: "B"}:   {Length: 1, Break: 2},
		{Start: 3, Item: "C"}:   {Length: 1},
		{Start: 2, Item: "1.A"}: {Length: 2},
	}}
}

func TestSaveState_LoadState_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator("run-1")))

	run, err := s.SaveState(ctx, "daily", sampleState(), RunParams{PeriodCount: 3, Period: 3})
	if err != nil {
		t.Fatalf("SaveState() failed: %v", err)
	}
	if run.ID != "run-1" || run.Seq != 1 {
		t.Errorf("run = %+v, want id run-1 seq 1", run)
	}

	got, err := s.LoadState(ctx, "daily")
	if err != nil {
		t.Fatalf("LoadState() failed: %v", err)
	}
	if !reflect.DeepEqual(sampleState(), got) {
		t.Errorf("LoadState() = %+v, want %+v", got.Streaks, sampleState().Streaks)
	}

	wantHash, _ := snapshot.Hash(sampleState())
	if run.StateHash != wantHash {
		t.Errorf("run.StateHash = %s, want %s", run.StateHash, wantHash)
	}
}

func TestSaveState_ReplacesPreviousState(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator("run-1", "run-2")))

	if _, err := s.SaveState(ctx, "daily", sampleState(), RunParams{PeriodCount: 3, Period: 3}); err != nil {
		t.Fatalf("first SaveState() failed: %v", err)
	}

	next := &streak.State{Streaks: map[streak.Key]*streak.Streak{
		{Start: 1, Item: "A"}: {Length: 4},
	}}
	run, err := s.SaveState(ctx, "daily", next, RunParams{StartPeriod: 4, PeriodCount: 1, Period: 4})
	if err != nil {
		t.Fatalf("second SaveState() failed: %v", err)
	}
	if run.Seq != 2 {
		t.Errorf("run.Seq = %d, want 2", run.Seq)
	}

	got, err := s.LoadState(ctx, "daily")
	if err != nil {
		t.Fatalf("LoadState() failed: %v", err)
	}
	if !reflect.DeepEqual(next, got) {
		t.Errorf("LoadState() = %+v, want %+v", got.Streaks, next.Streaks)
	}
}

func TestSaveState_NamesAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	if _, err := s.SaveState(ctx, "a", sampleState(), RunParams{}); err != nil {
		t.Fatalf("SaveState(a) failed: %v", err)
	}
	empty := streak.NewState()
	if _, err := s.SaveState(ctx, "b", empty, RunParams{}); err != nil {
		t.Fatalf("SaveState(b) failed: %v", err)
	}

	got, err := s.LoadState(ctx, "a")
	if err != nil {
		t.Fatalf("LoadState(a) failed: %v", err)
	}
	if got.Len() != 4 {
		t.Errorf("state a has %d streaks, want 4", got.Len())
	}

	got, err = s.LoadState(ctx, "b")
	if err != nil {
		t.Fatalf("LoadState(b) failed: %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("state b has %d streaks, want 0", got.Len())
	}
}

func TestLoadState_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadState(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadState() error = %v, want ErrNotFound", err)
	}
}

func TestLoadState_DetectsTampering(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	if _, err := s.SaveState(ctx, "daily", sampleState(), RunParams{}); err != nil {
		t.Fatalf("SaveState() failed: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE streaks SET length = 99 WHERE item = 'A'`); err != nil {
		t.Fatalf("tamper failed: %v", err)
	}

	_, err := s.LoadState(ctx, "daily")
	if err == nil {
		t.Fatal("expected hash mismatch error")
	}
}

func TestListStates(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	infos, err := s.ListStates(ctx)
	if err != nil {
		t.Fatalf("ListStates() failed: %v", err)
	}
	if infos == nil || len(infos) != 0 {
		t.Errorf("ListStates() on empty store = %v, want empty slice", infos)
	}

	if _, err := s.SaveState(ctx, "weekly", streak.NewState(), RunParams{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveState(ctx, "daily", sampleState(), RunParams{}); err != nil {
		t.Fatal(err)
	}

	infos, err = s.ListStates(ctx)
	if err != nil {
		t.Fatalf("ListStates() failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("ListStates() returned %d states, want 2", len(infos))
	}
	if infos[0].Name != "daily" || infos[0].Streaks != 4 || infos[0].LastPeriod != 3 {
		t.Errorf("infos[0] = %+v", infos[0])
	}
	if infos[1].Name != "weekly" || infos[1].Streaks != 0 || infos[1].LastPeriod != 0 {
		t.Errorf("infos[1] = %+v", infos[1])
	}
}

func TestRuns_OrderedBySeq(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t, WithRunIDGenerator(NewFixedGenerator("z-run", "a-run", "other")))

	if _, err := s.SaveState(ctx, "daily", sampleState(), RunParams{PeriodCount: 3, Period: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveState(ctx, "daily", sampleState(), RunParams{StartPeriod: 3, PeriodCount: 1, Period: 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveState(ctx, "weekly", sampleState(), RunParams{}); err != nil {
		t.Fatal(err)
	}

	runs, err := s.Runs(ctx, "daily")
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs() returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != "z-run" || runs[0].Seq != 1 || runs[0].StartPeriod != 0 {
		t.Errorf("runs[0] = %+v", runs[0])
	}
	if runs[1].ID != "a-run" || runs[1].Seq != 2 || runs[1].StartPeriod != 3 || runs[1].PeriodCount != 1 {
		t.Errorf("runs[1] = %+v", runs[1])
	}

	runs, err = s.Runs(ctx, "nobody")
	if err != nil {
		t.Fatalf("Runs() failed: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Errorf("Runs() for unknown name = %v, want empty slice", runs)
	}
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	g := UUIDv7Generator{}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.Generate()
		if len(id) != 36 {
			t.Fatalf("id %q has length %d, want 36", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestFixedGenerator_Exhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	if got := g.Generate(); got != "only" {
		t.Errorf("Generate() = %q, want only", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic after ids are exhausted")
		}
	}()
	g.Generate()
}
