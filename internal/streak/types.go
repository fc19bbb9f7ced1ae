package streak

import (
	"cmp"
	"slices"
)

// Item is an opaque item identifier. Identity is exact string equality.
type Item string

// Key identifies a streak by its start period and item.
type Key struct {
	Start int
	Item  Item
}

// Compare orders keys by start, then item.
func (k Key) Compare(other Key) int {
	if c := cmp.Compare(k.Start, other.Start); c != 0 {
		return c
	}
	return cmp.Compare(k.Item, other.Item)
}

// Streak holds the mutable attributes of one run.
type Streak struct {
	// Length counts consecutive processed periods, including the start.
	Length int

	// Break is the first period at or after the start in which the item
	// was absent. Zero while the streak is unbroken.
	Break int
}

// Broken reports whether a break has been recorded.
func (s Streak) Broken() bool {
	return s.Break != 0
}

// End returns the last period counted by the streak.
func (k Key) End(s *Streak) int {
	return k.Start + s.Length - 1
}

// State maps streak keys to streaks. It is the engine's resumable state.
type State struct {
	Streaks map[Key]*Streak
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Streaks: make(map[Key]*Streak)}
}

// LastPeriod returns the last period covered by any streak, or 0 for an
// empty state.
func (s *State) LastPeriod() int {
	if s == nil {
		return 0
	}
	last := 0
	for k, st := range s.Streaks {
		last = max(last, k.End(st))
	}
	return last
}

// Len returns the number of streaks.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Streaks)
}

// Clone returns a deep copy. A nil state clones to an empty one.
func (s *State) Clone() *State {
	out := NewState()
	if s == nil {
		return out
	}
	for k, st := range s.Streaks {
		cp := *st
		out.Streaks[k] = &cp
	}
	return out
}

// Keys returns all keys ordered by start, then item.
func (s *State) Keys() []Key {
	if s == nil {
		return nil
	}
	keys := make([]Key, 0, len(s.Streaks))
	for k := range s.Streaks {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, Key.Compare)
	return keys
}

// Status classifies a streak relative to the current period.
type Status string

const (
	StatusOngoing    Status = "ongoing"
	StatusMightBreak Status = "might-break"
	StatusBroken     Status = "broken"
)

// Row is the output projection of one streak.
type Row struct {
	Item   Item   `json:"item"`
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Status Status `json:"status"`
}
