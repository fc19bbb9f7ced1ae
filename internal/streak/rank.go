package streak

import (
	"cmp"
	"slices"
)

// Filter removes streaks that broke strictly before period. Streaks that
// are ongoing, or that broke in period itself, are kept.
func Filter(s *State, period int) {
	if s == nil {
		return
	}
	for k, st := range s.Streaks {
		if st.Break != 0 && st.Break != period {
			delete(s.Streaks, k)
		}
	}
}

// Classify returns the status of st relative to the current period.
func Classify(st *Streak, period int) Status {
	switch {
	case st.Break == 0:
		return StatusOngoing
	case st.Break < period:
		return StatusBroken
	default:
		return StatusMightBreak
	}
}

// Rank projects every streak in s into a row and sorts the rows by length
// descending, start ascending and item ascending.
func Rank(s *State, period int) []Row {
	rows := make([]Row, 0, s.Len())
	if s == nil {
		return rows
	}
	for k, st := range s.Streaks {
		rows = append(rows, Row{
			Item:   k.Item,
			Start:  k.Start,
			Length: st.Length,
			Status: Classify(st, period),
		})
	}
	slices.SortFunc(rows, compareRows)
	return rows
}

func compareRows(a, b Row) int {
	if c := cmp.Compare(b.Length, a.Length); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.Item, b.Item)
}
