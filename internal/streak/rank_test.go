package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank_TieBreaks(t *testing.T) {
	s := &State{Streaks: map[Key]*Streak{
		{Start: 2, Item: "b"}: {Length: 2},
		{Start: 1, Item: "z"}: {Length: 2},
		{Start: 2, Item: "a"}: {Length: 2},
		{Start: 3, Item: "B"}: {Length: 1},
		{Start: 1, Item: "y"}: {Length: 3},
	}}

	rows := Rank(s, 4)

	got := make([]Key, len(rows))
	for i, r := range rows {
		got[i] = Key{Start: r.Start, Item: r.Item}
	}
	assert.Equal(t, []Key{
		{Start: 1, Item: "y"},
		{Start: 1, Item: "z"},
		{Start: 2, Item: "a"},
		{Start: 2, Item: "b"},
		{Start: 3, Item: "B"},
	}, got)
}

func TestRank_BytewiseItemOrder(t *testing.T) {
	s := &State{Streaks: map[Key]*Streak{
		{Start: 1, Item: "a"}:  {Length: 1},
		{Start: 1, Item: "B"}:  {Length: 1},
		{Start: 1, Item: "é"}:  {Length: 1},
		{Start: 1, Item: "10"}: {Length: 1},
		{Start: 1, Item: "9"}:  {Length: 1},
	}}

	rows := Rank(s, 1)

	var got []Item
	for _, r := range rows {
		got = append(got, r.Item)
	}
	assert.Equal(t, []Item{"10", "9", "B", "a", "é"}, got)
}

func TestRank_DeterministicAcrossInsertionOrder(t *testing.T) {
	keys := []Key{
		{Start: 1, Item: "c"}, {Start: 1, Item: "a"}, {Start: 2, Item: "b"},
		{Start: 1, Item: "b"}, {Start: 3, Item: "a"},
	}
	build := func(order []int) *State {
		s := NewState()
		for _, i := range order {
			s.Streaks[keys[i]] = &Streak{Length: 1 + i%2}
		}
		return s
	}

	first := Rank(build([]int{0, 1, 2, 3, 4}), 3)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Rank(build([]int{4, 3, 2, 1, 0}), 3))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		brk    int
		period int
		want   Status
	}{
		{"unbroken", 0, 5, StatusOngoing},
		{"broke before current", 3, 5, StatusBroken},
		{"broke in current", 5, 5, StatusMightBreak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&Streak{Length: 1, Break: tt.brk}, tt.period))
		})
	}
}

func TestFilter(t *testing.T) {
	s := &State{Streaks: map[Key]*Streak{
		{Start: 1, Item: "ongoing"}: {Length: 4},
		{Start: 1, Item: "might"}:   {Length: 3, Break: 4},
		{Start: 1, Item: "broken"}:  {Length: 1, Break: 2},
	}}

	Filter(s, 4)

	assert.Len(t, s.Streaks, 2)
	assert.Contains(t, s.Streaks, Key{Start: 1, Item: "ongoing"})
	assert.Contains(t, s.Streaks, Key{Start: 1, Item: "might"})
}

func TestFilter_NilState(t *testing.T) {
	assert.NotPanics(t, func() { Filter(nil, 1) })
}

func TestRank_NilState(t *testing.T) {
	rows := Rank(nil, 1)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
