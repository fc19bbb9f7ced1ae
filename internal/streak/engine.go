package streak

import (
	"log/slog"
)

// Options controls a Compute call.
type Options struct {
	// Prior is the state to resume from. Nil starts fresh.
	// Compute never mutates it.
	Prior *State

	// StartPeriod is the period number of the first set. Zero means
	// "continue after the prior state's last period".
	StartPeriod int

	// ExcludeBroken drops streaks that broke before the current period.
	ExcludeBroken bool

	// Raw skips ranking; Result.Rows is nil.
	Raw bool
}

// Result is the outcome of a Compute call.
type Result struct {
	// State is the updated (and, with ExcludeBroken, filtered) state.
	State *State

	// Period is the last period processed by this call.
	Period int

	// Rows is the ranked table, nil when Options.Raw is set.
	Rows []Row
}

// Compute processes sets in order on top of opts.Prior and returns the
// updated state and, unless opts.Raw is set, the ranked rows.
//
// Returns a *ValidationError when opts.StartPeriod is inconsistent with the
// prior state's last period.
func Compute(sets [][]Item, opts Options) (*Result, error) {
	last := opts.Prior.LastPeriod()
	if err := validateStartPeriod(opts.StartPeriod, last); err != nil {
		return nil, err
	}

	start := last
	if opts.StartPeriod != 0 {
		start = opts.StartPeriod - 1
	}

	p := newPass(opts.Prior.Clone(), last, start)
	for _, set := range sets {
		p.apply(set)
	}

	// Reprocessing with no sets leaves the prior last period current.
	period := max(p.clock.Current(), last)
	if opts.ExcludeBroken {
		Filter(p.state, period)
	}

	slog.Debug("streaks computed",
		"sets", len(sets),
		"prior_last_period", last,
		"period", period,
		"streaks", p.state.Len())

	res := &Result{State: p.state, Period: period}
	if !opts.Raw {
		res.Rows = Rank(p.state, period)
	}
	return res, nil
}

// pass is one incremental update over a state.
type pass struct {
	state *State
	clock *Clock

	// horizon is the prior last period. Periods at or below it are
	// reprocessed rather than appended.
	horizon int

	// active maps each item with an open streak to that streak's start.
	// Items that broke in the horizon period stay active only while the
	// horizon is being reprocessed.
	active map[Item]int

	settled bool
}

func newPass(state *State, horizon, start int) *pass {
	p := &pass{
		state:   state,
		clock:   NewClockAt(start),
		horizon: horizon,
		active:  make(map[Item]int),
	}
	for k, st := range state.Streaks {
		if st.Break == 0 || st.Break == horizon {
			p.active[k.Item] = k.Start
		}
	}
	return p
}

// apply processes the set for the next period.
func (p *pass) apply(set []Item) {
	period := p.clock.Next()
	if period > p.horizon && !p.settled {
		p.settle()
	}

	present := make(map[Item]struct{}, len(set))
	for _, item := range set {
		present[item] = struct{}{}
	}

	started := make(map[Item]struct{})
	for item := range present {
		if _, ok := p.active[item]; ok {
			continue
		}
		p.state.Streaks[Key{Start: period, Item: item}] = &Streak{Length: 1}
		p.active[item] = period
		started[item] = struct{}{}
	}

	for item, start := range p.active {
		st := p.state.Streaks[Key{Start: start, Item: item}]
		if _, ok := present[item]; ok {
			if period > p.horizon {
				if _, isNew := started[item]; !isNew {
					st.Length++
				}
			} else {
				st.Break = 0
			}
			continue
		}
		if st.Break == 0 {
			st.Break = period
		}
		delete(p.active, item)
	}
}

// settle drops items whose break in the horizon period was not revised,
// so appended periods start fresh streaks for them.
func (p *pass) settle() {
	for item, start := range p.active {
		if p.state.Streaks[Key{Start: start, Item: item}].Break != 0 {
			delete(p.active, item)
		}
	}
	p.settled = true
}
