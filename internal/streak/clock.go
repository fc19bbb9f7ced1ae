package streak

// Clock is the running period counter of one update pass.
//
// Periods are stamped from this counter in input order: the first call to
// Next after NewClockAt(n) returns n+1. Clock is not safe for concurrent use;
// a pass runs on a single goroutine.
type Clock struct {
	period int
}

// NewClockAt creates a clock whose current period is start.
func NewClockAt(start int) *Clock {
	return &Clock{period: start}
}

// Next advances the clock and returns the new period.
func (c *Clock) Next() int {
	c.period++
	return c.period
}

// Current returns the current period without advancing.
func (c *Clock) Current() int {
	return c.period
}
