// Package streak implements the streak-ranking engine.
//
// The engine consumes an ordered sequence of periods, each holding the set of
// items observed during that period, and tracks for every item the runs of
// consecutive periods in which it appeared. The result is either the raw
// streak state (for caching and later resumption) or a ranked table of rows.
//
// ARCHITECTURE:
//
// One synchronous pass per call:
// 1. Ingest the prior state (if any) and validate the requested start period
// 2. Walk the new periods in order, starting, extending and breaking streaks
// 3. Optionally drop streaks that broke before the current period
// 4. Project the remaining streaks into rows and sort them
//
// Compute never mutates the prior state it is given. Every call is a pure
// function of (prior state, period sets, options). Callers that share a
// State across goroutines must serialize access themselves.
//
// PERIODS:
//
// Periods are 1-based. The zero period never occurs, so a zero Break means
// the streak is unbroken.
//
// Resuming with StartPeriod equal to the prior last period reprocesses that
// period: presence clears a tentative break recorded by the earlier run, and
// lengths are not incremented a second time. Absence in a reprocessed period
// records a break only if none is set; an existing might-break mark is not
// rolled back to ongoing.
//
// ORDERING:
//
// Rows are sorted by length descending, start ascending, then item ascending
// (bytewise). The order is total, so map iteration order never leaks into
// the output.
package streak
