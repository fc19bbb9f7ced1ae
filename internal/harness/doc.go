// Package harness runs streak scenarios as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: resume_append
//	description: "Appending after a stored state continues the streak"
//	steps:
//	  - periods: [[A, B], [A]]
//	  - resume: true
//	    periods: [[A, B]]
//	  - resume: true
//	    start_period: 9
//	    expect_error: START_PERIOD_MISMATCH
//	expect:
//	  - { item: A, start: 1, length: 3, status: ongoing }
//	assertions:
//	  - type: row_contains
//	    item: B
//	    status: broken
//
// Each step computes over its periods. A step with resume set starts from
// the state left by the last successful step; otherwise it starts fresh.
// Resumed state is read back from the scenario's in-memory store and
// round-tripped through the snapshot codec, so scenarios also cover
// persistence.
//
// expect lists the final ranked rows in order and must match exactly.
//
// # Assertion Types
//
//   - row_contains: a row matching item and any of start, length, status exists
//   - row_order: the first rows of the listed items appear in that order
//   - row_count: exactly count rows exist, optionally only those with status
//   - period: the final period equals period
//
// # Golden Files
//
// The final rows are serialized as canonical JSON and compared against
// testdata/scenarios/golden/<name>.golden.
package harness
