// Package store provides SQLite-backed caching of streak states.
//
// The store keeps:
//   - States: one row per named state with its last period and hash
//   - Streaks: the (start, item) → (length, break) rows of each state
//   - Runs: an append-only log of the computations that saved a state
//
// # Critical Patterns
//
// Atomic Replace:
//   - SaveState rewrites a state's streaks and appends its run record in a
//     single transaction, so readers see either the old or the new state
//
// Logical Time:
//   - Runs are ordered by a per-name seq INTEGER, NEVER timestamps
//   - Run IDs are UUIDv7 for correlation only
//
// Deterministic Query Results:
//   - Streak queries use ORDER BY start_period ASC, item COLLATE BINARY ASC
//   - Run queries use ORDER BY seq ASC, id COLLATE BINARY ASC
//
// Integrity:
//   - Every state row carries the snapshot hash of its streaks; LoadState
//     recomputes it and refuses mismatching data
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
