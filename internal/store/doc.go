// Package store provides the SQLite-backed journal of plot commits.
//
// The journal is append-only:
//   - Commits: one row per command that changed the plot
//   - Changes: the operations applied by a commit, in application order
//
// # Ordering
//
// Commits are stamped with seq, one past the highest recorded value,
// assigned by the same statement that inserts the commit. Stores sharing a
// journal file therefore never collide. All queries order by seq, never by
// wall time, so history reads back identically across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
