// Package stats keeps the facility-wide aggregates and derives read-only
// snapshots from them.
//
// Aggregates are incremental: totals, per-category breakdowns and per-day
// completion counters are bumped when an item finishes, so trimming the
// bounded history never changes a reported total. Aggregates is not safe for
// concurrent use; the workflow manager calls it under its own lock.
package stats
