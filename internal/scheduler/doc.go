// Package scheduler implements the backlog's scheduling policy on top of the
// features store: priority-ordered selection with crash resumption, the
// failure-driven auto-skip rule, outcome recording, bulk loading, and stats.
//
// One scheduler operation corresponds to one caller round-trip. Each
// operation reads and mutates store state atomically and returns a result
// snapshot; no operation spans multiple round-trips. Domain outcomes that are
// not faults (blocked backlog, empty backlog, already-passing skip target)
// are reported as typed results or sentinel errors, never panics.
package scheduler
