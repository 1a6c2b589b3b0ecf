// Package instances maintains the derived instances view.
//
// The materializer is a transaction-end task: it scans every task flagged
// instances-stale, recomputes the derived start/due/duration/sorting fields
// from the task's own date fields, upserts the instance row, and clears the
// flag - all inside the same transaction as the triggering mutation, so the
// derived view always reflects the latest committed entity state.
//
// Timed values sort in one common zone; all-day values sort by their literal
// calendar instant irrespective of viewer timezone. The materializer computes
// both representations (see sortKey).
//
// Recurrence expansion is not implemented here: an Expander collaborator
// yields the occurrence set for a rule, and the default expander yields
// exactly the base occurrence.
package instances
