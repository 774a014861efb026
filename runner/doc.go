// Package runner implements the session controller of labelloop.
//
// The Runner walks an ordered work list of item ids, delegates presentation
// to an injected annotator, validates and commits the returned answer sets
// into the session's ledger, and supports clean early termination. The work
// list is recomputed from current ledger state on every Run call, so
// previously committed items are skipped unless redo is requested; the run
// cursor is runner-local and never persisted.
//
// # Responsibilities (abridged)
//   - Work list resolution (explicit ids or all dataset ids, minus committed)
//   - Per-item presentation, validation and all-or-nothing commits
//   - Re-presentation of the same item after a validation failure
//   - Cooperative stop and context cancellation between items
//   - Lifecycle hooks (before item, after commit) and periodic autosave
//
// See runner.go for the operational implementation details.
package runner
