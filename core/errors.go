package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned by data-dependent operations when no dataset is
	// attached to the session. It is non-fatal: callers may attach a dataset
	// and retry.
	ErrNoData = errors.New("no data loaded")
)

// UnknownIDError is returned when a requested item id is absent from the
// dataset. An explicitly requested unknown id fails the whole lookup or run;
// it is never silently dropped.
type UnknownIDError struct {
	ID ItemID `json:"id"` // The id that could not be resolved
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown item id %q", string(e.ID))
}

// InvalidAnswerError reports an answer that failed its task kind's
// validation. It names the offending task and carries the raw input so the
// failure can be surfaced back to the reviewer verbatim.
type InvalidAnswerError struct {
	Task   string `json:"task"`   // Name of the task whose validation failed
	Raw    any    `json:"raw"`    // Value as supplied by the annotator
	Reason string `json:"reason"` // Human-readable validation failure
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer for task %q: %s (got %v)", e.Task, e.Reason, e.Raw)
}

// PersistenceError wraps failures while encoding, decoding or restoring a
// session snapshot. A failed load never partially populates a session.
type PersistenceError struct {
	Op  string // "encode", "decode", "restore", ...
	Err error  // Underlying cause
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *PersistenceError) Unwrap() error { return e.Err }
