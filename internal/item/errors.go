package item

import "errors"

// Sentinel errors shared by the coordinator and its adapters. Callers match
// them with errors.Is.
var (
	// ErrInvalidInput covers bad time/date strings, a missing reminder
	// name, an empty weekly day set, and duplicate reminder names.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the id does not exist. Adapters treat it as a
	// soft "nothing to do", not a hard failure.
	ErrNotFound = errors.New("item not found")

	// ErrTypeMismatch means an alarm operation was aimed at a reminder
	// or vice versa. The operation is aborted.
	ErrTypeMismatch = errors.New("item type mismatch")
)
