package domain

import "errors"

// Error taxonomy surfaced to callers. Layers wrap these with %w so the HTTP
// handler can map them with errors.Is; anything else is an internal failure.
var (
	// ErrValidation marks malformed input, e.g. an unparsable file or a bad
	// filter value.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized marks a caller whose role lacks the capability.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound marks a reference to an import that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state-transition precondition violated by a race
	// or a resubmission.
	ErrConflict = errors.New("status conflict")
)
