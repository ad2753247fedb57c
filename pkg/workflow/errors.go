package workflow

import "errors"

var (
	// ErrUnauthorized is returned when a workflow belongs to a different user
	// than the one requesting the operation. Callers must surface it the same
	// way regardless of whether the workflow exists.
	ErrUnauthorized = errors.New("unauthorized")
)
