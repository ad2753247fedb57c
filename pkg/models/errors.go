// Package models defines the core domain aggregates for workflow automation.
package models

import "errors"

// Precondition violations raised by the aggregates themselves. Handlers
// convert them into failure results; they never crash the process.
var (
	// ErrWorkflowWithoutSteps indicates an activation attempt on a workflow
	// that has no steps configured.
	ErrWorkflowWithoutSteps = errors.New("cannot activate a workflow without steps")

	// ErrWorkflowNotActive indicates a pause or execute attempt on a workflow
	// that is not currently active.
	ErrWorkflowNotActive = errors.New("workflow is not active")

	// ErrWorkflowNotDeletable indicates a deletion attempt on a workflow that
	// is neither draft nor paused.
	ErrWorkflowNotDeletable = errors.New("only draft or paused workflows can be deleted")

	// ErrNoRefreshToken indicates a token refresh attempt on an app that
	// holds no refresh token.
	ErrNoRefreshToken = errors.New("cannot refresh tokens without a refresh token")

	// ErrAppNotConnected indicates a token mutation on a disconnected app.
	ErrAppNotConnected = errors.New("app is not connected")
)

// IsPreconditionViolation reports whether err is an invalid state transition
// raised by an aggregate.
func IsPreconditionViolation(err error) bool {
	return errors.Is(err, ErrWorkflowWithoutSteps) ||
		errors.Is(err, ErrWorkflowNotActive) ||
		errors.Is(err, ErrWorkflowNotDeletable) ||
		errors.Is(err, ErrNoRefreshToken) ||
		errors.Is(err, ErrAppNotConnected)
}
