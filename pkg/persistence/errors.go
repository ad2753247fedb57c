// Package persistence provides standardized error types for persistence
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given
	// identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrAppNotFound indicates a connected app was not found by the given
	// identifier.
	ErrAppNotFound = errors.New("connected app not found")

	// ErrTemplateNotFound indicates a template was not found by the given
	// identifier.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrVersionConflict indicates a concurrent update clobbered the caller's
	// copy of the aggregate.
	ErrVersionConflict = errors.New("aggregate version conflict")

	// ErrMissingID indicates an update or delete was attempted on an
	// aggregate that was never saved.
	ErrMissingID = errors.New("aggregate has no identifier")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "FindByID", "Update")
	WorkflowID int64  // Workflow ID if applicable
	Err        error  // Underlying error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %d: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op string, workflowID int64, err error) *WorkflowError {
	return &WorkflowError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// AppError wraps connected-app errors with additional context.
type AppError struct {
	Op    string
	AppID int64
	Err   error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s operation failed for app %d: %v", e.Op, e.AppID, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsAppNotFound checks if an error indicates a connected app was not found.
func IsAppNotFound(err error) bool {
	return errors.Is(err, ErrAppNotFound)
}

// IsTemplateNotFound checks if an error indicates a template was not found.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsVersionConflict checks if an error indicates a concurrent update clash.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
