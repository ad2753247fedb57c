// Package identity defines the typed identifiers shared by all aggregates.
package identity

import (
	"errors"
	"strconv"
)

var (
	// ErrInvalidID indicates an identifier that is not a positive number.
	ErrInvalidID = errors.New("identifier must be a positive number")

	// ErrEmptyExecutionID indicates an empty execution identifier.
	ErrEmptyExecutionID = errors.New("execution identifier must be non-empty")
)

// WorkflowID identifies a workflow aggregate. Zero means "not yet persisted";
// the repository assigns the real value on first save.
type WorkflowID int64

// NewWorkflowID validates and wraps a raw workflow identifier.
func NewWorkflowID(raw int64) (WorkflowID, error) {
	if raw <= 0 {
		return 0, ErrInvalidID
	}

	return WorkflowID(raw), nil
}

// ParseWorkflowID parses a workflow identifier from its decimal string form.
func ParseWorkflowID(raw string) (WorkflowID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}

	return NewWorkflowID(n)
}

func (id WorkflowID) Int64() int64   { return int64(id) }
func (id WorkflowID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id WorkflowID) IsZero() bool   { return id == 0 }

// UserID identifies the owner of an aggregate.
type UserID int64

// NewUserID validates and wraps a raw user identifier.
func NewUserID(raw int64) (UserID, error) {
	if raw <= 0 {
		return 0, ErrInvalidID
	}

	return UserID(raw), nil
}

// ParseUserID parses a user identifier from its decimal string form.
func ParseUserID(raw string) (UserID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}

	return NewUserID(n)
}

func (id UserID) Int64() int64   { return int64(id) }
func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

// ConnectedAppID identifies a connected-app aggregate.
type ConnectedAppID int64

// NewConnectedAppID validates and wraps a raw connected-app identifier.
func NewConnectedAppID(raw int64) (ConnectedAppID, error) {
	if raw <= 0 {
		return 0, ErrInvalidID
	}

	return ConnectedAppID(raw), nil
}

// ParseConnectedAppID parses a connected-app identifier from its decimal
// string form.
func ParseConnectedAppID(raw string) (ConnectedAppID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}

	return NewConnectedAppID(n)
}

func (id ConnectedAppID) Int64() int64   { return int64(id) }
func (id ConnectedAppID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id ConnectedAppID) IsZero() bool   { return id == 0 }

// TemplateID identifies a workflow template.
type TemplateID int64

// NewTemplateID validates and wraps a raw template identifier.
func NewTemplateID(raw int64) (TemplateID, error) {
	if raw <= 0 {
		return 0, ErrInvalidID
	}

	return TemplateID(raw), nil
}

// ParseTemplateID parses a template identifier from its decimal string form.
func ParseTemplateID(raw string) (TemplateID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}

	return NewTemplateID(n)
}

func (id TemplateID) Int64() int64   { return int64(id) }
func (id TemplateID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id TemplateID) IsZero() bool   { return id == 0 }

// ExecutionID identifies one run of a workflow. Generated per run, unique
// within the process.
type ExecutionID string

// NewExecutionID validates and wraps a raw execution identifier.
func NewExecutionID(raw string) (ExecutionID, error) {
	if raw == "" {
		return "", ErrEmptyExecutionID
	}

	return ExecutionID(raw), nil
}

func (id ExecutionID) String() string { return string(id) }
