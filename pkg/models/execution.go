package models

import (
	"time"

	"github.com/flowdeck/flowdeck/pkg/identity"
)

// ExecutionStatus is the terminal state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// LogLevel classifies an execution log entry.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ExecutionLog is one entry in the ordered log of a workflow run. Entries are
// ordered by step start time within a single run.
type ExecutionLog struct {
	StepID    string         `json:"step_id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
}

// WorkflowExecution is the transient record of one run of a workflow's steps.
// The aggregate creates it in the running state; the execution service drives
// it to completion.
type WorkflowExecution struct {
	ID          identity.ExecutionID `json:"id"`
	WorkflowID  identity.WorkflowID  `json:"workflow_id"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	Status      ExecutionStatus      `json:"status"`
	Logs        []ExecutionLog       `json:"logs"`
}

// AppendLog appends an entry to the execution log.
func (e *WorkflowExecution) AppendLog(stepID string, level LogLevel, message string, data map[string]any) {
	e.Logs = append(e.Logs, ExecutionLog{
		StepID:    stepID,
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Data:      data,
	})
}

// Complete marks the execution as completed.
func (e *WorkflowExecution) Complete() {
	now := time.Now().UTC()
	e.CompletedAt = &now
	e.Status = ExecutionStatusCompleted
}

// Fail marks the execution as failed.
func (e *WorkflowExecution) Fail() {
	now := time.Now().UTC()
	e.CompletedAt = &now
	e.Status = ExecutionStatusFailed
}

// ExecutionContext carries the accumulated state of a run across step
// executors. StepResults is keyed by step ID and holds each completed step's
// output.
type ExecutionContext struct {
	ExecutionID identity.ExecutionID      `json:"execution_id"`
	WorkflowID  identity.WorkflowID       `json:"workflow_id"`
	UserID      identity.UserID           `json:"user_id"`
	TriggerData map[string]any            `json:"trigger_data,omitempty"`
	StepResults map[string]map[string]any `json:"step_results"`
}

// Duration returns the elapsed time of the run, up to now for a still-running
// execution.
func (e *WorkflowExecution) Duration() time.Duration {
	if e.CompletedAt != nil {
		return e.CompletedAt.Sub(e.StartedAt)
	}

	return time.Since(e.StartedAt)
}
