package models

import (
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/google/uuid"
)

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft  WorkflowStatus = "draft"  // Initial, editable, not executable
	WorkflowStatusActive WorkflowStatus = "active" // Executable
	WorkflowStatusPaused WorkflowStatus = "paused" // Temporarily not executable
	WorkflowStatusError  WorkflowStatus = "error"  // Last run faulted
)

// Workflow is the aggregate root for a user's automation. All state
// transitions go through its methods; external code never mutates fields
// directly. Domain events accumulate on the aggregate and must be drained
// and dispatched after a successful persistence write.
type Workflow struct {
	ID             identity.WorkflowID `json:"id"`
	UserID         identity.UserID     `json:"user_id"    validate:"required"`
	Name           string              `json:"name"       validate:"required,min=1"`
	Description    string              `json:"description"`
	Status         WorkflowStatus      `json:"status"     validate:"required"`
	Config         WorkflowConfig      `json:"config"`
	Icon           string              `json:"icon,omitempty"`
	IconColor      string              `json:"icon_color,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	LastRun        *time.Time          `json:"last_run,omitempty"`
	ExecutionCount int64               `json:"execution_count"`
	Version        int64               `json:"version"` // Bumped by the repository on every update

	pending []events.Event
}

// NewWorkflow creates a draft workflow owned by userID and records a
// WorkflowCreated event. The repository assigns the identifier on first save.
func NewWorkflow(userID identity.UserID, name, description string, config WorkflowConfig) (*Workflow, error) {
	if userID <= 0 {
		return nil, identity.ErrInvalidID
	}

	if name == "" {
		return nil, fmt.Errorf("workflow name must be non-empty")
	}

	now := time.Now().UTC()
	w := &Workflow{
		UserID:      userID,
		Name:        name,
		Description: description,
		Status:      WorkflowStatusDraft,
		Config:      config,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.record(events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, 0, userID.Int64()),
		Name:      name,
	})

	return w, nil
}

// Activate transitions the workflow to active. A workflow with zero steps
// cannot reach active.
func (w *Workflow) Activate() error {
	if len(w.Config.Steps) == 0 {
		return ErrWorkflowWithoutSteps
	}

	old := w.Status
	w.Status = WorkflowStatusActive
	w.touch()
	w.recordStatusChange(old, WorkflowStatusActive, "")

	return nil
}

// Pause transitions an active workflow to paused.
func (w *Workflow) Pause() error {
	if w.Status != WorkflowStatusActive {
		return ErrWorkflowNotActive
	}

	w.Status = WorkflowStatusPaused
	w.touch()
	w.recordStatusChange(WorkflowStatusActive, WorkflowStatusPaused, "")

	return nil
}

// MarkAsError records a fault on the workflow. Allowed from any state; it
// does not roll back the execution counter or last-run timestamp.
func (w *Workflow) MarkAsError(reason string) {
	old := w.Status
	w.Status = WorkflowStatusError
	w.touch()
	w.recordStatusChange(old, WorkflowStatusError, reason)
}

// Execute starts a new run. Only an active workflow can execute. It allocates
// an execution identifier, bumps the execution bookkeeping and returns a
// running execution record with empty logs; the execution service drives the
// run to completion.
func (w *Workflow) Execute(ipAddress string) (*WorkflowExecution, error) {
	if w.Status != WorkflowStatusActive {
		return nil, ErrWorkflowNotActive
	}

	now := time.Now().UTC()
	execution := &WorkflowExecution{
		ID:         newExecutionID(),
		WorkflowID: w.ID,
		StartedAt:  now,
		Status:     ExecutionStatusRunning,
		Logs:       []ExecutionLog{},
	}

	w.LastRun = &now
	w.ExecutionCount++
	w.touch()

	w.record(events.WorkflowExecuted{
		BaseEvent:   events.NewBaseEvent(events.WorkflowExecutedEvent, w.ID.Int64(), w.UserID.Int64()),
		ExecutionID: execution.ID.String(),
		IPAddress:   ipAddress,
	})

	return execution, nil
}

// MarkForDeletion records the intent to delete the workflow. Only draft or
// paused workflows are eligible; the repository finalizes the removal.
func (w *Workflow) MarkForDeletion() error {
	if w.Status != WorkflowStatusDraft && w.Status != WorkflowStatusPaused {
		return ErrWorkflowNotDeletable
	}

	w.record(events.WorkflowDeleted{
		BaseEvent: events.NewBaseEvent(events.WorkflowDeletedEvent, w.ID.Int64(), w.UserID.Int64()),
		Name:      w.Name,
	})

	return nil
}

// UpdateDetails replaces the display attributes. It never changes status.
func (w *Workflow) UpdateDetails(name, description, icon, iconColor string) {
	if name != "" {
		w.Name = name
	}

	w.Description = description

	if icon != "" {
		w.Icon = icon
	}

	if iconColor != "" {
		w.IconColor = iconColor
	}

	w.touch()
}

// UpdateConfig replaces the workflow configuration. It never changes status.
func (w *Workflow) UpdateConfig(config WorkflowConfig) {
	w.Config = config
	w.touch()
}

// Clone produces a new draft workflow with a deep copy of the configuration,
// a zeroed execution counter and no identifier; the repository assigns one
// on save.
func (w *Workflow) Clone(newName string) *Workflow {
	now := time.Now().UTC()
	clone := &Workflow{
		UserID:      w.UserID,
		Name:        newName,
		Description: "Copy of " + w.Description,
		Status:      WorkflowStatusDraft,
		Config:      w.Config.Clone(),
		Icon:        w.Icon,
		IconColor:   w.IconColor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	clone.record(events.WorkflowCreated{
		BaseEvent: events.NewBaseEvent(events.WorkflowCreatedEvent, 0, w.UserID.Int64()),
		Name:      newName,
	})

	return clone
}

// Events returns the buffered domain events without draining them.
func (w *Workflow) Events() []events.Event {
	return w.pending
}

// DrainEvents returns the buffered domain events and clears the buffer. The
// caller dispatches them after a successful persistence write.
func (w *Workflow) DrainEvents() []events.Event {
	drained := w.pending
	w.pending = nil

	return drained
}

func (w *Workflow) record(e events.Event) {
	w.pending = append(w.pending, e)
}

func (w *Workflow) recordStatusChange(old, updated WorkflowStatus, reason string) {
	w.record(events.WorkflowStatusChanged{
		BaseEvent: events.NewBaseEvent(events.WorkflowStatusChangedEvent, w.ID.Int64(), w.UserID.Int64()),
		OldStatus: string(old),
		NewStatus: string(updated),
		Reason:    reason,
	})
}

func (w *Workflow) touch() {
	w.UpdatedAt = time.Now().UTC()
}

// newExecutionID allocates a run identifier unique within the process.
func newExecutionID() identity.ExecutionID {
	raw := fmt.Sprintf("exec_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])

	return identity.ExecutionID(raw)
}
