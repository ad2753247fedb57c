package commands

import (
	"context"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

type CreateWorkflowCommand struct {
	UserID      identity.UserID       `json:"user_id"     validate:"required,gt=0"`
	Name        string                `json:"name"        validate:"required,min=1"`
	Description string                `json:"description"`
	Config      models.WorkflowConfig `json:"config"`
	Icon        string                `json:"icon"`
	IconColor   string                `json:"icon_color"`
}

func (h *Handlers) CreateWorkflow(ctx context.Context, cmd CreateWorkflowCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	wf, err := models.NewWorkflow(cmd.UserID, cmd.Name, cmd.Description, cmd.Config)
	if err != nil {
		return failureErr(err)
	}

	wf.UpdateDetails(cmd.Name, cmd.Description, cmd.Icon, cmd.IconColor)

	if err := h.workflows.Save(ctx, wf); err != nil {
		h.logger.Error("Failed to save workflow", "error", err)

		return failureErr(err)
	}

	h.publish(ctx, workflowKey(wf.ID), wf.DrainEvents())

	result := success()
	result.WorkflowID = wf.ID

	return result
}

type UpdateWorkflowCommand struct {
	WorkflowID  identity.WorkflowID    `json:"workflow_id" validate:"required,gt=0"`
	UserID      identity.UserID        `json:"user_id"     validate:"required,gt=0"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Icon        string                 `json:"icon"`
	IconColor   string                 `json:"icon_color"`
	Config      *models.WorkflowConfig `json:"config,omitempty"`
}

func (h *Handlers) UpdateWorkflow(ctx context.Context, cmd UpdateWorkflowCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	wf, fail := h.loadOwnedWorkflow(ctx, cmd.WorkflowID, cmd.UserID)
	if fail != nil {
		return *fail
	}

	wf.UpdateDetails(cmd.Name, cmd.Description, cmd.Icon, cmd.IconColor)

	if cmd.Config != nil {
		wf.UpdateConfig(*cmd.Config)
	}

	if err := h.workflows.Update(ctx, wf); err != nil {
		return failureErr(err)
	}

	h.publish(ctx, workflowKey(wf.ID), wf.DrainEvents())

	result := success()
	result.WorkflowID = wf.ID

	return result
}

type ActivateWorkflowCommand struct {
	WorkflowID identity.WorkflowID `json:"workflow_id" validate:"required,gt=0"`
	UserID     identity.UserID     `json:"user_id"     validate:"required,gt=0"`
}

func (h *Handlers) ActivateWorkflow(ctx context.Context, cmd ActivateWorkflowCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	wf, fail := h.loadOwnedWorkflow(ctx, cmd.WorkflowID, cmd.UserID)
	if fail != nil {
		return *fail
	}

	if err := wf.Activate(); err != nil {
		return failureErr(err)
	}

	if err := h.workflows.Update(ctx, wf); err != nil {
		return failureErr(err)
	}

	h.publish(ctx, workflowKey(wf.ID), wf.DrainEvents())

	result := success()
	result.WorkflowID = wf.ID

	return result
}

type PauseWorkflowCommand struct {
	WorkflowID identity.WorkflowID `json:"workflow_id" validate:"required,gt=0"`
	UserID     identity.UserID     `json:"user_id"     validate:"required,gt=0"`
}

func (h *Handlers) PauseWorkflow(ctx context.Context, cmd PauseWorkflowCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	wf, fail := h.loadOwnedWorkflow(ctx, cmd.WorkflowID, cmd.UserID)
	if fail != nil {
		return *fail
	}

	if err := wf.Pause(); err != nil {
		return failureErr(err)
	}

	if err := h.workflows.Update(ctx, wf); err != nil {
		return failureErr(err)
	}

	h.publish(ctx, workflowKey(wf.ID), wf.DrainEvents())

	result := success()
	result.WorkflowID = wf.ID

	return result
}

type ExecuteWorkflowCommand struct {
	WorkflowID  identity.WorkflowID `json:"workflow_id" validate:"required,gt=0"`
	UserID      identity.UserID     `json:"user_id"     validate:"required,gt=0"`
	IPAddress   string              `json:"ip_address"`
	TriggerData map[string]any      `json:"trigger_data,omitempty"`
}

func (h *Handlers) ExecuteWorkflow(ctx context.Context, cmd ExecuteWorkflowCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	execution, err := h.executor.ExecuteWorkflow(ctx, cmd.WorkflowID, cmd.UserID, workflow.ExecuteOptions{
		IPAddress:   cmd.IPAddress,
		TriggerData: cmd.TriggerData,
	})
	if err != nil {
		return failureErr(err)
	}

	result := Result{
		Success:      execution.Success,
		ErrorMessage: execution.ErrorMessage,
		WorkflowID:   cmd.WorkflowID,
	}
	if execution.Execution != nil {
		result.ExecutionID = execution.Execution.ID
	}

	return result
}

type DeleteWorkflowCommand struct {
	WorkflowID identity.WorkflowID `json:"workflow_id" validate:"required,gt=0"`
	UserID     identity.UserID     `json:"user_id"     validate:"required,gt=0"`
}

func (h *Handlers) DeleteWorkflow(ctx context.Context, cmd DeleteWorkflowCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	wf, fail := h.loadOwnedWorkflow(ctx, cmd.WorkflowID, cmd.UserID)
	if fail != nil {
		return *fail
	}

	if err := wf.MarkForDeletion(); err != nil {
		return failureErr(err)
	}

	if err := h.workflows.Delete(ctx, wf.ID); err != nil {
		return failureErr(err)
	}

	h.publish(ctx, workflowKey(wf.ID), wf.DrainEvents())

	result := success()
	result.WorkflowID = wf.ID

	return result
}

type CloneWorkflowCommand struct {
	WorkflowID identity.WorkflowID `json:"workflow_id" validate:"required,gt=0"`
	UserID     identity.UserID     `json:"user_id"     validate:"required,gt=0"`
	NewName    string              `json:"new_name"    validate:"required,min=1"`
}

func (h *Handlers) CloneWorkflow(ctx context.Context, cmd CloneWorkflowCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	wf, fail := h.loadOwnedWorkflow(ctx, cmd.WorkflowID, cmd.UserID)
	if fail != nil {
		return *fail
	}

	clone := wf.Clone(cmd.NewName)

	if err := h.workflows.Save(ctx, clone); err != nil {
		return failureErr(err)
	}

	h.publish(ctx, workflowKey(clone.ID), clone.DrainEvents())

	result := success()
	result.WorkflowID = clone.ID

	return result
}
