// Package commands contains the write-side handlers. Each handler is a thin
// adapter: validate input, load the aggregate, invoke its method, persist and
// publish the drained events. Business rules live in the aggregates and the
// execution service; handlers only translate their outcomes into a uniform
// result envelope.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/flowdeck/flowdeck/pkg/eventbus"
	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

// Result is the uniform outcome envelope of every command. A domain fault
// never escapes a handler as a panic or error; it surfaces here with Success
// false and the fault's message.
type Result struct {
	Success      bool                    `json:"success"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	WorkflowID   identity.WorkflowID     `json:"workflow_id,omitempty"`
	ExecutionID  identity.ExecutionID    `json:"execution_id,omitempty"`
	AppID        identity.ConnectedAppID `json:"app_id,omitempty"`
}

// Handlers hosts all command handlers over shared dependencies.
type Handlers struct {
	workflows persistence.WorkflowRepository
	apps      persistence.ConnectedAppRepository
	templates persistence.TemplateRepository
	executor  *workflow.ExecutionService
	publisher eventbus.EventPublisher
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandlers(
	store persistence.Persistence,
	executor *workflow.ExecutionService,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		workflows: store.WorkflowRepository(),
		apps:      store.ConnectedAppRepository(),
		templates: store.TemplateRepository(),
		executor:  executor,
		publisher: publisher,
		validator: validator.New(),
		logger:    logger.With("module", "commands"),
	}
}

func success() Result {
	return Result{Success: true}
}

func failure(message string) Result {
	return Result{Success: false, ErrorMessage: message}
}

func failureErr(err error) Result {
	return failure(err.Error())
}

// loadOwnedWorkflow loads a workflow and enforces ownership. The second
// return value carries the failure envelope when loading fails.
func (h *Handlers) loadOwnedWorkflow(ctx context.Context, workflowID identity.WorkflowID, userID identity.UserID) (*models.Workflow, *Result) {
	wf, err := h.workflows.FindByID(ctx, workflowID)
	if err != nil {
		h.logger.Error("Failed to fetch workflow", "workflow_id", workflowID, "error", err)
		result := failureErr(err)

		return nil, &result
	}

	if wf == nil {
		result := failure("Workflow not found")

		return nil, &result
	}

	if wf.UserID != userID {
		result := failure(workflow.ErrUnauthorized.Error())

		return nil, &result
	}

	return wf, nil
}

func (h *Handlers) publish(ctx context.Context, key string, drained []events.Event) {
	if h.publisher == nil {
		return
	}

	for _, event := range drained {
		if err := h.publisher.Publish(ctx, key, event); err != nil {
			h.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
		}
	}
}

func workflowKey(id identity.WorkflowID) string {
	return fmt.Sprintf("%d", id.Int64())
}

func appKey(id identity.ConnectedAppID) string {
	return fmt.Sprintf("%d", id.Int64())
}
