package commands

import (
	"context"
	"time"

	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

type ConnectAppCommand struct {
	AppID        identity.ConnectedAppID `json:"app_id"       validate:"required,gt=0"`
	UserID       identity.UserID         `json:"user_id"      validate:"required,gt=0"`
	AccessToken  string                  `json:"access_token" validate:"required"`
	RefreshToken string                  `json:"refresh_token"`
	TokenExpiry  *time.Time              `json:"token_expiry,omitempty"`
}

func (h *Handlers) ConnectApp(ctx context.Context, cmd ConnectAppCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	app, fail := h.loadOwnedApp(ctx, cmd.AppID, cmd.UserID)
	if fail != nil {
		return *fail
	}

	app.Connect(cmd.AccessToken, cmd.RefreshToken, cmd.TokenExpiry)

	if err := h.apps.Update(ctx, app); err != nil {
		return failureErr(err)
	}

	h.publish(ctx, appKey(app.ID), app.DrainEvents())

	result := success()
	result.AppID = app.ID

	return result
}

type DisconnectAppCommand struct {
	AppID  identity.ConnectedAppID `json:"app_id"  validate:"required,gt=0"`
	UserID identity.UserID         `json:"user_id" validate:"required,gt=0"`
}

func (h *Handlers) DisconnectApp(ctx context.Context, cmd DisconnectAppCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	app, fail := h.loadOwnedApp(ctx, cmd.AppID, cmd.UserID)
	if fail != nil {
		return *fail
	}

	app.Disconnect()

	if err := h.apps.Update(ctx, app); err != nil {
		return failureErr(err)
	}

	h.publish(ctx, appKey(app.ID), app.DrainEvents())

	result := success()
	result.AppID = app.ID

	return result
}

type CreateFromTemplateCommand struct {
	TemplateID identity.TemplateID `json:"template_id" validate:"required,gt=0"`
	UserID     identity.UserID     `json:"user_id"     validate:"required,gt=0"`
	Name       string              `json:"name"`
}

// CreateFromTemplate copies a template's configuration into a new draft
// workflow and bumps the template's usage counter.
func (h *Handlers) CreateFromTemplate(ctx context.Context, cmd CreateFromTemplateCommand) Result {
	if err := h.validator.Struct(cmd); err != nil {
		return failureErr(err)
	}

	template, err := h.templates.FindByID(ctx, cmd.TemplateID)
	if err != nil {
		return failureErr(err)
	}

	if template == nil {
		return failure("Template not found")
	}

	name := cmd.Name
	if name == "" {
		name = template.Name
	}

	wf, err := models.NewWorkflow(cmd.UserID, name, template.Description, template.Config.Clone())
	if err != nil {
		return failureErr(err)
	}

	if err := h.workflows.Save(ctx, wf); err != nil {
		return failureErr(err)
	}

	template.RecordUse()

	if err := h.templates.Update(ctx, template); err != nil {
		h.logger.Error("Failed to record template use", "template_id", template.ID, "error", err)
	}

	drained := wf.DrainEvents()
	drained = append(drained, events.TemplateUsed{
		BaseEvent:  events.NewBaseEvent(events.TemplateUsedEvent, wf.ID.Int64(), cmd.UserID.Int64()),
		TemplateID: template.ID.Int64(),
		UseCount:   template.UseCount,
	})
	h.publish(ctx, workflowKey(wf.ID), drained)

	result := success()
	result.WorkflowID = wf.ID

	return result
}

func (h *Handlers) loadOwnedApp(ctx context.Context, appID identity.ConnectedAppID, userID identity.UserID) (*models.ConnectedApp, *Result) {
	app, err := h.apps.FindByID(ctx, appID)
	if err != nil {
		h.logger.Error("Failed to fetch connected app", "app_id", appID, "error", err)
		result := failureErr(err)

		return nil, &result
	}

	if app == nil {
		result := failure("App not found")

		return nil, &result
	}

	if app.UserID != userID {
		result := failure(workflow.ErrUnauthorized.Error())

		return nil, &result
	}

	return app, nil
}
