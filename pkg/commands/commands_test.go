package commands

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/persistence/file"
	"github.com/flowdeck/flowdeck/pkg/registry"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

func newTestHandlers(t *testing.T) (*Handlers, persistence.Persistence) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())
	executor := workflow.NewExecutionService(
		store.WorkflowRepository(),
		store.ConnectedAppRepository(),
		registry.NewDefaultRegistry(slog.Default()),
		nil,
		nil,
		slog.Default(),
	)

	return NewHandlers(store, executor, nil, slog.Default()), store
}

func createWorkflow(t *testing.T, handlers *Handlers, steps []models.WorkflowStep) Result {
	t.Helper()

	result := handlers.CreateWorkflow(t.Context(), CreateWorkflowCommand{
		UserID: 1,
		Name:   "My Workflow",
		Config: models.WorkflowConfig{Steps: steps},
	})
	require.True(t, result.Success, result.ErrorMessage)

	return result
}

func TestCreateWorkflow(t *testing.T) {
	handlers, store := newTestHandlers(t)

	result := createWorkflow(t, handlers, nil)
	assert.NotZero(t, result.WorkflowID)

	stored, err := store.WorkflowRepository().FindByID(t.Context(), result.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusDraft, stored.Status)
}

func TestCreateWorkflowRejectsMissingName(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	result := handlers.CreateWorkflow(t.Context(), CreateWorkflowCommand{UserID: 1})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestActivateWorkflowWithoutStepsFails(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	created := createWorkflow(t, handlers, nil)

	result := handlers.ActivateWorkflow(t.Context(), ActivateWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "without steps")
}

func TestActivateAndPauseWorkflow(t *testing.T) {
	handlers, store := newTestHandlers(t)

	created := createWorkflow(t, handlers, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
	})

	result := handlers.ActivateWorkflow(t.Context(), ActivateWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	require.True(t, result.Success, result.ErrorMessage)

	stored, err := store.WorkflowRepository().FindByID(t.Context(), created.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusActive, stored.Status)

	result = handlers.PauseWorkflow(t.Context(), PauseWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	require.True(t, result.Success, result.ErrorMessage)

	stored, err = store.WorkflowRepository().FindByID(t.Context(), created.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusPaused, stored.Status)
}

func TestPauseDraftWorkflowFails(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	created := createWorkflow(t, handlers, nil)

	result := handlers.PauseWorkflow(t.Context(), PauseWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	assert.False(t, result.Success)
}

func TestCommandsEnforceOwnership(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	created := createWorkflow(t, handlers, nil)

	result := handlers.UpdateWorkflow(t.Context(), UpdateWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     2,
		Name:       "Hijacked",
	})
	assert.False(t, result.Success)
	assert.Equal(t, "unauthorized", result.ErrorMessage)
}

func TestDeleteWorkflowEligibility(t *testing.T) {
	handlers, store := newTestHandlers(t)

	created := createWorkflow(t, handlers, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
	})

	activate := handlers.ActivateWorkflow(t.Context(), ActivateWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	require.True(t, activate.Success)

	// Active workflows cannot be deleted.
	result := handlers.DeleteWorkflow(t.Context(), DeleteWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	assert.False(t, result.Success)

	pause := handlers.PauseWorkflow(t.Context(), PauseWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	require.True(t, pause.Success)

	result = handlers.DeleteWorkflow(t.Context(), DeleteWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	require.True(t, result.Success, result.ErrorMessage)

	stored, err := store.WorkflowRepository().FindByID(t.Context(), created.WorkflowID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestCloneWorkflow(t *testing.T) {
	handlers, store := newTestHandlers(t)

	created := createWorkflow(t, handlers, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
	})

	result := handlers.CloneWorkflow(t.Context(), CloneWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
		NewName:    "My Workflow (copy)",
	})
	require.True(t, result.Success, result.ErrorMessage)
	assert.NotEqual(t, created.WorkflowID, result.WorkflowID)

	clone, err := store.WorkflowRepository().FindByID(t.Context(), result.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, "My Workflow (copy)", clone.Name)
	assert.Equal(t, models.WorkflowStatusDraft, clone.Status)
	assert.Equal(t, int64(0), clone.ExecutionCount)
}

func TestCreateFromTemplate(t *testing.T) {
	handlers, store := newTestHandlers(t)

	template := &models.Template{
		Name:        "Daily Digest",
		Description: "Sends a daily summary",
		Config: models.WorkflowConfig{
			Steps: []models.WorkflowStep{
				{ID: "1", Type: models.StepTypeTrigger, Name: "Every morning"},
			},
		},
	}
	require.NoError(t, store.TemplateRepository().Save(t.Context(), template))

	result := handlers.CreateFromTemplate(t.Context(), CreateFromTemplateCommand{
		TemplateID: template.ID,
		UserID:     1,
	})
	require.True(t, result.Success, result.ErrorMessage)

	wf, err := store.WorkflowRepository().FindByID(t.Context(), result.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, "Daily Digest", wf.Name)
	assert.Len(t, wf.Config.Steps, 1)

	stored, err := store.TemplateRepository().FindByID(t.Context(), template.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.UseCount)
}

func TestConnectAndDisconnectApp(t *testing.T) {
	handlers, store := newTestHandlers(t)

	app, err := models.NewConnectedApp(1, "Slack", "Team chat", "slack", nil)
	require.NoError(t, err)
	app.DrainEvents()
	require.NoError(t, store.ConnectedAppRepository().Save(t.Context(), app))

	result := handlers.ConnectApp(t.Context(), ConnectAppCommand{
		AppID:       app.ID,
		UserID:      1,
		AccessToken: "token",
	})
	require.True(t, result.Success, result.ErrorMessage)

	stored, err := store.ConnectedAppRepository().FindByID(t.Context(), app.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsConnected())

	result = handlers.DisconnectApp(t.Context(), DisconnectAppCommand{
		AppID:  app.ID,
		UserID: 1,
	})
	require.True(t, result.Success, result.ErrorMessage)

	stored, err = store.ConnectedAppRepository().FindByID(t.Context(), app.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsConnected())
}

func TestExecuteWorkflowCommand(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	created := createWorkflow(t, handlers, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
	})

	activate := handlers.ActivateWorkflow(t.Context(), ActivateWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	require.True(t, activate.Success)

	result := handlers.ExecuteWorkflow(t.Context(), ExecuteWorkflowCommand{
		WorkflowID: created.WorkflowID,
		UserID:     1,
	})
	require.True(t, result.Success, result.ErrorMessage)
	assert.NotEmpty(t, result.ExecutionID)
}
