package workflow

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/pkg/events"
	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/persistence/file"
	"github.com/flowdeck/flowdeck/pkg/registry"
)

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event events.Event) error {
	p.published = append(p.published, event)

	return nil
}

func newTestService(t *testing.T) (*ExecutionService, persistence.Persistence, *recordingPublisher) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	publisher := &recordingPublisher{}
	service := NewExecutionService(
		store.WorkflowRepository(),
		store.ConnectedAppRepository(),
		registry.NewDefaultRegistry(slog.Default()),
		publisher,
		nil,
		slog.Default(),
	)

	return service, store, publisher
}

func saveActiveWorkflow(t *testing.T, store persistence.Persistence, userID identity.UserID, steps []models.WorkflowStep) *models.Workflow {
	t.Helper()

	wf, err := models.NewWorkflow(userID, "Test Workflow", "", models.WorkflowConfig{Steps: steps})
	require.NoError(t, err)
	require.NoError(t, wf.Activate())

	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), wf))

	return wf
}

func TestExecuteWorkflowMissingAppDependency(t *testing.T) {
	service, store, publisher := newTestService(t)

	wf := saveActiveWorkflow(t, store, 1, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
		{ID: "2", Type: models.StepTypeAction, Name: "Notify", Config: map[string]any{
			"requiresApp": true,
			"appName":     "X",
		}},
	})

	result, err := service.ExecuteWorkflow(t.Context(), wf.ID, wf.UserID, ExecuteOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Required app X is not connected", result.ErrorMessage)
	require.Len(t, result.Logs, 1)
	assert.Equal(t, models.LogLevelError, result.Logs[0].Level)

	// The run never started, so the counter must not move.
	stored, err := store.WorkflowRepository().FindByID(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stored.ExecutionCount)
	assert.Equal(t, models.WorkflowStatusActive, stored.Status)
	assert.Empty(t, publisher.published)
}

func TestExecuteWorkflowWithConnectedApp(t *testing.T) {
	service, store, publisher := newTestService(t)

	app, err := models.NewConnectedApp(1, "X", "", "", nil)
	require.NoError(t, err)
	app.Connect("token", "refresh", nil)
	app.DrainEvents()
	require.NoError(t, store.ConnectedAppRepository().Save(t.Context(), app))

	wf := saveActiveWorkflow(t, store, 1, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
		{ID: "2", Type: models.StepTypeAction, Name: "Notify", Config: map[string]any{
			"requiresApp": true,
			"appName":     "X",
			"delayMs":     float64(1),
		}},
	})

	result, err := service.ExecuteWorkflow(t.Context(), wf.ID, wf.UserID, ExecuteOptions{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.ExecutionStatusCompleted, result.Execution.Status)

	stored, err := store.WorkflowRepository().FindByID(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ExecutionCount)
	require.NotNil(t, stored.LastRun)

	require.NotEmpty(t, publisher.published)
	assert.Equal(t, events.WorkflowExecutedEvent, publisher.published[0].GetType())
}

func TestExecuteWorkflowNotFound(t *testing.T) {
	service, _, _ := newTestService(t)

	result, err := service.ExecuteWorkflow(t.Context(), 999, 1, ExecuteOptions{})
	require.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	assert.Nil(t, result)
}

func TestExecuteWorkflowUnauthorized(t *testing.T) {
	service, store, _ := newTestService(t)

	wf := saveActiveWorkflow(t, store, 1, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
	})

	result, err := service.ExecuteWorkflow(t.Context(), wf.ID, 2, ExecuteOptions{})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, result)
}

func TestExecuteWorkflowNotActive(t *testing.T) {
	service, store, _ := newTestService(t)

	wf, err := models.NewWorkflow(1, "Draft Workflow", "", models.WorkflowConfig{
		Steps: []models.WorkflowStep{{ID: "1", Type: models.StepTypeTrigger}},
	})
	require.NoError(t, err)
	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), wf))

	result, err := service.ExecuteWorkflow(t.Context(), wf.ID, wf.UserID, ExecuteOptions{})
	require.ErrorIs(t, err, models.ErrWorkflowNotActive)
	assert.Nil(t, result)
}

func TestExecuteWorkflowStepFailureMarksWorkflowErrored(t *testing.T) {
	service, store, _ := newTestService(t)

	wf := saveActiveWorkflow(t, store, 1, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
		{ID: "2", Type: models.StepTypeAction, Name: "Broken", Config: map[string]any{
			"fail":    true,
			"delayMs": float64(0),
		}},
		{ID: "3", Type: models.StepTypeAction, Name: "Never runs"},
	})

	result, err := service.ExecuteWorkflow(t.Context(), wf.ID, wf.UserID, ExecuteOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "step 2 failed")
	assert.Equal(t, models.ExecutionStatusFailed, result.Execution.Status)

	stored, err := store.WorkflowRepository().FindByID(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusError, stored.Status)
	// The run started, so the counter moved even though it failed.
	assert.Equal(t, int64(1), stored.ExecutionCount)
}

func TestExecuteWorkflowRetriesPerPolicy(t *testing.T) {
	service, store, _ := newTestService(t)

	wf, err := models.NewWorkflow(1, "Retry Workflow", "", models.WorkflowConfig{
		Steps: []models.WorkflowStep{
			{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
			{ID: "2", Type: models.StepTypeAction, Name: "Flaky", Config: map[string]any{
				"fail":    true,
				"delayMs": float64(0),
			}},
		},
		Settings: map[string]any{"retryAttempts": float64(2)},
	})
	require.NoError(t, err)
	require.NoError(t, wf.Activate())
	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), wf))

	// A permanently failing step exhausts the policy and still fails the run.
	result, err := service.ExecuteWorkflow(t.Context(), wf.ID, wf.UserID, ExecuteOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestExecuteWorkflowCancelledContext(t *testing.T) {
	service, store, _ := newTestService(t)

	wf := saveActiveWorkflow(t, store, 1, []models.WorkflowStep{
		{ID: "1", Type: models.StepTypeAction, Name: "Slow", Config: map[string]any{
			"delayMs": float64(5000),
		}},
	})

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	result, err := service.ExecuteWorkflow(ctx, wf.ID, wf.UserID, ExecuteOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, models.ExecutionStatusFailed, result.Execution.Status)
}

func TestValidateWorkflowDanglingConnection(t *testing.T) {
	service, store, _ := newTestService(t)

	wf, err := models.NewWorkflow(1, "Dangling", "", models.WorkflowConfig{
		Steps: []models.WorkflowStep{
			{ID: "A", Type: models.StepTypeTrigger, Connections: []string{"B"}},
		},
	})
	require.NoError(t, err)
	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), wf))

	result, err := service.ValidateWorkflow(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "step A references non-existent step B")
}

func TestValidateWorkflowNoSteps(t *testing.T) {
	service, store, _ := newTestService(t)

	wf, err := models.NewWorkflow(1, "Empty", "", models.WorkflowConfig{})
	require.NoError(t, err)
	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), wf))

	result, err := service.ValidateWorkflow(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "workflow has no steps")
}

func TestValidateWorkflowUnresolvedApp(t *testing.T) {
	service, store, _ := newTestService(t)

	wf, err := models.NewWorkflow(1, "Needs App", "", models.WorkflowConfig{
		Steps: []models.WorkflowStep{
			{ID: "1", Type: models.StepTypeAction, Config: map[string]any{
				"requiresApp": true,
				"appName":     "Slack",
			}},
		},
	})
	require.NoError(t, err)
	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), wf))

	result, err := service.ValidateWorkflow(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "required app Slack is not connected")
}

func TestValidateWorkflowValid(t *testing.T) {
	service, store, _ := newTestService(t)

	app, err := models.NewConnectedApp(1, "Slack", "", "", nil)
	require.NoError(t, err)
	app.Connect("token", "refresh", nil)
	app.DrainEvents()
	require.NoError(t, store.ConnectedAppRepository().Save(t.Context(), app))

	wf, err := models.NewWorkflow(1, "Valid", "", models.WorkflowConfig{
		Steps: []models.WorkflowStep{
			{ID: "1", Type: models.StepTypeTrigger, Connections: []string{"2"}},
			{ID: "2", Type: models.StepTypeAction, Config: map[string]any{
				"requiresApp": true,
				"appName":     "Slack",
			}},
		},
	})
	require.NoError(t, err)
	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), wf))

	result, err := service.ValidateWorkflow(t.Context(), wf.ID)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}
