package scheduler

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence/file"
	"github.com/flowdeck/flowdeck/pkg/registry"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

func newTestScheduler(t *testing.T) (*Scheduler, *file.Persistence) {
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

	return NewScheduler(store.WorkflowRepository(), executor, slog.Default()), store
}

func saveScheduledWorkflow(t *testing.T, store *file.Persistence, cronExpr string, activate bool) *models.Workflow {
	t.Helper()

	wf, err := models.NewWorkflow(1, "Scheduled", "", models.WorkflowConfig{
		Steps: []models.WorkflowStep{{ID: "1", Type: models.StepTypeTrigger, Name: "Start"}},
		Triggers: []models.WorkflowTrigger{
			{ID: "t1", Type: "schedule", Config: map[string]any{"cron": cronExpr}},
		},
	})
	require.NoError(t, err)

	if activate {
		require.NoError(t, wf.Activate())
	}

	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Save(t.Context(), wf))

	return wf
}

func TestRefreshRegistersActiveSchedules(t *testing.T) {
	scheduler, store := newTestScheduler(t)

	saveScheduledWorkflow(t, store, "*/5 * * * *", true)
	saveScheduledWorkflow(t, store, "0 9 * * 1-5", false) // draft, must not register

	require.NoError(t, scheduler.Refresh(t.Context()))
	assert.Equal(t, 1, scheduler.EntryCount())
}

func TestRefreshSkipsInvalidCronExpressions(t *testing.T) {
	scheduler, store := newTestScheduler(t)

	saveScheduledWorkflow(t, store, "not a cron expression", true)

	require.NoError(t, scheduler.Refresh(t.Context()))
	assert.Equal(t, 0, scheduler.EntryCount())
}

func TestRefreshDropsStaleEntries(t *testing.T) {
	scheduler, store := newTestScheduler(t)

	wf := saveScheduledWorkflow(t, store, "*/5 * * * *", true)

	require.NoError(t, scheduler.Refresh(t.Context()))
	require.Equal(t, 1, scheduler.EntryCount())

	require.NoError(t, wf.Pause())
	wf.DrainEvents()
	require.NoError(t, store.WorkflowRepository().Update(t.Context(), wf))

	require.NoError(t, scheduler.Refresh(t.Context()))
	assert.Equal(t, 0, scheduler.EntryCount())
}
