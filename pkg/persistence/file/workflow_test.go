package file

import (
	"testing"
	"time"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWorkflow(t *testing.T, userID identity.UserID, name string) *models.Workflow {
	t.Helper()

	workflow, err := models.NewWorkflow(userID, name, "test workflow", models.WorkflowConfig{
		Steps: []models.WorkflowStep{
			{ID: "1", Type: models.StepTypeTrigger, Name: "Start"},
		},
	})
	require.NoError(t, err)

	return workflow
}

func TestWorkflowRepository_SaveAssignsID(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	first := newTestWorkflow(t, 1, "first")
	require.NoError(t, repo.Save(t.Context(), first))
	assert.Equal(t, identity.WorkflowID(1), first.ID)
	assert.Equal(t, int64(1), first.Version)

	second := newTestWorkflow(t, 1, "second")
	require.NoError(t, repo.Save(t.Context(), second))
	assert.Equal(t, identity.WorkflowID(2), second.ID)
}

func TestWorkflowRepository_FindByID(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	workflow := newTestWorkflow(t, 1, "lookup")
	require.NoError(t, repo.Save(t.Context(), workflow))

	found, err := repo.FindByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "lookup", found.Name)
	assert.Equal(t, workflow.UserID, found.UserID)

	missing, err := repo.FindByID(t.Context(), 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWorkflowRepository_Update_VersionConflict(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	workflow := newTestWorkflow(t, 1, "contended")
	require.NoError(t, repo.Save(t.Context(), workflow))

	first, err := repo.FindByID(t.Context(), workflow.ID)
	require.NoError(t, err)

	second, err := repo.FindByID(t.Context(), workflow.ID)
	require.NoError(t, err)

	first.UpdateDetails("renamed by first", "", "", "")
	require.NoError(t, repo.Update(t.Context(), first))

	second.UpdateDetails("renamed by second", "", "", "")
	err = repo.Update(t.Context(), second)
	require.Error(t, err)
	assert.True(t, persistence.IsVersionConflict(err))
}

func TestWorkflowRepository_Update_Missing(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	workflow := newTestWorkflow(t, 1, "ghost")
	workflow.ID = 42
	workflow.Version = 1

	err := repo.Update(t.Context(), workflow)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_Delete(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	workflow := newTestWorkflow(t, 1, "doomed")
	require.NoError(t, repo.Save(t.Context(), workflow))
	require.NoError(t, repo.Delete(t.Context(), workflow.ID))

	found, err := repo.FindByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestWorkflowRepository_FindByUserID(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	mine := newTestWorkflow(t, 1, "mine")
	theirs := newTestWorkflow(t, 2, "theirs")
	require.NoError(t, repo.Save(t.Context(), mine))
	require.NoError(t, repo.Save(t.Context(), theirs))

	owned, err := repo.FindByUserID(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "mine", owned[0].Name)

	count, err := repo.CountByUserID(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestWorkflowRepository_FindRecentByUserID(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	older := newTestWorkflow(t, 1, "older")
	older.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, repo.Save(t.Context(), older))

	newer := newTestWorkflow(t, 1, "newer")
	newer.CreatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, repo.Save(t.Context(), newer))

	// A run on the older workflow makes it the most recent activity.
	ran := time.Now().UTC()
	older.LastRun = &ran
	require.NoError(t, repo.Update(t.Context(), older))

	recent, err := repo.FindRecentByUserID(t.Context(), 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "older", recent[0].Name)
	assert.Equal(t, "newer", recent[1].Name)

	limited, err := repo.FindRecentByUserID(t.Context(), 1, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "older", limited[0].Name)
}

func TestWorkflowRepository_FindActiveAndCounts(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	active := newTestWorkflow(t, 1, "running")
	require.NoError(t, active.Activate())
	require.NoError(t, repo.Save(t.Context(), active))

	draft := newTestWorkflow(t, 1, "parked")
	require.NoError(t, repo.Save(t.Context(), draft))

	found, err := repo.FindActiveByUserID(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "running", found[0].Name)

	count, err := repo.CountActiveByUserID(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	byStatus, err := repo.FindByStatus(t.Context(), models.WorkflowStatusDraft)
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "parked", byStatus[0].Name)
}

func TestWorkflowRepository_SearchByName(t *testing.T) {
	repo := NewWorkflowRepository(t.TempDir())

	require.NoError(t, repo.Save(t.Context(), newTestWorkflow(t, 1, "Email Digest")))
	require.NoError(t, repo.Save(t.Context(), newTestWorkflow(t, 2, "Daily Email Report")))
	require.NoError(t, repo.Save(t.Context(), newTestWorkflow(t, 1, "Slack Alerts")))

	all, err := repo.SearchByName(t.Context(), "email", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owner := identity.UserID(1)
	scoped, err := repo.SearchByName(t.Context(), "email", &owner)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Email Digest", scoped[0].Name)
}
