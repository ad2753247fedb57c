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

func newTestApp(t *testing.T, userID identity.UserID, name string) *models.ConnectedApp {
	t.Helper()

	app, err := models.NewConnectedApp(userID, name, "test app", "", nil)
	require.NoError(t, err)

	return app
}

func TestConnectedAppRepository_SaveAndFind(t *testing.T) {
	repo := NewConnectedAppRepository(t.TempDir())

	app := newTestApp(t, 1, "Slack")
	require.NoError(t, repo.Save(t.Context(), app))
	assert.Equal(t, identity.ConnectedAppID(1), app.ID)

	found, err := repo.FindByID(t.Context(), app.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Slack", found.Name)

	missing, err := repo.FindByID(t.Context(), 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConnectedAppRepository_FindConnectedByUserID(t *testing.T) {
	repo := NewConnectedAppRepository(t.TempDir())

	connected := newTestApp(t, 1, "Slack")
	expiry := time.Now().UTC().Add(time.Hour)
	connected.Connect("token", "refresh", &expiry)
	require.NoError(t, repo.Save(t.Context(), connected))

	disconnected := newTestApp(t, 1, "GitHub")
	require.NoError(t, repo.Save(t.Context(), disconnected))

	other := newTestApp(t, 2, "Jira")
	other.Connect("token", "", nil)
	require.NoError(t, repo.Save(t.Context(), other))

	apps, err := repo.FindConnectedByUserID(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Slack", apps[0].Name)

	catalog, err := repo.FindAvailable(t.Context())
	require.NoError(t, err)
	assert.Len(t, catalog, 3)
}

func TestConnectedAppRepository_Update_VersionConflict(t *testing.T) {
	repo := NewConnectedAppRepository(t.TempDir())

	app := newTestApp(t, 1, "Slack")
	require.NoError(t, repo.Save(t.Context(), app))

	first, err := repo.FindByID(t.Context(), app.ID)
	require.NoError(t, err)

	second, err := repo.FindByID(t.Context(), app.ID)
	require.NoError(t, err)

	first.Connect("token-a", "", nil)
	require.NoError(t, repo.Update(t.Context(), first))

	second.Connect("token-b", "", nil)
	err = repo.Update(t.Context(), second)
	assert.True(t, persistence.IsVersionConflict(err))
}

func TestConnectedAppRepository_SearchByName(t *testing.T) {
	repo := NewConnectedAppRepository(t.TempDir())

	require.NoError(t, repo.Save(t.Context(), newTestApp(t, 1, "Slack")))
	require.NoError(t, repo.Save(t.Context(), newTestApp(t, 2, "Slack Workspace")))
	require.NoError(t, repo.Save(t.Context(), newTestApp(t, 1, "GitHub")))

	owner := identity.UserID(1)
	matches, err := repo.SearchByName(t.Context(), "slack", &owner)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Slack", matches[0].Name)
}

func TestTemplateRepository_SaveFindUpdate(t *testing.T) {
	repo := NewTemplateRepository(t.TempDir())

	template := &models.Template{
		Name: "Welcome Email",
		Config: models.WorkflowConfig{
			Steps: []models.WorkflowStep{{ID: "1", Type: models.StepTypeTrigger, Name: "Start"}},
		},
	}
	require.NoError(t, repo.Save(t.Context(), template))
	assert.Equal(t, identity.TemplateID(1), template.ID)

	template.RecordUse()
	require.NoError(t, repo.Update(t.Context(), template))

	found, err := repo.FindByID(t.Context(), template.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.UseCount)

	all, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
