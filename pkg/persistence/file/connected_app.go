package file

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

const appCollection = "apps"

// ConnectedAppRepository stores connected-app aggregates as JSON documents.
type ConnectedAppRepository struct {
	root string
	mu   sync.Mutex
}

// NewConnectedAppRepository creates a new connected-app repository.
func NewConnectedAppRepository(root string) *ConnectedAppRepository {
	return &ConnectedAppRepository{root: root}
}

// FindByID returns the app with the given id, or nil when absent.
func (ar *ConnectedAppRepository) FindByID(_ context.Context, id identity.ConnectedAppID) (*models.ConnectedApp, error) {
	var app models.ConnectedApp

	found, err := readDocument(ar.root, appCollection, id.Int64(), &app)
	if err != nil {
		return nil, &persistence.AppError{Op: "FindByID", AppID: id.Int64(), Err: err}
	}

	if !found {
		return nil, nil
	}

	return &app, nil
}

func (ar *ConnectedAppRepository) findAll(ctx context.Context) ([]*models.ConnectedApp, error) {
	ids, err := listDocumentIDs(ar.root, appCollection)
	if err != nil {
		return nil, err
	}

	apps := make([]*models.ConnectedApp, 0, len(ids))

	for _, id := range ids {
		app, err := ar.FindByID(ctx, identity.ConnectedAppID(id))
		if err != nil {
			return nil, err
		}

		if app != nil {
			apps = append(apps, app)
		}
	}

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].Name < apps[j].Name
	})

	return apps, nil
}

// FindByUserID returns the user's apps ordered by name.
func (ar *ConnectedAppRepository) FindByUserID(ctx context.Context, userID identity.UserID) ([]*models.ConnectedApp, error) {
	all, err := ar.findAll(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]*models.ConnectedApp, 0)

	for _, app := range all {
		if app.UserID == userID {
			owned = append(owned, app)
		}
	}

	return owned, nil
}

// FindConnectedByUserID returns the user's currently connected apps.
func (ar *ConnectedAppRepository) FindConnectedByUserID(ctx context.Context, userID identity.UserID) ([]*models.ConnectedApp, error) {
	owned, err := ar.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	connected := make([]*models.ConnectedApp, 0)

	for _, app := range owned {
		if app.IsConnected() {
			connected = append(connected, app)
		}
	}

	return connected, nil
}

// FindAvailable returns the system-wide catalog of apps.
func (ar *ConnectedAppRepository) FindAvailable(ctx context.Context) ([]*models.ConnectedApp, error) {
	return ar.findAll(ctx)
}

// FindByStatus returns every app in the given status.
func (ar *ConnectedAppRepository) FindByStatus(ctx context.Context, status models.AppStatus) ([]*models.ConnectedApp, error) {
	all, err := ar.findAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.ConnectedApp, 0)

	for _, app := range all {
		if app.Status == status {
			matched = append(matched, app)
		}
	}

	return matched, nil
}

// Save persists a new app and assigns its identifier.
func (ar *ConnectedAppRepository) Save(_ context.Context, app *models.ConnectedApp) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if app.ID.IsZero() {
		next, err := nextDocumentID(ar.root, appCollection)
		if err != nil {
			return &persistence.AppError{Op: "Save", Err: err}
		}

		app.ID = identity.ConnectedAppID(next)
	}

	app.Version = 1

	if err := writeDocument(ar.root, appCollection, app.ID.Int64(), app); err != nil {
		return &persistence.AppError{Op: "Save", AppID: app.ID.Int64(), Err: err}
	}

	return nil
}

// Update persists a loaded app, guarding against concurrent writers via the
// stored version.
func (ar *ConnectedAppRepository) Update(_ context.Context, app *models.ConnectedApp) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if app.ID.IsZero() {
		return &persistence.AppError{Op: "Update", Err: persistence.ErrMissingID}
	}

	var stored models.ConnectedApp

	found, err := readDocument(ar.root, appCollection, app.ID.Int64(), &stored)
	if err != nil {
		return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: err}
	}

	if !found {
		return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: persistence.ErrAppNotFound}
	}

	if stored.Version != app.Version {
		return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: persistence.ErrVersionConflict}
	}

	app.Version++

	if err := writeDocument(ar.root, appCollection, app.ID.Int64(), app); err != nil {
		return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: err}
	}

	return nil
}

// Delete removes the stored app document.
func (ar *ConnectedAppRepository) Delete(_ context.Context, id identity.ConnectedAppID) error {
	ar.mu.Lock()
	defer ar.mu.Unlock()

	if err := deleteDocument(ar.root, appCollection, id.Int64()); err != nil {
		return &persistence.AppError{Op: "Delete", AppID: id.Int64(), Err: err}
	}

	return nil
}

// SearchByName returns apps whose name contains the query, case-insensitive,
// optionally scoped to one user.
func (ar *ConnectedAppRepository) SearchByName(ctx context.Context, query string, userID *identity.UserID) ([]*models.ConnectedApp, error) {
	all, err := ar.findAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matched := make([]*models.ConnectedApp, 0)

	for _, app := range all {
		if userID != nil && app.UserID != *userID {
			continue
		}

		if strings.Contains(strings.ToLower(app.Name), needle) {
			matched = append(matched, app)
		}
	}

	return matched, nil
}
