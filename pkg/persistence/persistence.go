// Package persistence defines the storage contracts for the workflow,
// connected-app and template aggregates.
package persistence

import (
	"context"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
)

// Persistence is the root storage abstraction. Implementations expose one
// repository per aggregate.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ConnectedAppRepository() ConnectedAppRepository
	TemplateRepository() TemplateRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// WorkflowRepository is the persistence contract for workflow aggregates.
// Find methods return nil (no error) when nothing matches the identifier.
type WorkflowRepository interface {
	FindByID(ctx context.Context, id identity.WorkflowID) (*models.Workflow, error)
	FindByUserID(ctx context.Context, userID identity.UserID) ([]*models.Workflow, error)
	FindRecentByUserID(ctx context.Context, userID identity.UserID, limit int) ([]*models.Workflow, error)
	FindActiveByUserID(ctx context.Context, userID identity.UserID) ([]*models.Workflow, error)
	FindAll(ctx context.Context) ([]*models.Workflow, error)
	FindByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error)

	// Save persists a new workflow and assigns its identifier.
	Save(ctx context.Context, workflow *models.Workflow) error

	// Update persists a loaded workflow. It fails with ErrVersionConflict
	// when the stored version no longer matches the caller's copy.
	Update(ctx context.Context, workflow *models.Workflow) error

	Delete(ctx context.Context, id identity.WorkflowID) error

	CountByUserID(ctx context.Context, userID identity.UserID) (int64, error)
	CountActiveByUserID(ctx context.Context, userID identity.UserID) (int64, error)
	SearchByName(ctx context.Context, query string, userID *identity.UserID) ([]*models.Workflow, error)
}

// ConnectedAppRepository is the persistence contract for connected apps.
type ConnectedAppRepository interface {
	FindByID(ctx context.Context, id identity.ConnectedAppID) (*models.ConnectedApp, error)
	FindByUserID(ctx context.Context, userID identity.UserID) ([]*models.ConnectedApp, error)
	FindConnectedByUserID(ctx context.Context, userID identity.UserID) ([]*models.ConnectedApp, error)

	// FindAvailable lists the system-wide catalog of apps that can be
	// connected.
	FindAvailable(ctx context.Context) ([]*models.ConnectedApp, error)
	FindByStatus(ctx context.Context, status models.AppStatus) ([]*models.ConnectedApp, error)

	Save(ctx context.Context, app *models.ConnectedApp) error
	Update(ctx context.Context, app *models.ConnectedApp) error
	Delete(ctx context.Context, id identity.ConnectedAppID) error

	SearchByName(ctx context.Context, query string, userID *identity.UserID) ([]*models.ConnectedApp, error)
}

// TemplateRepository is the persistence contract for workflow templates.
type TemplateRepository interface {
	FindByID(ctx context.Context, id identity.TemplateID) (*models.Template, error)
	FindAll(ctx context.Context) ([]*models.Template, error)
	Save(ctx context.Context, template *models.Template) error
	Update(ctx context.Context, template *models.Template) error
}
