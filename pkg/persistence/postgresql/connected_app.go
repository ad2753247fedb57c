package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

const appColumns = `
	id
  , user_id
  , name
  , description
  , icon
  , status
  , config
  , access_token
  , refresh_token
  , token_expiry
  , created_at
  , updated_at
  , version
`

// ConnectedAppRepository handles connected-app database operations.
type ConnectedAppRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectedAppRepository creates a new connected-app repository.
func NewConnectedAppRepository(db *sql.DB, logger *slog.Logger) *ConnectedAppRepository {
	return &ConnectedAppRepository{db: db, logger: logger}
}

func scanApp(row rowScanner) (*models.ConnectedApp, error) {
	var (
		app          models.ConnectedApp
		icon         sql.NullString
		configJSON   []byte
		accessToken  sql.NullString
		refreshToken sql.NullString
		tokenExpiry  sql.NullTime
	)

	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.Name,
		&app.Description,
		&icon,
		&app.Status,
		&configJSON,
		&accessToken,
		&refreshToken,
		&tokenExpiry,
		&app.CreatedAt,
		&app.UpdatedAt,
		&app.Version,
	)
	if err != nil {
		return nil, err
	}

	if icon.Valid {
		app.Icon = icon.String
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &app.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal app config: %w", err)
		}
	}

	if accessToken.Valid {
		app.AccessToken = &accessToken.String
	}

	if refreshToken.Valid {
		app.RefreshToken = &refreshToken.String
	}

	if tokenExpiry.Valid {
		t := tokenExpiry.Time
		app.TokenExpiry = &t
	}

	return &app, nil
}

func (r *ConnectedAppRepository) queryApps(ctx context.Context, query string, args ...any) ([]*models.ConnectedApp, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query connected apps: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.ConnectedApp, 0)

	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connected app: %w", err)
		}

		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connected apps: %w", err)
	}

	return apps, nil
}

// FindByID returns the app with the given id, or nil when absent.
func (r *ConnectedAppRepository) FindByID(ctx context.Context, id identity.ConnectedAppID) (*models.ConnectedApp, error) {
	query := `SELECT ` + appColumns + ` FROM connected_apps WHERE id = $1`

	app, err := scanApp(r.db.QueryRowContext(ctx, query, id.Int64()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, &persistence.AppError{Op: "FindByID", AppID: id.Int64(), Err: err}
	}

	return app, nil
}

// FindByUserID returns the user's apps ordered by name.
func (r *ConnectedAppRepository) FindByUserID(ctx context.Context, userID identity.UserID) ([]*models.ConnectedApp, error) {
	query := `SELECT ` + appColumns + ` FROM connected_apps WHERE user_id = $1 ORDER BY name`

	return r.queryApps(ctx, query, userID.Int64())
}

// FindConnectedByUserID returns the user's currently connected apps.
func (r *ConnectedAppRepository) FindConnectedByUserID(ctx context.Context, userID identity.UserID) ([]*models.ConnectedApp, error) {
	query := `SELECT ` + appColumns + ` FROM connected_apps WHERE user_id = $1 AND status = $2 ORDER BY name`

	return r.queryApps(ctx, query, userID.Int64(), models.AppStatusConnected)
}

// FindAvailable returns the system-wide catalog of apps.
func (r *ConnectedAppRepository) FindAvailable(ctx context.Context) ([]*models.ConnectedApp, error) {
	query := `SELECT ` + appColumns + ` FROM connected_apps ORDER BY name`

	return r.queryApps(ctx, query)
}

// FindByStatus returns every app in the given status.
func (r *ConnectedAppRepository) FindByStatus(ctx context.Context, status models.AppStatus) ([]*models.ConnectedApp, error) {
	query := `SELECT ` + appColumns + ` FROM connected_apps WHERE status = $1 ORDER BY name`

	return r.queryApps(ctx, query, status)
}

// Save inserts a new app and assigns its identifier.
func (r *ConnectedAppRepository) Save(ctx context.Context, app *models.ConnectedApp) error {
	configJSON, err := json.Marshal(app.Config)
	if err != nil {
		return &persistence.AppError{Op: "Save", Err: fmt.Errorf("failed to marshal config: %w", err)}
	}

	query := `
		INSERT INTO connected_apps (
			user_id, name, description, icon, status, config,
			access_token, refresh_token, token_expiry, created_at, updated_at, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		RETURNING id
	`

	var id int64

	err = r.db.QueryRowContext(ctx, query,
		app.UserID.Int64(),
		app.Name,
		app.Description,
		nullString(app.Icon),
		app.Status,
		configJSON,
		app.AccessToken,
		app.RefreshToken,
		app.TokenExpiry,
		app.CreatedAt,
		app.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return &persistence.AppError{Op: "Save", Err: err}
	}

	app.ID = identity.ConnectedAppID(id)
	app.Version = 1

	return nil
}

// Update persists a loaded app with the version guard.
func (r *ConnectedAppRepository) Update(ctx context.Context, app *models.ConnectedApp) error {
	if app.ID.IsZero() {
		return &persistence.AppError{Op: "Update", Err: persistence.ErrMissingID}
	}

	configJSON, err := json.Marshal(app.Config)
	if err != nil {
		return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: fmt.Errorf("failed to marshal config: %w", err)}
	}

	query := `
		UPDATE connected_apps
		SET name = $1
		  , description = $2
		  , icon = $3
		  , status = $4
		  , config = $5
		  , access_token = $6
		  , refresh_token = $7
		  , token_expiry = $8
		  , updated_at = $9
		  , version = version + 1
		WHERE id = $10 AND version = $11
	`

	result, err := r.db.ExecContext(ctx, query,
		app.Name,
		app.Description,
		nullString(app.Icon),
		app.Status,
		configJSON,
		app.AccessToken,
		app.RefreshToken,
		app.TokenExpiry,
		app.UpdatedAt,
		app.ID.Int64(),
		app.Version,
	)
	if err != nil {
		return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: err}
	}

	if affected == 0 {
		existing, err := r.FindByID(ctx, app.ID)
		if err != nil {
			return err
		}

		if existing == nil {
			return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: persistence.ErrAppNotFound}
		}

		return &persistence.AppError{Op: "Update", AppID: app.ID.Int64(), Err: persistence.ErrVersionConflict}
	}

	app.Version++

	return nil
}

// Delete removes a connected-app row.
func (r *ConnectedAppRepository) Delete(ctx context.Context, id identity.ConnectedAppID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM connected_apps WHERE id = $1`, id.Int64())
	if err != nil {
		return &persistence.AppError{Op: "Delete", AppID: id.Int64(), Err: err}
	}

	return nil
}

// SearchByName returns apps whose name matches the query, optionally scoped
// to one user.
func (r *ConnectedAppRepository) SearchByName(ctx context.Context, query string, userID *identity.UserID) ([]*models.ConnectedApp, error) {
	pattern := "%" + query + "%"

	if userID != nil {
		sqlQuery := `SELECT ` + appColumns + ` FROM connected_apps WHERE user_id = $1 AND name ILIKE $2 ORDER BY name`

		return r.queryApps(ctx, sqlQuery, userID.Int64(), pattern)
	}

	sqlQuery := `SELECT ` + appColumns + ` FROM connected_apps WHERE name ILIKE $1 ORDER BY name`

	return r.queryApps(ctx, sqlQuery, pattern)
}
