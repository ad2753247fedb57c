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

const workflowColumns = `
	id
  , user_id
  , name
  , description
  , status
  , config
  , icon
  , icon_color
  , created_at
  , updated_at
  , last_run
  , execution_count
  , version
`

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow   models.Workflow
		configJSON []byte
		icon       sql.NullString
		iconColor  sql.NullString
		lastRun    sql.NullTime
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.UserID,
		&workflow.Name,
		&workflow.Description,
		&workflow.Status,
		&configJSON,
		&icon,
		&iconColor,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&lastRun,
		&workflow.ExecutionCount,
		&workflow.Version,
	)
	if err != nil {
		return nil, err
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &workflow.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow config: %w", err)
		}
	}

	if icon.Valid {
		workflow.Icon = icon.String
	}

	if iconColor.Valid {
		workflow.IconColor = iconColor.String
	}

	if lastRun.Valid {
		t := lastRun.Time
		workflow.LastRun = &t
	}

	return &workflow, nil
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}
	defer rows.Close()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflows: %w", err)
	}

	return workflows, nil
}

// FindByID returns the workflow with the given id, or nil when absent.
func (r *WorkflowRepository) FindByID(ctx context.Context, id identity.WorkflowID) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id.Int64()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, persistence.NewWorkflowError("FindByID", id.Int64(), err)
	}

	return workflow, nil
}

// FindAll returns every workflow ordered by creation time descending.
func (r *WorkflowRepository) FindAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query)
}

// FindByUserID returns the user's workflows ordered by creation time
// descending.
func (r *WorkflowRepository) FindByUserID(ctx context.Context, userID identity.UserID) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE user_id = $1 ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query, userID.Int64())
}

// FindRecentByUserID returns up to limit workflows ordered by most recent
// activity, falling back to creation time.
func (r *WorkflowRepository) FindRecentByUserID(ctx context.Context, userID identity.UserID, limit int) ([]*models.Workflow, error) {
	query := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE user_id = $1
		ORDER BY COALESCE(last_run, created_at) DESC
		LIMIT $2
	`

	return r.queryWorkflows(ctx, query, userID.Int64(), limit)
}

// FindActiveByUserID returns the user's active workflows.
func (r *WorkflowRepository) FindActiveByUserID(ctx context.Context, userID identity.UserID) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query, userID.Int64(), models.WorkflowStatusActive)
}

// FindByStatus returns every workflow in the given status.
func (r *WorkflowRepository) FindByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE status = $1 ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query, status)
}

// Save inserts a new workflow and assigns its identifier.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	configJSON, err := json.Marshal(workflow.Config)
	if err != nil {
		return persistence.NewWorkflowError("Save", 0, fmt.Errorf("failed to marshal config: %w", err))
	}

	query := `
		INSERT INTO workflows (
			user_id, name, description, status, config, icon, icon_color,
			created_at, updated_at, last_run, execution_count, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		RETURNING id
	`

	var id int64

	err = r.db.QueryRowContext(ctx, query,
		workflow.UserID.Int64(),
		workflow.Name,
		workflow.Description,
		workflow.Status,
		configJSON,
		nullString(workflow.Icon),
		nullString(workflow.IconColor),
		workflow.CreatedAt,
		workflow.UpdatedAt,
		workflow.LastRun,
		workflow.ExecutionCount,
	).Scan(&id)
	if err != nil {
		return persistence.NewWorkflowError("Save", 0, err)
	}

	workflow.ID = identity.WorkflowID(id)
	workflow.Version = 1

	return nil
}

// Update persists a loaded workflow. The version guard rejects writes that
// would clobber a concurrent update.
func (r *WorkflowRepository) Update(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID.IsZero() {
		return persistence.NewWorkflowError("Update", 0, persistence.ErrMissingID)
	}

	configJSON, err := json.Marshal(workflow.Config)
	if err != nil {
		return persistence.NewWorkflowError("Update", workflow.ID.Int64(), fmt.Errorf("failed to marshal config: %w", err))
	}

	query := `
		UPDATE workflows
		SET name = $1
		  , description = $2
		  , status = $3
		  , config = $4
		  , icon = $5
		  , icon_color = $6
		  , updated_at = $7
		  , last_run = $8
		  , execution_count = $9
		  , version = version + 1
		WHERE id = $10 AND version = $11
	`

	result, err := r.db.ExecContext(ctx, query,
		workflow.Name,
		workflow.Description,
		workflow.Status,
		configJSON,
		nullString(workflow.Icon),
		nullString(workflow.IconColor),
		workflow.UpdatedAt,
		workflow.LastRun,
		workflow.ExecutionCount,
		workflow.ID.Int64(),
		workflow.Version,
	)
	if err != nil {
		return persistence.NewWorkflowError("Update", workflow.ID.Int64(), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Update", workflow.ID.Int64(), err)
	}

	if affected == 0 {
		existing, err := r.FindByID(ctx, workflow.ID)
		if err != nil {
			return err
		}

		if existing == nil {
			return persistence.NewWorkflowError("Update", workflow.ID.Int64(), persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Update", workflow.ID.Int64(), persistence.ErrVersionConflict)
	}

	workflow.Version++

	return nil
}

// Delete removes a workflow row.
func (r *WorkflowRepository) Delete(ctx context.Context, id identity.WorkflowID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id.Int64())
	if err != nil {
		return persistence.NewWorkflowError("Delete", id.Int64(), err)
	}

	return nil
}

// CountByUserID counts the user's workflows.
func (r *WorkflowRepository) CountByUserID(ctx context.Context, userID identity.UserID) (int64, error) {
	var count int64

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflows WHERE user_id = $1`, userID.Int64()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count workflows: %w", err)
	}

	return count, nil
}

// CountActiveByUserID counts the user's active workflows.
func (r *WorkflowRepository) CountActiveByUserID(ctx context.Context, userID identity.UserID) (int64, error) {
	var count int64

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workflows WHERE user_id = $1 AND status = $2`,
		userID.Int64(), models.WorkflowStatusActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active workflows: %w", err)
	}

	return count, nil
}

// SearchByName returns workflows whose name or description matches the
// query, optionally scoped to one user.
func (r *WorkflowRepository) SearchByName(ctx context.Context, query string, userID *identity.UserID) ([]*models.Workflow, error) {
	pattern := "%" + query + "%"

	if userID != nil {
		sqlQuery := `
			SELECT ` + workflowColumns + `
			FROM workflows
			WHERE user_id = $1 AND (name ILIKE $2 OR description ILIKE $2)
			ORDER BY created_at DESC
		`

		return r.queryWorkflows(ctx, sqlQuery, userID.Int64(), pattern)
	}

	sqlQuery := `
		SELECT ` + workflowColumns + `
		FROM workflows
		WHERE name ILIKE $1 OR description ILIKE $1
		ORDER BY created_at DESC
	`

	return r.queryWorkflows(ctx, sqlQuery, pattern)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
