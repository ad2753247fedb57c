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

const templateColumns = `
	id
  , name
  , description
  , category
  , icon
  , config
  , use_count
  , created_at
  , updated_at
`

// TemplateRepository handles template database operations.
type TemplateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(db *sql.DB, logger *slog.Logger) *TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

func scanTemplate(row rowScanner) (*models.Template, error) {
	var (
		template   models.Template
		category   sql.NullString
		icon       sql.NullString
		configJSON []byte
	)

	err := row.Scan(
		&template.ID,
		&template.Name,
		&template.Description,
		&category,
		&icon,
		&configJSON,
		&template.UseCount,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if category.Valid {
		template.Category = category.String
	}

	if icon.Valid {
		template.Icon = icon.String
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &template.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template config: %w", err)
		}
	}

	return &template, nil
}

// FindByID returns the template with the given id, or nil when absent.
func (r *TemplateRepository) FindByID(ctx context.Context, id identity.TemplateID) (*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, id.Int64()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find template %d: %w", id.Int64(), err)
	}

	return template, nil
}

// FindAll returns every template ordered by usage descending.
func (r *TemplateRepository) FindAll(ctx context.Context) ([]*models.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates ORDER BY use_count DESC, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*models.Template, 0)

	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}

	return templates, nil
}

// Save inserts a new template and assigns its identifier.
func (r *TemplateRepository) Save(ctx context.Context, template *models.Template) error {
	configJSON, err := json.Marshal(template.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal template config: %w", err)
	}

	query := `
		INSERT INTO templates (name, description, category, icon, config, use_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64

	err = r.db.QueryRowContext(ctx, query,
		template.Name,
		template.Description,
		nullString(template.Category),
		nullString(template.Icon),
		configJSON,
		template.UseCount,
		template.CreatedAt,
		template.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	template.ID = identity.TemplateID(id)

	return nil
}

// Update persists a loaded template.
func (r *TemplateRepository) Update(ctx context.Context, template *models.Template) error {
	if template.ID.IsZero() {
		return persistence.ErrMissingID
	}

	configJSON, err := json.Marshal(template.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal template config: %w", err)
	}

	query := `
		UPDATE templates
		SET name = $1
		  , description = $2
		  , category = $3
		  , icon = $4
		  , config = $5
		  , use_count = $6
		  , updated_at = $7
		WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		template.Name,
		template.Description,
		nullString(template.Category),
		nullString(template.Icon),
		configJSON,
		template.UseCount,
		template.UpdatedAt,
		template.ID.Int64(),
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	if affected == 0 {
		return persistence.ErrTemplateNotFound
	}

	return nil
}
