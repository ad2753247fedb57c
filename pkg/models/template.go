package models

import (
	"time"

	"github.com/flowdeck/flowdeck/pkg/identity"
)

// Template is a reusable workflow configuration snapshot. Creating a
// workflow from a template copies its config into a new draft and bumps the
// usage counter.
type Template struct {
	ID          identity.TemplateID `json:"id"`
	Name        string              `json:"name" validate:"required"`
	Description string              `json:"description"`
	Category    string              `json:"category,omitempty"`
	Icon        string              `json:"icon,omitempty"`
	Config      WorkflowConfig      `json:"config"`
	UseCount    int64               `json:"use_count"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// RecordUse increments the usage counter.
func (t *Template) RecordUse() {
	t.UseCount++
	t.UpdatedAt = time.Now().UTC()
}
