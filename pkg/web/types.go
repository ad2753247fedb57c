// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"time"

	"github.com/flowdeck/flowdeck/pkg/models"
)

// CreateWorkflowRequest represents the request body for creating a new workflow.
type CreateWorkflowRequest struct {
	UserID      int64                  `json:"user_id"     validate:"required,gt=0"`
	Name        string                 `json:"name"        validate:"required,min=1"`
	Description string                 `json:"description"`
	Config      *models.WorkflowConfig `json:"config,omitempty"`
	Icon        string                 `json:"icon"`
	IconColor   string                 `json:"icon_color"`
}

// UpdateWorkflowRequest represents the request body for updating an existing
// workflow. All fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	UserID      int64                  `json:"user_id"     validate:"required,gt=0"`
	Name        string                 `json:"name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Icon        string                 `json:"icon,omitempty"`
	IconColor   string                 `json:"icon_color,omitempty"`
	Config      *models.WorkflowConfig `json:"config,omitempty"`
}

// ExecuteWorkflowRequest represents the request body for starting a run.
type ExecuteWorkflowRequest struct {
	UserID      int64          `json:"user_id"      validate:"required,gt=0"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

// CloneWorkflowRequest represents the request body for cloning a workflow.
type CloneWorkflowRequest struct {
	UserID  int64  `json:"user_id"  validate:"required,gt=0"`
	NewName string `json:"new_name" validate:"required,min=1"`
}

// CreateFromTemplateRequest represents the request body for instantiating a
// template.
type CreateFromTemplateRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Name   string `json:"name,omitempty"`
}

// ConnectAppRequest represents the request body for connecting an app.
type ConnectAppRequest struct {
	UserID       int64      `json:"user_id"       validate:"required,gt=0"`
	AccessToken  string     `json:"access_token"  validate:"required"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
}

// DisconnectAppRequest represents the request body for disconnecting an app.
type DisconnectAppRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}
