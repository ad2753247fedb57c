// Package queries contains the read-side handlers. Queries never mutate
// aggregates or repository state.
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

const statsCacheTTL = 30 * time.Second

// WorkflowStats aggregates a user's dashboard numbers.
type WorkflowStats struct {
	TotalWorkflows  int        `json:"total_workflows"`
	ActiveWorkflows int        `json:"active_workflows"`
	PausedWorkflows int        `json:"paused_workflows"`
	ConnectedApps   int        `json:"connected_apps"`
	TotalExecutions int64      `json:"total_executions"`
	LastActivity    *time.Time `json:"last_activity,omitempty"`
}

// Handlers hosts all query handlers over shared dependencies. The redis
// client is optional; without it stats are computed on every call.
type Handlers struct {
	workflows persistence.WorkflowRepository
	apps      persistence.ConnectedAppRepository
	executor  *workflow.ExecutionService
	cache     *redis.Client
	logger    *slog.Logger
}

func NewHandlers(
	store persistence.Persistence,
	executor *workflow.ExecutionService,
	cache *redis.Client,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		workflows: store.WorkflowRepository(),
		apps:      store.ConnectedAppRepository(),
		executor:  executor,
		cache:     cache,
		logger:    logger.With("module", "queries"),
	}
}

// GetWorkflow returns a workflow owned by userID. A workflow owned by a
// different user yields ErrUnauthorized, never not-found, so access denial
// cannot be told apart from existence.
func (h *Handlers) GetWorkflow(ctx context.Context, workflowID identity.WorkflowID, userID identity.UserID) (*models.Workflow, error) {
	wf, err := h.workflows.FindByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %d: %w", workflowID, err)
	}

	if wf == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	if wf.UserID != userID {
		return nil, workflow.ErrUnauthorized
	}

	return wf, nil
}

// GetWorkflowsByUser returns all workflows owned by userID.
func (h *Handlers) GetWorkflowsByUser(ctx context.Context, userID identity.UserID) ([]*models.Workflow, error) {
	return h.workflows.FindByUserID(ctx, userID)
}

// GetRecentWorkflows returns up to limit workflows ordered by most recent
// activity, falling back to creation time for workflows that never ran.
func (h *Handlers) GetRecentWorkflows(ctx context.Context, userID identity.UserID, limit int) ([]*models.Workflow, error) {
	return h.workflows.FindRecentByUserID(ctx, userID, limit)
}

// GetWorkflowStats returns the user's dashboard aggregates, cached for a
// short interval.
func (h *Handlers) GetWorkflowStats(ctx context.Context, userID identity.UserID) (*WorkflowStats, error) {
	if cached := h.cachedStats(ctx, userID); cached != nil {
		return cached, nil
	}

	stats, err := h.computeStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	h.storeStats(ctx, userID, stats)

	return stats, nil
}

// ValidateWorkflow reports whether a workflow is structurally runnable.
func (h *Handlers) ValidateWorkflow(ctx context.Context, workflowID identity.WorkflowID) (*workflow.ValidationResult, error) {
	return h.executor.ValidateWorkflow(ctx, workflowID)
}

// SearchWorkflows matches workflows by name or description, optionally
// scoped to one owner.
func (h *Handlers) SearchWorkflows(ctx context.Context, query string, userID *identity.UserID) ([]*models.Workflow, error) {
	return h.workflows.SearchByName(ctx, query, userID)
}

func (h *Handlers) computeStats(ctx context.Context, userID identity.UserID) (*WorkflowStats, error) {
	workflows, err := h.workflows.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflows: %w", err)
	}

	connectedApps, err := h.apps.FindConnectedByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connected apps: %w", err)
	}

	stats := &WorkflowStats{
		TotalWorkflows: len(workflows),
		ConnectedApps:  len(connectedApps),
	}

	for _, wf := range workflows {
		switch wf.Status {
		case models.WorkflowStatusActive:
			stats.ActiveWorkflows++
		case models.WorkflowStatusPaused:
			stats.PausedWorkflows++
		}

		stats.TotalExecutions += wf.ExecutionCount

		activity := wf.CreatedAt
		if wf.LastRun != nil {
			activity = *wf.LastRun
		}

		if stats.LastActivity == nil || activity.After(*stats.LastActivity) {
			t := activity
			stats.LastActivity = &t
		}
	}

	return stats, nil
}

func statsCacheKey(userID identity.UserID) string {
	return fmt.Sprintf("flowdeck:stats:%d", userID.Int64())
}

func (h *Handlers) cachedStats(ctx context.Context, userID identity.UserID) *WorkflowStats {
	if h.cache == nil {
		return nil
	}

	payload, err := h.cache.Get(ctx, statsCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("Stats cache read failed", "error", err)
		}

		return nil
	}

	var stats WorkflowStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		h.logger.Warn("Stats cache entry is corrupt", "error", err)

		return nil
	}

	return &stats
}

func (h *Handlers) storeStats(ctx context.Context, userID identity.UserID, stats *WorkflowStats) {
	if h.cache == nil {
		return
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}

	if err := h.cache.Set(ctx, statsCacheKey(userID), payload, statsCacheTTL).Err(); err != nil {
		h.logger.Warn("Stats cache write failed", "error", err)
	}
}
