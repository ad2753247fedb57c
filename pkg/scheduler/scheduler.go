// Package scheduler runs active workflows on their configured schedule
// triggers.
package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/workflow"
)

// Scheduler registers a cron entry for every schedule trigger of every
// active workflow. Refresh rebuilds the entries after workflow changes.
type Scheduler struct {
	workflows persistence.WorkflowRepository
	executor  *workflow.ExecutionService
	cron      *cron.Cron
	logger    *slog.Logger

	mu      sync.Mutex
	entries map[identity.WorkflowID][]cron.EntryID
}

func NewScheduler(
	workflows persistence.WorkflowRepository,
	executor *workflow.ExecutionService,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		workflows: workflows,
		executor:  executor,
		cron:      cron.New(),
		logger:    logger.With("module", "scheduler"),
		entries:   make(map[identity.WorkflowID][]cron.EntryID),
	}
}

// Start registers entries for the current set of active workflows and begins
// firing them.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", "entries", len(s.cron.Entries()))

	return nil
}

// Stop stops the cron runner and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Scheduler stopped")
}

// Refresh drops all entries and re-registers every schedule trigger of every
// active workflow.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ids := range s.entries {
		for _, id := range ids {
			s.cron.Remove(id)
		}
	}

	s.entries = make(map[identity.WorkflowID][]cron.EntryID)

	active, err := s.workflows.FindByStatus(ctx, models.WorkflowStatusActive)
	if err != nil {
		return err
	}

	for _, wf := range active {
		for _, trigger := range wf.Config.Triggers {
			expr, ok := trigger.CronExpression()
			if !ok {
				continue
			}

			entryID, err := s.register(wf, trigger.ID, expr)
			if err != nil {
				s.logger.Warn("Skipping trigger with invalid cron expression",
					"workflow_id", wf.ID, "trigger_id", trigger.ID, "cron", expr, "error", err)

				continue
			}

			s.entries[wf.ID] = append(s.entries[wf.ID], entryID)
		}
	}

	s.logger.Info("Scheduler refreshed", "workflows", len(s.entries))

	return nil
}

// EntryCount reports the number of registered cron entries.
func (s *Scheduler) EntryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, ids := range s.entries {
		count += len(ids)
	}

	return count
}

func (s *Scheduler) register(wf *models.Workflow, triggerID, expr string) (cron.EntryID, error) {
	workflowID := wf.ID
	userID := wf.UserID

	return s.cron.AddFunc(expr, func() {
		logger := s.logger.With("workflow_id", workflowID, "trigger_id", triggerID)
		logger.Info("Schedule trigger fired")

		result, err := s.executor.ExecuteWorkflow(context.Background(), workflowID, userID, workflow.ExecuteOptions{
			TriggerData: map[string]any{"trigger_id": triggerID, "source": "schedule"},
		})
		if err != nil {
			logger.Error("Scheduled execution failed", "error", err)

			return
		}

		if !result.Success {
			logger.Warn("Scheduled execution reported failure", "error", result.ErrorMessage)
		}
	})
}
