// Package workflow contains the execution pipeline that drives one run of a
// workflow aggregate from precondition checks through its step list.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/flowdeck/flowdeck/pkg/eventbus"
	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/otelhelper"
	"github.com/flowdeck/flowdeck/pkg/persistence"
	"github.com/flowdeck/flowdeck/pkg/registry"
)

// ExecuteOptions carries the optional inputs of one run.
type ExecuteOptions struct {
	IPAddress   string
	TriggerData map[string]any
}

// ExecutionResult is the uniform outcome of one run. Domain-level run
// failures (missing app dependency, faulted step) are reported here with
// Success false, not as Go errors; errors are reserved for not-found,
// authorization and infrastructure faults.
type ExecutionResult struct {
	Execution    *models.WorkflowExecution
	Success      bool
	ErrorMessage string
	Logs         []models.ExecutionLog
}

// ValidationResult reports the outcome of a read-only workflow validation.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// ExecutionService orchestrates workflow runs: it authorizes the caller,
// checks app dependencies, walks the step list through registered executors
// and persists the updated aggregate.
type ExecutionService struct {
	workflows persistence.WorkflowRepository
	apps      persistence.ConnectedAppRepository
	registry  *registry.Registry
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewExecutionService(
	workflows persistence.WorkflowRepository,
	apps persistence.ConnectedAppRepository,
	executorRegistry *registry.Registry,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *ExecutionService {
	return &ExecutionService{
		workflows: workflows,
		apps:      apps,
		registry:  executorRegistry,
		publisher: publisher,
		tracer:    tracer,
		logger:    logger.With("module", "execution_service"),
	}
}

// ExecuteWorkflow runs the workflow identified by workflowID on behalf of
// userID. A run that never starts (missing workflow, foreign owner, inactive
// workflow) returns an error; a run that starts and fails returns a result
// with Success false.
func (s *ExecutionService) ExecuteWorkflow(
	ctx context.Context,
	workflowID identity.WorkflowID,
	userID identity.UserID,
	opts ExecuteOptions,
) (*ExecutionResult, error) {
	ctx, span := s.startSpan(ctx, "workflow.execute",
		attribute.Int64(otelhelper.WorkflowIDKey, workflowID.Int64()),
		attribute.Int64(otelhelper.UserIDKey, userID.Int64()),
	)
	defer span.End()

	logger := s.logger.With("workflow_id", workflowID, "user_id", userID)
	logger.Info("Starting workflow execution")

	workflow, err := s.workflows.FindByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %d: %w", workflowID, err)
	}

	if workflow == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	if workflow.UserID != userID {
		logger.Warn("Execution denied for foreign workflow")

		return nil, ErrUnauthorized
	}

	if workflow.Status != models.WorkflowStatusActive {
		return nil, models.ErrWorkflowNotActive
	}

	// The dependency pass runs before workflow.Execute() so a run blocked on
	// a missing app never counts as started.
	if result := s.checkAppDependencies(ctx, workflow, logger); result != nil {
		otelhelper.SetError(span, fmt.Errorf("%s", result.ErrorMessage))

		return result, nil
	}

	execution, err := workflow.Execute(opts.IPAddress)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, execution.ID.String()))
	logger = logger.With("execution_id", execution.ID)

	executionCtx := models.ExecutionContext{
		ExecutionID: execution.ID,
		WorkflowID:  workflow.ID,
		UserID:      workflow.UserID,
		TriggerData: opts.TriggerData,
		StepResults: make(map[string]map[string]any),
	}

	retryAttempts := workflow.Config.RetryAttempts()

	for _, step := range workflow.Config.Steps {
		if err := ctx.Err(); err != nil {
			return s.failRun(ctx, workflow, execution, step.ID,
				fmt.Sprintf("execution cancelled: %v", err), logger), nil
		}

		execution.AppendLog(step.ID, models.LogLevelInfo, "Starting step", map[string]any{
			"step_type": string(step.Type),
			"step_name": step.Name,
		})

		started := time.Now()

		result, err := s.runStep(ctx, step, executionCtx, retryAttempts, logger)
		duration := time.Since(started)

		if err != nil {
			execution.AppendLog(step.ID, models.LogLevelError, "Step failed", map[string]any{
				"error":       err.Error(),
				"duration_ms": duration.Milliseconds(),
			})

			return s.failRun(ctx, workflow, execution, step.ID,
				fmt.Sprintf("step %s failed: %v", step.ID, err), logger), nil
		}

		executionCtx.StepResults[step.ID] = result

		execution.AppendLog(step.ID, models.LogLevelInfo, "Step completed", map[string]any{
			"duration_ms": duration.Milliseconds(),
		})
	}

	execution.Complete()
	execution.AppendLog("", models.LogLevelInfo, "Workflow execution completed", map[string]any{
		"duration_ms": execution.Duration().Milliseconds(),
		"steps":       len(workflow.Config.Steps),
	})

	if err := s.workflows.Update(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to persist workflow %d after execution: %w", workflow.ID, err)
	}

	s.publishEvents(ctx, workflow)

	logger.Info("Workflow execution completed", "duration", execution.Duration())

	return &ExecutionResult{
		Execution: execution,
		Success:   true,
		Logs:      execution.Logs,
	}, nil
}

// checkAppDependencies verifies every requiresApp step against the owner's
// connected-app inventory. A non-nil result means the run must not start.
func (s *ExecutionService) checkAppDependencies(
	ctx context.Context,
	workflow *models.Workflow,
	logger *slog.Logger,
) *ExecutionResult {
	inventory, err := s.appInventory(ctx, workflow.UserID)
	if err != nil {
		logger.Error("Failed to load connected apps", "error", err)

		return &ExecutionResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("failed to load connected apps: %v", err),
		}
	}

	for _, step := range workflow.Config.Steps {
		appName, required := step.RequiresApp()
		if !required {
			continue
		}

		app, found := inventory[appName]
		if found && app.IsConnected() && app.HasValidToken() {
			continue
		}

		message := fmt.Sprintf("Required app %s is not connected", appName)
		logger.Warn("App dependency check failed", "step_id", step.ID, "app_name", appName)

		return &ExecutionResult{
			Success:      false,
			ErrorMessage: message,
			Logs: []models.ExecutionLog{{
				StepID:    step.ID,
				Timestamp: time.Now().UTC(),
				Level:     models.LogLevelError,
				Message:   message,
				Data:      map[string]any{"app_name": appName},
			}},
		}
	}

	return nil
}

func (s *ExecutionService) appInventory(ctx context.Context, userID identity.UserID) (map[string]*models.ConnectedApp, error) {
	apps, err := s.apps.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	inventory := make(map[string]*models.ConnectedApp, len(apps))
	for _, app := range apps {
		inventory[app.Name] = app
	}

	return inventory, nil
}

// runStep dispatches one step through its registered executor, retrying per
// the workflow's retry policy. The default policy is no retry.
func (s *ExecutionService) runStep(
	ctx context.Context,
	step models.WorkflowStep,
	executionCtx models.ExecutionContext,
	retryAttempts int,
	logger *slog.Logger,
) (map[string]any, error) {
	ctx, span := s.startSpan(ctx, "workflow.step",
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepTypeKey, string(step.Type)),
	)
	defer span.End()

	var lastErr error

	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if attempt > 0 {
			logger.Warn("Retrying step", "step_id", step.ID, "attempt", attempt)
		}

		executor, err := s.registry.CreateExecutor(step.Type, step.Config)
		if err != nil {
			// Configuration faults do not improve on retry.
			otelhelper.SetError(span, err)

			return nil, err
		}

		result, err := executor.Execute(ctx, executionCtx, logger.With("step_id", step.ID))
		if err == nil {
			return result, nil
		}

		lastErr = err
	}

	otelhelper.SetError(span, lastErr)

	return nil, lastErr
}

// failRun finalizes a run whose step processing faulted: the execution is
// marked failed, the aggregate is marked errored and persisted.
func (s *ExecutionService) failRun(
	ctx context.Context,
	workflow *models.Workflow,
	execution *models.WorkflowExecution,
	stepID string,
	message string,
	logger *slog.Logger,
) *ExecutionResult {
	execution.Fail()
	workflow.MarkAsError(message)

	logger.Error("Workflow execution failed", "step_id", stepID, "error", message)

	if err := s.workflows.Update(ctx, workflow); err != nil {
		logger.Error("Failed to persist errored workflow", "error", err)
	} else {
		s.publishEvents(ctx, workflow)
	}

	return &ExecutionResult{
		Execution:    execution,
		Success:      false,
		ErrorMessage: message,
		Logs:         execution.Logs,
	}
}

func (s *ExecutionService) publishEvents(ctx context.Context, workflow *models.Workflow) {
	if s.publisher == nil {
		return
	}

	key := fmt.Sprintf("%d", workflow.ID.Int64())
	for _, event := range workflow.DrainEvents() {
		if err := s.publisher.Publish(ctx, key, event); err != nil {
			s.logger.Error("Failed to publish workflow event", "workflow_id", workflow.ID, "error", err)
		}
	}
}

// nolint:spancheck // Span ownership transfers to the caller
func (s *ExecutionService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if s.tracer == nil {
		return noop.NewTracerProvider().Tracer("flowdeck").Start(ctx, name)
	}

	return otelhelper.StartSpan(ctx, s.tracer, name, attrs...)
}
