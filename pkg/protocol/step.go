// Package protocol defines the interfaces and contracts for pluggable step
// executors.
package protocol

import (
	"context"
	"log/slog"

	"github.com/flowdeck/flowdeck/pkg/models"
)

// StepExecutor runs one workflow step. Implementations receive the step's
// configuration at construction time and the accumulated execution state at
// run time. The returned map becomes the step's entry in
// ExecutionContext.StepResults.
type StepExecutor interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error)
}

// StepExecutorFactory creates step executor instances and provides metadata
// about the step type.
type StepExecutorFactory interface {
	// Create creates a new executor instance with the given step configuration.
	Create(config map[string]any) (StepExecutor, error)

	// ID returns the step type this factory handles.
	ID() string

	// Name returns the human-readable name for this step type.
	Name() string

	// Description returns a description of what this step type does.
	Description() string

	// Schema returns the JSON schema for configuring this step type.
	Schema() map[string]any
}
