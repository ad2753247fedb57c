// Package transform provides the step executor that reshapes earlier step
// results into a new output map.
package transform

import (
	"context"
	"log/slog"
	"strings"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/protocol"
)

func NewTransformExecutorFactory() *TransformExecutorFactory {
	return &TransformExecutorFactory{}
}

type TransformExecutorFactory struct{}

func (f *TransformExecutorFactory) Create(config map[string]any) (protocol.StepExecutor, error) {
	return NewTransformExecutor(config)
}

func (f *TransformExecutorFactory) ID() string {
	return "transform"
}

func (f *TransformExecutorFactory) Name() string {
	return "Transform"
}

func (f *TransformExecutorFactory) Description() string {
	return "Maps fields from earlier step results into a new output shape."
}

func (f *TransformExecutorFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mapping": map[string]any{
				"type":        "object",
				"description": "Output field to source path. The first path segment is a step ID, or 'trigger' for trigger data.",
				"examples": []map[string]any{
					{"user_email": "fetch_user.email", "event": "trigger.event"},
				},
			},
		},
	}
}

type TransformExecutor struct {
	Mapping map[string]string
}

func NewTransformExecutor(config map[string]any) (*TransformExecutor, error) {
	mapping := make(map[string]string)

	if raw, ok := config["mapping"].(map[string]any); ok {
		for key, value := range raw {
			if path, ok := value.(string); ok {
				mapping[key] = path
			}
		}
	}

	return &TransformExecutor{Mapping: mapping}, nil
}

func (e *TransformExecutor) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Without a mapping the transform passes all accumulated results through.
	if len(e.Mapping) == 0 {
		logger.Info("Transform has no mapping configured, passing results through")

		passthrough := make(map[string]any, len(executionCtx.StepResults))
		for stepID, result := range executionCtx.StepResults {
			passthrough[stepID] = result
		}

		return passthrough, nil
	}

	output := make(map[string]any, len(e.Mapping))
	for key, path := range e.Mapping {
		if value, found := resolvePath(executionCtx, path); found {
			output[key] = value
		}
	}

	logger.Info("Transform completed", "fields", len(output))

	return output, nil
}

func resolvePath(executionCtx models.ExecutionContext, path string) (any, bool) {
	segments := strings.Split(path, ".")

	var current any
	if segments[0] == "trigger" {
		current = executionCtx.TriggerData
	} else {
		result, ok := executionCtx.StepResults[segments[0]]
		if !ok {
			return nil, false
		}

		current = result
	}

	for _, segment := range segments[1:] {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
