package registry

import (
	"log/slog"

	action_executor "github.com/flowdeck/flowdeck/pkg/executors/action"
	condition_executor "github.com/flowdeck/flowdeck/pkg/executors/condition"
	transform_executor "github.com/flowdeck/flowdeck/pkg/executors/transform"
	trigger_executor "github.com/flowdeck/flowdeck/pkg/executors/trigger"
)

// NewDefaultRegistry returns a registry with the built-in step executors
// registered.
func NewDefaultRegistry(log *slog.Logger) *Registry {
	registry := NewRegistry(log)

	registry.RegisterStepExecutor(trigger_executor.NewTriggerExecutorFactory())
	registry.RegisterStepExecutor(action_executor.NewActionExecutorFactory())
	registry.RegisterStepExecutor(condition_executor.NewConditionExecutorFactory())
	registry.RegisterStepExecutor(transform_executor.NewTransformExecutorFactory())

	return registry
}
