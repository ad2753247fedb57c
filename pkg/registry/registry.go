// Package registry holds the step executor factories available to the
// execution pipeline, keyed by step type.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.StepType]protocol.StepExecutorFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		factories: make(map[models.StepType]protocol.StepExecutorFactory),
	}
}

func (r *Registry) RegisterStepExecutor(factory protocol.StepExecutorFactory) {
	r.factories[models.StepType(factory.ID())] = factory
}

// CreateExecutor builds an executor for the given step type. The step's
// configuration is validated against the factory schema before construction.
func (r *Registry) CreateExecutor(stepType models.StepType, config map[string]any) (protocol.StepExecutor, error) {
	factory, ok := r.factories[stepType]
	if !ok {
		return nil, fmt.Errorf("step type '%s' not registered", stepType)
	}

	if err := r.validateConfig(factory, config); err != nil {
		return nil, fmt.Errorf("invalid configuration for step type '%s': %w", stepType, err)
	}

	return factory.Create(config)
}

// IsRegistered reports whether a step type has a registered factory.
func (r *Registry) IsRegistered(stepType models.StepType) bool {
	_, ok := r.factories[stepType]

	return ok
}

// AvailableStepTypes returns the registered step types in sorted order.
func (r *Registry) AvailableStepTypes() []string {
	types := make([]string, 0, len(r.factories))
	for stepType := range r.factories {
		types = append(types, string(stepType))
	}

	sort.Strings(types)

	return types
}

// Schema returns the configuration schema for a registered step type.
func (r *Registry) Schema(stepType models.StepType) (map[string]any, error) {
	factory, ok := r.factories[stepType]
	if !ok {
		return nil, fmt.Errorf("step type '%s' not registered", stepType)
	}

	return factory.Schema(), nil
}

func (r *Registry) validateConfig(factory protocol.StepExecutorFactory, config map[string]any) error {
	schema := factory.Schema()
	if schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	configLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, configLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// HealthCheck reports the registry state for the health endpoint.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "no step executors registered", false
	}

	return fmt.Sprintf("%d step executors registered", len(r.factories)), true
}
