package registry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/pkg/models"
)

func TestNewDefaultRegistry(t *testing.T) {
	registry := NewDefaultRegistry(slog.Default())

	assert.Equal(t, []string{"action", "condition", "transform", "trigger"}, registry.AvailableStepTypes())

	for _, stepType := range []models.StepType{
		models.StepTypeTrigger,
		models.StepTypeAction,
		models.StepTypeCondition,
		models.StepTypeTransform,
	} {
		assert.True(t, registry.IsRegistered(stepType))
	}
}

func TestRegistryCreateExecutor(t *testing.T) {
	registry := NewDefaultRegistry(slog.Default())

	executor, err := registry.CreateExecutor(models.StepTypeAction, map[string]any{
		"actionType": "send_message",
	})
	require.NoError(t, err)
	assert.NotNil(t, executor)
}

func TestRegistryCreateExecutorUnknownType(t *testing.T) {
	registry := NewDefaultRegistry(slog.Default())

	executor, err := registry.CreateExecutor("webhook", nil)
	require.Error(t, err)
	assert.Nil(t, executor)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistryCreateExecutorInvalidConfig(t *testing.T) {
	registry := NewDefaultRegistry(slog.Default())

	executor, err := registry.CreateExecutor(models.StepTypeAction, map[string]any{
		"delayMs": "not a number",
	})
	require.Error(t, err)
	assert.Nil(t, executor)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRegistrySchema(t *testing.T) {
	registry := NewDefaultRegistry(slog.Default())

	schema, err := registry.Schema(models.StepTypeCondition)
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])

	_, err = registry.Schema("webhook")
	require.Error(t, err)
}

func TestRegistryHealthCheck(t *testing.T) {
	empty := NewRegistry(slog.Default())
	message, healthy := empty.HealthCheck()
	assert.False(t, healthy)
	assert.Contains(t, message, "no step executors")

	registry := NewDefaultRegistry(slog.Default())
	message, healthy = registry.HealthCheck()
	assert.True(t, healthy)
	assert.Contains(t, message, "4 step executors")
}
