package condition

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/pkg/models"
)

func TestConditionExecutorEquals(t *testing.T) {
	executor, err := NewConditionExecutor(map[string]any{
		"field":    "fetch.status",
		"operator": "equals",
		"value":    "completed",
	})
	require.NoError(t, err)

	ectx := models.ExecutionContext{
		StepResults: map[string]map[string]any{
			"fetch": {"status": "completed"},
		},
	}

	result, err := executor.Execute(t.Context(), ectx, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, true, result["matched"])
}

func TestConditionExecutorTriggerData(t *testing.T) {
	executor, err := NewConditionExecutor(map[string]any{
		"field": "trigger.event",
		"value": "push",
	})
	require.NoError(t, err)

	ectx := models.ExecutionContext{
		TriggerData: map[string]any{"event": "pull_request"},
	}

	result, err := executor.Execute(t.Context(), ectx, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, false, result["matched"])
}

func TestConditionExecutorMissingField(t *testing.T) {
	executor, err := NewConditionExecutor(map[string]any{
		"field": "fetch.status",
		"value": "completed",
	})
	require.NoError(t, err)

	result, err := executor.Execute(t.Context(), models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, false, result["matched"])
}

func TestConditionExecutorUnconfiguredPasses(t *testing.T) {
	executor, err := NewConditionExecutor(map[string]any{})
	require.NoError(t, err)

	result, err := executor.Execute(t.Context(), models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, true, result["matched"])
}

func TestConditionExecutorUnknownOperator(t *testing.T) {
	executor, err := NewConditionExecutor(map[string]any{
		"field":    "fetch.status",
		"operator": "matches",
	})
	require.NoError(t, err)

	ectx := models.ExecutionContext{
		StepResults: map[string]map[string]any{
			"fetch": {"status": "completed"},
		},
	}

	_, err = executor.Execute(t.Context(), ectx, slog.Default())
	require.Error(t, err)
}
