package action

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdeck/flowdeck/pkg/models"
)

func TestActionExecutorExecute(t *testing.T) {
	executor, err := NewActionExecutor(map[string]any{
		"actionType": "send_message",
		"delayMs":    float64(1),
	})
	require.NoError(t, err)

	result, err := executor.Execute(t.Context(), models.ExecutionContext{}, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "completed", result["status"])
	assert.Equal(t, "send_message", result["action_type"])
}

func TestActionExecutorForcedFailure(t *testing.T) {
	executor, err := NewActionExecutor(map[string]any{
		"fail":    true,
		"delayMs": float64(0),
	})
	require.NoError(t, err)

	result, err := executor.Execute(t.Context(), models.ExecutionContext{}, slog.Default())
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestActionExecutorCancelledContext(t *testing.T) {
	executor, err := NewActionExecutor(map[string]any{
		"delayMs": float64(1000),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), time.Millisecond)
	defer cancel()

	_, err = executor.Execute(ctx, models.ExecutionContext{}, slog.Default())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
