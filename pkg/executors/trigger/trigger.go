// Package trigger provides the entry-point step executor that records how a
// run was started.
package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/protocol"
)

func NewTriggerExecutorFactory() *TriggerExecutorFactory {
	return &TriggerExecutorFactory{}
}

type TriggerExecutorFactory struct{}

func (f *TriggerExecutorFactory) Create(config map[string]any) (protocol.StepExecutor, error) {
	return NewTriggerExecutor(config)
}

func (f *TriggerExecutorFactory) ID() string {
	return "trigger"
}

func (f *TriggerExecutorFactory) Name() string {
	return "Trigger"
}

func (f *TriggerExecutorFactory) Description() string {
	return "Entry point of a workflow run. Records the trigger kind and the data that started the run."
}

func (f *TriggerExecutorFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"triggerType": map[string]any{
				"type":        "string",
				"description": "Kind of trigger that starts the workflow.",
				"examples":    []string{"manual", "schedule", "webhook"},
			},
			"cron": map[string]any{
				"type":        "string",
				"description": "Cron expression for schedule triggers.",
				"examples":    []string{"0 9 * * 1-5", "*/15 * * * *"},
			},
		},
	}
}

type TriggerExecutor struct {
	TriggerType string
}

func NewTriggerExecutor(config map[string]any) (*TriggerExecutor, error) {
	triggerType, _ := config["triggerType"].(string)
	if triggerType == "" {
		triggerType = "manual"
	}

	return &TriggerExecutor{TriggerType: triggerType}, nil
}

func (e *TriggerExecutor) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("Workflow triggered", "trigger_type", e.TriggerType)

	result := map[string]any{
		"triggered":    true,
		"trigger_type": e.TriggerType,
		"fired_at":     time.Now().UTC().Format(time.RFC3339),
	}
	if len(executionCtx.TriggerData) > 0 {
		result["data"] = executionCtx.TriggerData
	}

	return result, nil
}
