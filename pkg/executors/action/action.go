// Package action provides the step executor that performs a unit of work
// against a connected app or internal service. Work is simulated with a
// context-aware delay.
package action

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/protocol"
)

const defaultSimulatedDelay = 10 * time.Millisecond

func NewActionExecutorFactory() *ActionExecutorFactory {
	return &ActionExecutorFactory{}
}

type ActionExecutorFactory struct{}

func (f *ActionExecutorFactory) Create(config map[string]any) (protocol.StepExecutor, error) {
	return NewActionExecutor(config)
}

func (f *ActionExecutorFactory) ID() string {
	return "action"
}

func (f *ActionExecutorFactory) Name() string {
	return "Action"
}

func (f *ActionExecutorFactory) Description() string {
	return "Performs one unit of work, such as sending a message or calling an external service."
}

func (f *ActionExecutorFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"actionType": map[string]any{
				"type":        "string",
				"description": "What the action does.",
				"examples":    []string{"send_message", "create_record", "http_request"},
			},
			"requiresApp": map[string]any{
				"type":        "boolean",
				"description": "Whether this action depends on a connected app.",
			},
			"appName": map[string]any{
				"type":        "string",
				"description": "Name of the connected app this action depends on. Resolved at run time.",
				"examples":    []string{"Slack", "Gmail", "Salesforce"},
			},
			"delayMs": map[string]any{
				"type":        "number",
				"description": "Simulated work duration in milliseconds.",
				"minimum":     0,
			},
			"fail": map[string]any{
				"type":        "boolean",
				"description": "Force the action to fail. Used for exercising error paths.",
			},
		},
	}
}

type ActionExecutor struct {
	ActionType string
	Delay      time.Duration
	Fail       bool
}

func NewActionExecutor(config map[string]any) (*ActionExecutor, error) {
	actionType, _ := config["actionType"].(string)
	if actionType == "" {
		actionType = "generic"
	}

	delay := defaultSimulatedDelay
	if ms, ok := config["delayMs"].(float64); ok && ms >= 0 {
		delay = time.Duration(ms) * time.Millisecond
	}

	fail, _ := config["fail"].(bool)

	return &ActionExecutor{
		ActionType: actionType,
		Delay:      delay,
		Fail:       fail,
	}, nil
}

func (e *ActionExecutor) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger.Info("Executing action", "action_type", e.ActionType)

	timer := time.NewTimer(e.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if e.Fail {
		return nil, fmt.Errorf("action '%s' failed", e.ActionType)
	}

	return map[string]any{
		"status":      "completed",
		"action_type": e.ActionType,
		"duration_ms": e.Delay.Milliseconds(),
	}, nil
}
