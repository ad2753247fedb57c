// Package condition provides the step executor that gates a run on a field
// comparison against earlier step results or trigger data.
package condition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/protocol"
)

func NewConditionExecutorFactory() *ConditionExecutorFactory {
	return &ConditionExecutorFactory{}
}

type ConditionExecutorFactory struct{}

func (f *ConditionExecutorFactory) Create(config map[string]any) (protocol.StepExecutor, error) {
	return NewConditionExecutor(config)
}

func (f *ConditionExecutorFactory) ID() string {
	return "condition"
}

func (f *ConditionExecutorFactory) Name() string {
	return "Condition"
}

func (f *ConditionExecutorFactory) Description() string {
	return "Compares a field from earlier step results or trigger data against an expected value."
}

func (f *ConditionExecutorFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type":        "string",
				"description": "Dotted path to the field under test. The first segment is a step ID, or 'trigger' for trigger data.",
				"examples":    []string{"fetch_users.status", "trigger.event"},
			},
			"operator": map[string]any{
				"type": "string",
				"enum": []string{"equals", "not_equals", "contains"},
			},
			"value": map[string]any{
				"description": "Expected value for the comparison.",
			},
		},
	}
}

type ConditionExecutor struct {
	Field    string
	Operator string
	Value    any
}

func NewConditionExecutor(config map[string]any) (*ConditionExecutor, error) {
	field, _ := config["field"].(string)

	operator, _ := config["operator"].(string)
	if operator == "" {
		operator = "equals"
	}

	return &ConditionExecutor{
		Field:    field,
		Operator: operator,
		Value:    config["value"],
	}, nil
}

func (e *ConditionExecutor) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// An unconfigured condition passes, so template workflows run end to end
	// before the user fills in the details.
	if e.Field == "" {
		logger.Info("Condition has no field configured, passing")

		return map[string]any{"matched": true}, nil
	}

	actual, found := e.resolve(executionCtx)
	if !found {
		logger.Warn("Condition field not found", "field", e.Field)

		return map[string]any{"matched": false, "field": e.Field}, nil
	}

	matched, err := e.compare(actual)
	if err != nil {
		return nil, err
	}

	logger.Info("Condition evaluated", "field", e.Field, "matched", matched)

	return map[string]any{"matched": matched, "field": e.Field}, nil
}

func (e *ConditionExecutor) resolve(executionCtx models.ExecutionContext) (any, bool) {
	segments := strings.Split(e.Field, ".")

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

func (e *ConditionExecutor) compare(actual any) (bool, error) {
	switch e.Operator {
	case "equals":
		return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", e.Value), nil
	case "not_equals":
		return fmt.Sprintf("%v", actual) != fmt.Sprintf("%v", e.Value), nil
	case "contains":
		return strings.Contains(fmt.Sprintf("%v", actual), fmt.Sprintf("%v", e.Value)), nil
	default:
		return false, fmt.Errorf("unknown condition operator '%s'", e.Operator)
	}
}
