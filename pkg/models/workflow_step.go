package models

// StepType classifies a workflow step. Each type maps to a registered step
// executor.
type StepType string

const (
	StepTypeTrigger   StepType = "trigger"
	StepTypeAction    StepType = "action"
	StepTypeCondition StepType = "condition"
	StepTypeTransform StepType = "transform"
)

// Position is a layout hint for the workflow editor. It has no behavioral
// meaning.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// WorkflowStep is one node in a workflow's configured sequence of operations.
type WorkflowStep struct {
	ID          string         `json:"id"          validate:"required"`
	Type        StepType       `json:"type"        validate:"required,oneof=trigger action condition transform"`
	Name        string         `json:"name"        validate:"required"`
	Config      map[string]any `json:"config,omitempty"`
	Position    Position       `json:"position"`
	Connections []string       `json:"connections,omitempty"` // Step IDs this step flows into
}

// RequiresApp reports whether the step declares a connected-app dependency
// and, if so, the app name it binds to at run time.
func (s WorkflowStep) RequiresApp() (string, bool) {
	if s.Config == nil {
		return "", false
	}

	required, _ := s.Config["requiresApp"].(bool)
	if !required {
		return "", false
	}

	name, _ := s.Config["appName"].(string)

	return name, name != ""
}

// WorkflowTrigger describes how a workflow can be started besides a manual
// run. Schedule triggers carry a cron expression in Config under "cron".
type WorkflowTrigger struct {
	ID     string         `json:"id"     validate:"required"`
	Type   string         `json:"type"   validate:"required"`
	Config map[string]any `json:"config,omitempty"`
}

// CronExpression returns the trigger's cron expression, if it has one.
func (t WorkflowTrigger) CronExpression() (string, bool) {
	if t.Config == nil {
		return "", false
	}

	expr, _ := t.Config["cron"].(string)

	return expr, expr != ""
}

// WorkflowConfig holds the ordered step list, optional triggers and free-form
// settings of a workflow.
type WorkflowConfig struct {
	Steps    []WorkflowStep    `json:"steps"`
	Triggers []WorkflowTrigger `json:"triggers,omitempty"`
	Settings map[string]any    `json:"settings,omitempty"`
}

// RetryAttempts reads the structural "retryAttempts" setting. The default
// policy is no retry.
func (c WorkflowConfig) RetryAttempts() int {
	if c.Settings == nil {
		return 0
	}

	switch v := c.Settings["retryAttempts"].(type) {
	case int:
		return max(v, 0)
	case float64:
		return max(int(v), 0)
	default:
		return 0
	}
}

// Clone returns a deep copy of the configuration.
func (c WorkflowConfig) Clone() WorkflowConfig {
	clone := WorkflowConfig{
		Settings: deepCopyMap(c.Settings),
	}

	if c.Steps != nil {
		clone.Steps = make([]WorkflowStep, len(c.Steps))
		for i, step := range c.Steps {
			copied := step
			copied.Config = deepCopyMap(step.Config)

			if step.Connections != nil {
				copied.Connections = make([]string, len(step.Connections))
				copy(copied.Connections, step.Connections)
			}

			clone.Steps[i] = copied
		}
	}

	if c.Triggers != nil {
		clone.Triggers = make([]WorkflowTrigger, len(c.Triggers))
		for i, trigger := range c.Triggers {
			copied := trigger
			copied.Config = deepCopyMap(trigger.Config)
			clone.Triggers[i] = copied
		}
	}

	return clone
}

// StepByID finds a step by its identifier within the configuration.
func (c WorkflowConfig) StepByID(id string) (WorkflowStep, bool) {
	for _, step := range c.Steps {
		if step.ID == id {
			return step, true
		}
	}

	return WorkflowStep{}, false
}

func deepCopyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))

	for k, v := range src {
		switch typed := v.(type) {
		case map[string]any:
			dst[k] = deepCopyMap(typed)
		case []any:
			copied := make([]any, len(typed))
			for i, item := range typed {
				if nested, ok := item.(map[string]any); ok {
					copied[i] = deepCopyMap(nested)
				} else {
					copied[i] = item
				}
			}

			dst[k] = copied
		default:
			dst[k] = v
		}
	}

	return dst
}
