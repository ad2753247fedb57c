package workflow

import (
	"context"
	"fmt"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

// ValidateWorkflow checks whether a workflow is structurally runnable: it has
// at least one step, every connection references an existing step, every step
// type has a registered executor and every app dependency resolves to a
// connected app. It never mutates the aggregate or repository state.
func (s *ExecutionService) ValidateWorkflow(ctx context.Context, workflowID identity.WorkflowID) (*ValidationResult, error) {
	workflow, err := s.workflows.FindByID(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflow %d: %w", workflowID, err)
	}

	if workflow == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	var validationErrors []string

	if len(workflow.Config.Steps) == 0 {
		validationErrors = append(validationErrors, "workflow has no steps")
	}

	stepIDs := make(map[string]bool, len(workflow.Config.Steps))
	for _, step := range workflow.Config.Steps {
		stepIDs[step.ID] = true
	}

	var inventoryErr error

	inventory := map[string]bool{}
	inventoryLoaded := false

	for _, step := range workflow.Config.Steps {
		if s.registry != nil && !s.registry.IsRegistered(step.Type) {
			validationErrors = append(validationErrors,
				fmt.Sprintf("step %s has unknown type %s", step.ID, step.Type))
		}

		for _, target := range step.Connections {
			if !stepIDs[target] {
				validationErrors = append(validationErrors,
					fmt.Sprintf("step %s references non-existent step %s", step.ID, target))
			}
		}

		appName, required := step.RequiresApp()
		if !required {
			continue
		}

		if !inventoryLoaded {
			inventory, inventoryErr = s.connectedAppNames(ctx, workflow.UserID)
			if inventoryErr != nil {
				return nil, fmt.Errorf("failed to load connected apps: %w", inventoryErr)
			}

			inventoryLoaded = true
		}

		if !inventory[appName] {
			validationErrors = append(validationErrors,
				fmt.Sprintf("required app %s is not connected", appName))
		}
	}

	return &ValidationResult{
		IsValid: len(validationErrors) == 0,
		Errors:  validationErrors,
	}, nil
}

func (s *ExecutionService) connectedAppNames(ctx context.Context, userID identity.UserID) (map[string]bool, error) {
	apps, err := s.apps.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]bool, len(apps))
	for _, app := range apps {
		if app.IsConnected() && app.HasValidToken() {
			names[app.Name] = true
		}
	}

	return names, nil
}
