package file

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

const workflowCollection = "workflows"

// WorkflowRepository stores workflow aggregates as JSON documents.
type WorkflowRepository struct {
	root string
	mu   sync.Mutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

// FindByID returns the workflow with the given id, or nil when absent.
func (wr *WorkflowRepository) FindByID(_ context.Context, id identity.WorkflowID) (*models.Workflow, error) {
	var workflow models.Workflow

	found, err := readDocument(wr.root, workflowCollection, id.Int64(), &workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("FindByID", id.Int64(), err)
	}

	if !found {
		return nil, nil
	}

	return &workflow, nil
}

// FindAll returns every stored workflow ordered by creation time descending.
func (wr *WorkflowRepository) FindAll(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := listDocumentIDs(wr.root, workflowCollection)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.FindByID(ctx, identity.WorkflowID(id))
		if err != nil {
			return nil, err
		}

		if workflow != nil {
			workflows = append(workflows, workflow)
		}
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

// FindByUserID returns the user's workflows ordered by creation time
// descending.
func (wr *WorkflowRepository) FindByUserID(ctx context.Context, userID identity.UserID) ([]*models.Workflow, error) {
	all, err := wr.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.UserID == userID {
			owned = append(owned, workflow)
		}
	}

	return owned, nil
}

// FindRecentByUserID returns up to limit workflows ordered by most recent
// activity, falling back to creation time for never-run workflows.
func (wr *WorkflowRepository) FindRecentByUserID(ctx context.Context, userID identity.UserID, limit int) ([]*models.Workflow, error) {
	owned, err := wr.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(owned, func(i, j int) bool {
		return activityTime(owned[i]).After(activityTime(owned[j]))
	})

	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}

	return owned, nil
}

// FindActiveByUserID returns the user's active workflows.
func (wr *WorkflowRepository) FindActiveByUserID(ctx context.Context, userID identity.UserID) ([]*models.Workflow, error) {
	owned, err := wr.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Workflow, 0)

	for _, workflow := range owned {
		if workflow.Status == models.WorkflowStatusActive {
			active = append(active, workflow)
		}
	}

	return active, nil
}

// FindByStatus returns every workflow in the given status.
func (wr *WorkflowRepository) FindByStatus(ctx context.Context, status models.WorkflowStatus) ([]*models.Workflow, error) {
	all, err := wr.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.Status == status {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

// Save persists a new workflow and assigns its identifier.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if workflow.ID.IsZero() {
		next, err := nextDocumentID(wr.root, workflowCollection)
		if err != nil {
			return persistence.NewWorkflowError("Save", 0, err)
		}

		workflow.ID = identity.WorkflowID(next)
	}

	workflow.Version = 1

	if err := writeDocument(wr.root, workflowCollection, workflow.ID.Int64(), workflow); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID.Int64(), err)
	}

	return nil
}

// Update persists a loaded workflow, guarding against concurrent writers via
// the stored version.
func (wr *WorkflowRepository) Update(_ context.Context, workflow *models.Workflow) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if workflow.ID.IsZero() {
		return persistence.NewWorkflowError("Update", 0, persistence.ErrMissingID)
	}

	var stored models.Workflow

	found, err := readDocument(wr.root, workflowCollection, workflow.ID.Int64(), &stored)
	if err != nil {
		return persistence.NewWorkflowError("Update", workflow.ID.Int64(), err)
	}

	if !found {
		return persistence.NewWorkflowError("Update", workflow.ID.Int64(), persistence.ErrWorkflowNotFound)
	}

	if stored.Version != workflow.Version {
		return persistence.NewWorkflowError("Update", workflow.ID.Int64(), persistence.ErrVersionConflict)
	}

	workflow.Version++

	if err := writeDocument(wr.root, workflowCollection, workflow.ID.Int64(), workflow); err != nil {
		return persistence.NewWorkflowError("Update", workflow.ID.Int64(), err)
	}

	return nil
}

// Delete removes the stored workflow document.
func (wr *WorkflowRepository) Delete(_ context.Context, id identity.WorkflowID) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if err := deleteDocument(wr.root, workflowCollection, id.Int64()); err != nil {
		return persistence.NewWorkflowError("Delete", id.Int64(), err)
	}

	return nil
}

// CountByUserID counts the user's workflows.
func (wr *WorkflowRepository) CountByUserID(ctx context.Context, userID identity.UserID) (int64, error) {
	owned, err := wr.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	return int64(len(owned)), nil
}

// CountActiveByUserID counts the user's active workflows.
func (wr *WorkflowRepository) CountActiveByUserID(ctx context.Context, userID identity.UserID) (int64, error) {
	active, err := wr.FindActiveByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}

	return int64(len(active)), nil
}

// SearchByName returns workflows whose name or description contains the
// query, case-insensitive, optionally scoped to one user.
func (wr *WorkflowRepository) SearchByName(ctx context.Context, query string, userID *identity.UserID) ([]*models.Workflow, error) {
	all, err := wr.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if userID != nil && workflow.UserID != *userID {
			continue
		}

		if strings.Contains(strings.ToLower(workflow.Name), needle) ||
			strings.Contains(strings.ToLower(workflow.Description), needle) {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

func activityTime(w *models.Workflow) time.Time {
	if w.LastRun != nil {
		return *w.LastRun
	}

	return w.CreatedAt
}
