package file

import (
	"context"
	"sort"
	"sync"

	"github.com/flowdeck/flowdeck/pkg/identity"
	"github.com/flowdeck/flowdeck/pkg/models"
	"github.com/flowdeck/flowdeck/pkg/persistence"
)

const templateCollection = "templates"

// TemplateRepository stores workflow templates as JSON documents.
type TemplateRepository struct {
	root string
	mu   sync.Mutex
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(root string) *TemplateRepository {
	return &TemplateRepository{root: root}
}

// FindByID returns the template with the given id, or nil when absent.
func (tr *TemplateRepository) FindByID(_ context.Context, id identity.TemplateID) (*models.Template, error) {
	var template models.Template

	found, err := readDocument(tr.root, templateCollection, id.Int64(), &template)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &template, nil
}

// FindAll returns every template ordered by usage descending.
func (tr *TemplateRepository) FindAll(ctx context.Context) ([]*models.Template, error) {
	ids, err := listDocumentIDs(tr.root, templateCollection)
	if err != nil {
		return nil, err
	}

	templates := make([]*models.Template, 0, len(ids))

	for _, id := range ids {
		template, err := tr.FindByID(ctx, identity.TemplateID(id))
		if err != nil {
			return nil, err
		}

		if template != nil {
			templates = append(templates, template)
		}
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].UseCount > templates[j].UseCount
	})

	return templates, nil
}

// Save persists a new template and assigns its identifier.
func (tr *TemplateRepository) Save(_ context.Context, template *models.Template) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if template.ID.IsZero() {
		next, err := nextDocumentID(tr.root, templateCollection)
		if err != nil {
			return err
		}

		template.ID = identity.TemplateID(next)
	}

	return writeDocument(tr.root, templateCollection, template.ID.Int64(), template)
}

// Update persists a loaded template.
func (tr *TemplateRepository) Update(_ context.Context, template *models.Template) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if template.ID.IsZero() {
		return persistence.ErrMissingID
	}

	var stored models.Template

	found, err := readDocument(tr.root, templateCollection, template.ID.Int64(), &stored)
	if err != nil {
		return err
	}

	if !found {
		return persistence.ErrTemplateNotFound
	}

	return writeDocument(tr.root, templateCollection, template.ID.Int64(), template)
}
