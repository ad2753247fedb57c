// Package file provides a file-system persistence implementation. Each
// aggregate is stored as one JSON document under the root directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flowdeck/flowdeck/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of the file system.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
	appRepo      *ConnectedAppRepository
	templateRepo *TemplateRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory. A "file://" prefix is stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(cleanRoot),
		appRepo:      NewConnectedAppRepository(cleanRoot),
		templateRepo: NewTemplateRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file persistence there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) ConnectedAppRepository() persistence.ConnectedAppRepository {
	return fp.appRepo
}

func (fp *Persistence) TemplateRepository() persistence.TemplateRepository {
	return fp.templateRepo
}

// Shared document helpers for the per-aggregate repositories.

func documentPath(root, collection string, id int64) string {
	return filepath.Join(root, collection, strconv.FormatInt(id, 10)+".json")
}

func writeDocument(root, collection string, id int64, doc any) error {
	dir := filepath.Join(root, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", collection, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", collection, err)
	}

	if err := os.WriteFile(documentPath(root, collection, id), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s document: %w", collection, err)
	}

	return nil
}

func readDocument(root, collection string, id int64, doc any) (bool, error) {
	data, err := os.ReadFile(documentPath(root, collection, id))
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s document: %w", collection, err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s document: %w", collection, err)
	}

	return true, nil
}

func deleteDocument(root, collection string, id int64) error {
	err := os.Remove(documentPath(root, collection, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s document: %w", collection, err)
	}

	return nil
}

// listDocumentIDs returns the numeric ids of every stored document in a
// collection.
func listDocumentIDs(root, collection string) ([]int64, error) {
	entries, err := os.ReadDir(filepath.Join(root, collection))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", collection, err)
	}

	ids := make([]int64, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		id, err := strconv.ParseInt(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil {
			continue
		}

		ids = append(ids, id)
	}

	return ids, nil
}

// nextDocumentID allocates the next identifier in a collection. Callers hold
// the repository mutex.
func nextDocumentID(root, collection string) (int64, error) {
	ids, err := listDocumentIDs(root, collection)
	if err != nil {
		return 0, err
	}

	var maxID int64
	for _, id := range ids {
		if id > maxID {
			maxID = id
		}
	}

	return maxID + 1, nil
}
