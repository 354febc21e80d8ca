// Package file provides file-based persistence of node mappings, one JSON
// document per form version.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) path(formVersionID string) string {
	return filepath.Join(fp.root, "mappings", filepath.Base(formVersionID)+".json")
}

// NodeMappings reads the form version document. Documents may hold either
// the persisted or the camelCase node shape.
func (fp *Persistence) NodeMappings(_ context.Context, formVersionID string) ([]*models.Node, error) {
	data, err := os.ReadFile(fp.path(formVersionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewMappingError("NodeMappings", formVersionID, "", persistence.ErrFormVersionNotFound)
		}

		return nil, persistence.NewMappingError("NodeMappings", formVersionID, "", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, persistence.NewMappingError("NodeMappings", formVersionID, "", fmt.Errorf("decoding document: %w", err))
	}

	nodes, err := models.NormalizeNodes(raw)
	if err != nil {
		return nil, persistence.NewMappingError("NodeMappings", formVersionID, "", err)
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Order < nodes[j].Order
	})

	return nodes, nil
}

func (fp *Persistence) NodeMapping(ctx context.Context, formVersionID, nodeID string) (*models.Node, error) {
	nodes, err := fp.NodeMappings(ctx, formVersionID)
	if err != nil {
		return nil, err
	}

	return persistence.FindNode(formVersionID, nodeID, nodes)
}

// SaveNodeMappings replaces the form version document.
func (fp *Persistence) SaveNodeMappings(_ context.Context, formVersionID string, nodes []*models.Node) error {
	path := fp.path(formVersionID)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return persistence.NewMappingError("SaveNodeMappings", formVersionID, "", err)
	}

	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return persistence.NewMappingError("SaveNodeMappings", formVersionID, "", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return persistence.NewMappingError("SaveNodeMappings", formVersionID, "", err)
	}

	return nil
}
