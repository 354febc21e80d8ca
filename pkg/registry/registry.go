// Package registry maps node types to their executor factories.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var ErrUnknownNodeType = errors.New("node type not registered")

// SchemaError lists the schema violations of a node definition.
type SchemaError struct {
	NodeID string
	Issues []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("node %s is invalid: %s", e.NodeID, strings.Join(e.Issues, "; "))
}

type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeType]protocol.NodeFactory

	mu      sync.Mutex
	schemas map[models.NodeType]*gojsonschema.Schema
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:    log,
		factories: make(map[models.NodeType]protocol.NodeFactory),
		schemas:   make(map[models.NodeType]*gojsonschema.Schema),
	}
}

func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.factories[models.NodeType(factory.ID())] = factory
	r.logger.Debug("node registered", "type", factory.ID())
}

func (r *Registry) CreateNode(ctx context.Context, nodeType models.NodeType) (protocol.Node, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}

	return factory.Create(ctx)
}

// Validate checks a node definition against its factory's schema.
func (r *Registry) Validate(node *models.Node) error {
	schema, err := r.schema(node.Type)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(node))
	if err != nil {
		return fmt.Errorf("validating node %s: %w", node.NodeID, err)
	}

	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}

	return &SchemaError{NodeID: node.NodeID, Issues: issues}
}

func (r *Registry) schema(nodeType models.NodeType) (*gojsonschema.Schema, error) {
	factory, ok := r.factories[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, nodeType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if schema, ok := r.schemas[nodeType]; ok {
		return schema, nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(factory.Schema()))
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", nodeType, err)
	}

	r.schemas[nodeType] = schema

	return schema, nil
}

// Factories returns the registered factories ordered by type.
func (r *Registry) Factories() []protocol.NodeFactory {
	out := make([]protocol.NodeFactory, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID() < out[j].ID()
	})

	return out
}
