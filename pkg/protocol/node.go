// Package protocol defines the contracts between the flow executor and the
// node implementations.
package protocol

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
)

// Node executes one mapping node against the run's execution context.
// Returning an error fails the node; executors that can describe their
// own failure return a failed result and a nil error instead.
type Node interface {
	Execute(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error)
}

// NodeFactory creates node executors and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new executor instance
	Create(ctx context.Context) (Node, error)

	// ID returns the node type this factory serves
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema a node definition must satisfy
	Schema() map[string]any
}
