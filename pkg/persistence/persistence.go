// Package persistence stores the node mappings a form version was published
// with, so flow requests may reference nodes by id alone.
package persistence

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
)

type Persistence interface {
	// NodeMappings returns the nodes of a form version ordered by their order.
	NodeMappings(ctx context.Context, formVersionID string) ([]*models.Node, error)
	NodeMapping(ctx context.Context, formVersionID, nodeID string) (*models.Node, error)
	SaveNodeMappings(ctx context.Context, formVersionID string, nodes []*models.Node) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// FindNode picks nodeID out of nodes.
func FindNode(formVersionID, nodeID string, nodes []*models.Node) (*models.Node, error) {
	for _, n := range nodes {
		if n.NodeID == nodeID {
			return n, nil
		}
	}

	return nil, NewMappingError("NodeMapping", formVersionID, nodeID, ErrMappingNotFound)
}
