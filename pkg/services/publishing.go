package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/formflow/pkg/formatter"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/registry"
)

// Publishing stores the node mappings of a form version so later runs may
// send nodes by id only.
type Publishing struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

func NewPublishing(persistence persistence.Persistence, registry *registry.Registry) *Publishing {
	return &Publishing{
		persistence: persistence,
		registry:    registry,
	}
}

// HealthCheck checks the health of the persistence layer.
func (p *Publishing) HealthCheck(ctx context.Context) (string, bool) {
	if p.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := p.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Publish normalizes raw node definitions, validates every executable node
// against its type's schema and replaces the stored mappings.
func (p *Publishing) Publish(ctx context.Context, formVersionID string, raw []map[string]any) ([]*models.Node, error) {
	if formVersionID == "" {
		return nil, NewValidationError("Publish", "form_version_required", ErrFormVersionRequired.Error(), ErrFormVersionRequired)
	}

	nodes, err := models.NormalizeNodes(raw)
	if err != nil {
		return nil, NewValidationError("Publish", "invalid_node", err.Error(), errors.Join(ErrInvalidNodeMapping, err))
	}

	for _, node := range nodes {
		if node.Type.IsStructural() {
			continue
		}

		if err := p.registry.Validate(node); err != nil {
			return nil, NewValidationError("Publish", "invalid_node", err.Error(), errors.Join(ErrInvalidNodeMapping, err))
		}

		if cfg := node.FormatterConfig; node.Type == models.NodeTypeFormatter && cfg != nil && !formatter.Supported(cfg.FormatType, cfg.Operation) {
			err := fmt.Errorf("%w: %s %q on node %s", ErrUnsupportedFormatter, cfg.FormatType, cfg.Operation, node.NodeID)
			return nil, NewValidationError("Publish", "unsupported_formatter", err.Error(), errors.Join(ErrInvalidNodeMapping, err))
		}
	}

	if err := p.persistence.SaveNodeMappings(ctx, formVersionID, nodes); err != nil {
		return nil, fmt.Errorf("failed to save node mappings: %w", err)
	}

	return nodes, nil
}

// Mappings returns the stored nodes of a form version.
func (p *Publishing) Mappings(ctx context.Context, formVersionID string) ([]*models.Node, error) {
	return p.persistence.NodeMappings(ctx, formVersionID)
}

// Mapping returns one stored node.
func (p *Publishing) Mapping(ctx context.Context, formVersionID, nodeID string) (*models.Node, error) {
	return p.persistence.NodeMapping(ctx, formVersionID, nodeID)
}
