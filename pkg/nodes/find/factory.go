// Package find provides the Find and Filter nodes, which look up the ids of
// CRM records matching a condition set.
package find

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/protocol"
)

// FindNodeFactory creates FindNode instances for one of the lookup types.
type FindNodeFactory struct {
	nodeType models.NodeType
}

func (f *FindNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewFindNode(), nil
}

func (f *FindNodeFactory) ID() string {
	return string(f.nodeType)
}

func (f *FindNodeFactory) Name() string {
	return string(f.nodeType)
}

func (f *FindNodeFactory) Description() string {
	return "Queries a CRM object with the node's conditions and exposes the matching record ids to later nodes."
}

func (f *FindNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"salesforceObject": map[string]any{
				"type":        "string",
				"description": "Object to query. When empty the node filters the records of config.sourceNodeId instead.",
			},
			"conditions": map[string]any{
				"type":     "object",
				"required": []string{"conditions"},
				"properties": map[string]any{
					"conditions": map[string]any{"type": "array", "minItems": 1},
					"logicType":  map[string]any{"enum": []string{"AND", "OR", "Custom"}},
					"returnLimit": map[string]any{
						"type":    "integer",
						"minimum": 0,
					},
				},
			},
		},
		"required": []string{"conditions"},
	}
}

func NewFindNodeFactory(nodeType models.NodeType) protocol.NodeFactory {
	return &FindNodeFactory{nodeType: nodeType}
}
