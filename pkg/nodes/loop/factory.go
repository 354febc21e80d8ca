// Package loop provides the Loop node, which iterates over the ids produced
// by an earlier node.
package loop

import (
	"context"

	"github.com/dukex/formflow/pkg/protocol"
)

type LoopNodeFactory struct{}

func (f *LoopNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewLoopNode(), nil
}

func (f *LoopNodeFactory) ID() string {
	return "Loop"
}

func (f *LoopNodeFactory) Name() string {
	return "Loop"
}

func (f *LoopNodeFactory) Description() string {
	return "Iterates over the ids of a prior Find node, exposing the current item and optional index and counter variables."
}

func (f *LoopNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"loopConfig": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"loopCollection": map[string]any{
						"type":        "string",
						"minLength":   1,
						"description": "Node id whose ids are iterated",
					},
					"currentItemVariableName": map[string]any{"type": "string"},
					"maxIterations":           map[string]any{"type": "integer", "minimum": 0},
				},
				"required": []string{"loopCollection"},
			},
		},
		"required": []string{"loopConfig"},
	}
}

func NewLoopNodeFactory() protocol.NodeFactory {
	return &LoopNodeFactory{}
}
