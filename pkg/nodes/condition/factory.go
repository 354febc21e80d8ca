// Package condition provides the Condition node, which gates the nodes that
// follow it through the run's skip mode.
package condition

import (
	"context"

	"github.com/dukex/formflow/pkg/protocol"
)

type ConditionNodeFactory struct{}

func (f *ConditionNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewConditionNode(), nil
}

func (f *ConditionNodeFactory) ID() string {
	return "Condition"
}

func (f *ConditionNodeFactory) Name() string {
	return "Condition"
}

func (f *ConditionNodeFactory) Description() string {
	return "Rules run the following nodes only when their conditions match, Fallback runs them only when the preceding Rules did not match, Always Run runs them unconditionally."
}

func (f *ConditionNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"pathOption": map[string]any{
				"type":        "string",
				"enum":        []string{"Rules", "Fallback", "Always Run", ""},
				"description": "How this branch is selected",
			},
			"salesforceObject": map[string]any{
				"type":        "string",
				"description": "Object queried by Rules; empty evaluates the conditions against the form values",
			},
		},
	}
}

func NewConditionNodeFactory() protocol.NodeFactory {
	return &ConditionNodeFactory{}
}
