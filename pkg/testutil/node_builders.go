// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/formflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(nodeType models.NodeType, overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		NodeID: uuid.New().String(),
		Type:   nodeType,
		Label:  "Test Node",
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.NodeID = id
	}
}

// WithOrder sets the node order.
func WithOrder(order int) func(*models.Node) {
	return func(n *models.Node) {
		n.Order = order
	}
}

// WithObject sets the CRM object the node works on.
func WithObject(object string) func(*models.Node) {
	return func(n *models.Node) {
		n.SalesforceObject = object
	}
}

// WithConditions sets AND joined conditions.
func WithConditions(conds ...models.Condition) func(*models.Node) {
	return func(n *models.Node) {
		n.Conditions = &models.ConditionSet{Conditions: conds, LogicType: models.LogicAnd}
	}
}

// WithLogic changes the join logic of the node's conditions.
func WithLogic(logicType models.LogicType, custom string) func(*models.Node) {
	return func(n *models.Node) {
		if n.Conditions == nil {
			n.Conditions = &models.ConditionSet{}
		}

		n.Conditions.LogicType = logicType
		n.Conditions.CustomLogic = custom
	}
}

// WithMappings sets the field mappings.
func WithMappings(mappings ...models.FieldMapping) func(*models.Node) {
	return func(n *models.Node) {
		n.FieldMappings = mappings
	}
}

// WithPathOption sets the Condition node path option.
func WithPathOption(option models.PathOption) func(*models.Node) {
	return func(n *models.Node) {
		n.PathOption = option
	}
}

// WithLoop sets the loop configuration.
func WithLoop(cfg models.LoopConfig) func(*models.Node) {
	return func(n *models.Node) {
		n.LoopConfig = &cfg
	}
}

// WithFormatter sets the formatter configuration.
func WithFormatter(cfg models.FormatterConfig) func(*models.Node) {
	return func(n *models.Node) {
		n.FormatterConfig = &cfg
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Config = config
	}
}
