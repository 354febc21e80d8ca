// Package createupdate provides the CreateUpdate node: update the records
// matching the node's conditions, or create one when nothing matches.
package createupdate

import (
	"context"

	"github.com/dukex/formflow/pkg/protocol"
)

// CreateUpdateNodeFactory creates CreateUpdateNode instances.
type CreateUpdateNodeFactory struct{}

func (f *CreateUpdateNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewCreateUpdateNode(), nil
}

func (f *CreateUpdateNodeFactory) ID() string {
	return "CreateUpdate"
}

func (f *CreateUpdateNodeFactory) Name() string {
	return "Create / Update"
}

func (f *CreateUpdateNodeFactory) Description() string {
	return "Writes mapped form values to a CRM object. Records matching the conditions are batch updated; when none match a new record is created."
}

func (f *CreateUpdateNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"salesforceObject": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "API name of the target object",
				"examples":    []string{"Contact", "Account", "Custom_Object__c"},
			},
			"fieldMappings": map[string]any{
				"type":        "array",
				"description": "Form field to object field bindings",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"salesforceField"},
				},
			},
		},
		"required": []string{"salesforceObject"},
	}
}

func NewCreateUpdateNodeFactory() protocol.NodeFactory {
	return &CreateUpdateNodeFactory{}
}
