// Package formatter provides the Formatter node, which transforms one form
// value and can store the output as a new flow variable.
package formatter

import (
	"context"

	"github.com/dukex/formflow/pkg/protocol"
)

type FormatterNodeFactory struct{}

func (f *FormatterNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewFormatterNode(), nil
}

func (f *FormatterNodeFactory) ID() string {
	return "Formatter"
}

func (f *FormatterNodeFactory) Name() string {
	return "Formatter"
}

func (f *FormatterNodeFactory) Description() string {
	return "Formats dates, text, numbers and phone numbers, or evaluates a calculation, writing the result to an output variable."
}

func (f *FormatterNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"formatterConfig": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"formatType": map[string]any{
						"type": "string",
						"enum": []string{"date", "text", "number", "calculation"},
					},
					"operation":      map[string]any{"type": "string", "minLength": 1},
					"inputField":     map[string]any{"type": "string"},
					"outputVariable": map[string]any{"type": "string"},
				},
				"required": []string{"formatType", "operation"},
			},
		},
		"required": []string{"formatterConfig"},
	}
}

func NewFormatterNodeFactory() protocol.NodeFactory {
	return &FormatterNodeFactory{}
}
