// Package sheet provides the spreadsheet nodes: "Google Sheet" writes a form
// submission into a sheet row and FindGoogleSheet reads matching rows back as
// records.
package sheet

import (
	"context"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/protocol"
)

type GoogleSheetNodeFactory struct{}

func (f *GoogleSheetNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewWriterNode(), nil
}

func (f *GoogleSheetNodeFactory) ID() string {
	return string(models.NodeTypeGoogleSheet)
}

func (f *GoogleSheetNodeFactory) Name() string {
	return "Google Sheet"
}

func (f *GoogleSheetNodeFactory) Description() string {
	return "Writes mapped form values to a spreadsheet, updating matching rows or appending a new one."
}

func (f *GoogleSheetNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"config": map[string]any{
				"type":     "object",
				"required": []string{"spreadsheetId"},
				"properties": map[string]any{
					"spreadsheetId":   map[string]any{"type": "string", "minLength": 1},
					"sheetName":       map[string]any{"type": "string"},
					"sheetConditions": map[string]any{"type": "array"},
					"updateMultiple":  map[string]any{"type": "boolean"},
				},
			},
			"fieldMappings": map[string]any{
				"type":     "array",
				"minItems": 1,
			},
		},
		"required": []string{"config", "fieldMappings"},
	}
}

func NewGoogleSheetNodeFactory() protocol.NodeFactory {
	return &GoogleSheetNodeFactory{}
}

type FindGoogleSheetNodeFactory struct{}

func (f *FindGoogleSheetNodeFactory) Create(ctx context.Context) (protocol.Node, error) {
	return NewFinderNode(), nil
}

func (f *FindGoogleSheetNodeFactory) ID() string {
	return string(models.NodeTypeFindGoogleSheet)
}

func (f *FindGoogleSheetNodeFactory) Name() string {
	return "Find Google Sheet"
}

func (f *FindGoogleSheetNodeFactory) Description() string {
	return "Reads a spreadsheet as header keyed records and returns the rows matching the configured conditions."
}

func (f *FindGoogleSheetNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"config": map[string]any{
				"type":     "object",
				"required": []string{"spreadsheetId"},
				"properties": map[string]any{
					"spreadsheetId":       map[string]any{"type": "string", "minLength": 1},
					"sheetName":           map[string]any{"type": "string"},
					"findSheetConditions": map[string]any{"type": "array"},
					"sortOrder":           map[string]any{"enum": []string{"ASC", "DESC", "asc", "desc", ""}},
					"returnLimit":         map[string]any{"type": []string{"integer", "string"}},
				},
			},
		},
		"required": []string{"config"},
	}
}

func NewFindGoogleSheetNodeFactory() protocol.NodeFactory {
	return &FindGoogleSheetNodeFactory{}
}
