package web

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// runRequestSchema rejects malformed run bodies before they are decoded.
var runRequestSchema = gojsonschema.NewGoLoader(map[string]any{
	"type":     "object",
	"required": []string{"userId", "instanceUrl", "formVersionId", "submissionId", "nodes"},
	"properties": map[string]any{
		"userId":        map[string]any{"type": "string", "minLength": 1},
		"instanceUrl":   map[string]any{"type": "string", "minLength": 1},
		"formId":        map[string]any{"type": "string"},
		"formVersionId": map[string]any{"type": "string", "minLength": 1},
		"submissionId":  map[string]any{"type": "string", "minLength": 1},
		"formData":      map[string]any{"type": "object"},
		"nodes": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "object"},
		},
	},
})

// validateRunBody returns the schema violations of body, or nil.
func validateRunBody(body []byte) ([]string, error) {
	result, err := gojsonschema.Validate(runRequestSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}

	if result.Valid() {
		return nil, nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}

	return issues, nil
}

func joinIssues(issues []string) string {
	return strings.Join(issues, "; ")
}
