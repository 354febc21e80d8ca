// Package web provides HTTP request and response types for the mapping API.
package web

import "github.com/dukex/formflow/pkg/models"

// RunMappingRequest is the body of POST /mappings/run. Nodes may use either
// the persisted or the camelCase node shape.
type RunMappingRequest struct {
	UserID        string           `json:"userId"        validate:"required"`
	InstanceURL   string           `json:"instanceUrl"   validate:"required,url"`
	FormID        string           `json:"formId"`
	FormVersionID string           `json:"formVersionId" validate:"required"`
	SubmissionID  string           `json:"submissionId"  validate:"required"`
	FormData      map[string]any   `json:"formData"`
	Nodes         []map[string]any `json:"nodes"         validate:"required,min=1"`
}

// RunMappingResponse always carries the results map, also on failure.
type RunMappingResponse struct {
	Success        bool                         `json:"success"`
	Results        map[string]models.NodeResult `json:"results"`
	NewAccessToken string                       `json:"newAccessToken,omitempty"`
	Error          string                       `json:"error,omitempty"`
}

type ValidateLogicRequest struct {
	Expression     string `json:"expression"     validate:"required"`
	ConditionCount int    `json:"conditionCount" validate:"min=1"`
}

type ValidateLogicResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type QueryPreviewRequest struct {
	Node map[string]any `json:"node" validate:"required"`
}

type QueryPreviewResponse struct {
	Query string `json:"query"`
}

// PublishMappingsRequest replaces the stored nodes of a form version.
type PublishMappingsRequest struct {
	Nodes []map[string]any `json:"nodes" validate:"required,min=1"`
}

type MappingsResponse struct {
	FormVersionID string         `json:"formVersionId"`
	Nodes         []*models.Node `json:"nodes"`
}
