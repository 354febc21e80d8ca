// Package web provides HTTP handlers for running and publishing mapping flows.
package web

import (
	"encoding/json"
	"strings"

	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	runner     *services.Runner
	publishing *services.Publishing
	validator  *validator.Validate
}

func NewAPIHandlers(
	runner *services.Runner,
	publishing *services.Publishing,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		runner:     runner,
		publishing: publishing,
		validator:  validator,
	}
}

// RunMapping executes the submitted flow with the caller's bearer token.
func (h *APIHandlers) RunMapping(c fiber.Ctx) error {
	body := c.Body()

	issues, err := validateRunBody(body)
	if err != nil {
		return badRequest(c, "Invalid JSON body: "+err.Error())
	}

	if len(issues) > 0 {
		return badRequest(c, joinIssues(issues))
	}

	var req RunMappingRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	nodes, err := models.NormalizeNodes(req.Nodes)
	if err != nil {
		return badRequest(c, "Invalid node: "+err.Error())
	}

	runReq := &models.RunRequest{
		UserID:        req.UserID,
		InstanceURL:   req.InstanceURL,
		AccessToken:   bearerToken(c.Get(fiber.HeaderAuthorization)),
		FormID:        req.FormID,
		FormVersionID: req.FormVersionID,
		SubmissionID:  req.SubmissionID,
		FormData:      req.FormData,
		Nodes:         nodes,
	}

	result, err := h.runner.Run(c.Context(), runReq)

	resp := RunMappingResponse{Results: map[string]models.NodeResult{}}
	if result != nil {
		resp.Results = result.Results
		resp.NewAccessToken = result.NewAccessToken
	}

	if err != nil {
		log.WithModule("web").Warn("mapping run failed", "form_version_id", req.FormVersionID, "submission_id", req.SubmissionID, "error", err)

		return handleRunError(c, resp, err)
	}

	resp.Success = true

	return c.JSON(resp)
}

// ValidateLogic answers 200 for both outcomes; an invalid expression is not a
// request error.
func (h *APIHandlers) ValidateLogic(c fiber.Ctx) error {
	var req ValidateLogicRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	if err := services.ValidateLogic(req.Expression, req.ConditionCount); err != nil {
		return c.JSON(ValidateLogicResponse{Valid: false, Error: err.Error()})
	}

	return c.JSON(ValidateLogicResponse{Valid: true})
}

func (h *APIHandlers) PreviewQuery(c fiber.Ctx) error {
	var req QueryPreviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	query, err := services.PreviewQuery(req.Node)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(QueryPreviewResponse{Query: query})
}

func (h *APIHandlers) PublishMappings(c fiber.Ctx) error {
	formVersionID := c.Params("formVersionId")

	var req PublishMappingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	nodes, err := h.publishing.Publish(c.Context(), formVersionID, req.Nodes)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MappingsResponse{FormVersionID: formVersionID, Nodes: nodes})
}

func (h *APIHandlers) GetMappings(c fiber.Ctx) error {
	formVersionID := c.Params("formVersionId")

	nodes, err := h.publishing.Mappings(c.Context(), formVersionID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(MappingsResponse{FormVersionID: formVersionID, Nodes: nodes})
}

func (h *APIHandlers) GetMapping(c fiber.Ctx) error {
	node, err := h.publishing.Mapping(c.Context(), c.Params("formVersionId"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, healthy := h.publishing.HealthCheck(c.Context())
	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":  "unhealthy",
			"message": message,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": message,
	})
}

func bearerToken(header string) string {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}

	return strings.TrimSpace(token)
}
