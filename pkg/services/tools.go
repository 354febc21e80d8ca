package services

import (
	"errors"

	"github.com/dukex/formflow/pkg/logic"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/soql"
)

// ValidateLogic checks a custom logic expression typed in the editor. A
// rejected expression is reported through the returned ValidationError.
func ValidateLogic(expression string, conditionCount int) error {
	if conditionCount <= 0 {
		return NewValidationError("ValidateLogic", "invalid_condition_count", ErrInvalidLogicRequest.Error(), ErrInvalidLogicRequest)
	}

	return logic.Validate(expression, conditionCount)
}

// PreviewQuery renders the statement a node would issue.
func PreviewQuery(raw map[string]any) (string, error) {
	if len(raw) == 0 {
		return "", NewValidationError("PreviewQuery", "node_required", ErrQueryPreviewRequired.Error(), ErrQueryPreviewRequired)
	}

	node, err := models.NormalizeNode(raw)
	if err != nil {
		return "", NewValidationError("PreviewQuery", "invalid_node", err.Error(), errors.Join(ErrInvalidNodeMapping, err))
	}

	query, err := soql.Build(node)
	if err != nil {
		return "", NewValidationError("PreviewQuery", "invalid_node", err.Error(), errors.Join(ErrInvalidNodeMapping, err))
	}

	return query, nil
}
