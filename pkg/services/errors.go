// Package services runs mapping flows and manages the node mappings stored
// per form version.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/sheets"
	"github.com/dukex/formflow/pkg/tokens"
	"github.com/dukex/formflow/pkg/workflow"
)

// Validation Errors (400 Bad Request).
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUserIDRequired       = errors.New("userId is required")
	ErrInstanceURLRequired  = errors.New("instanceUrl is required")
	ErrFormVersionRequired  = errors.New("formVersionId is required")
	ErrSubmissionRequired   = errors.New("submissionId is required")
	ErrNodesRequired        = errors.New("at least one executable node is required")
	ErrInvalidNodeMapping   = errors.New("invalid node mapping")
	ErrUnsupportedFormatter = errors.New("unsupported formatter operation")
	ErrInvalidLogicRequest  = errors.New("conditionCount must be positive")
	ErrQueryPreviewRequired = errors.New("node is required")
)

// ErrFlowFailed means at least one node failed; the results are still returned.
var ErrFlowFailed = errors.New("mapping flow failed")

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError reports errors that map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUserIDRequired) ||
		errors.Is(err, ErrInstanceURLRequired) ||
		errors.Is(err, ErrFormVersionRequired) ||
		errors.Is(err, ErrSubmissionRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrInvalidNodeMapping) ||
		errors.Is(err, ErrInvalidLogicRequest) ||
		errors.Is(err, ErrQueryPreviewRequired) ||
		errors.Is(err, workflow.ErrNoExecutableNodes)
}

// IsNotFoundError reports a missing credential or mapping (HTTP 404).
func IsNotFoundError(err error) bool {
	return errors.Is(err, tokens.ErrTokenNotFound) ||
		errors.Is(err, sheets.ErrCredentialNotFound) ||
		persistence.IsMappingNotFound(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
