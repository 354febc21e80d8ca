package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrMappingNotFound indicates no stored definition exists for a node.
	ErrMappingNotFound = errors.New("node mapping not found")

	// ErrFormVersionNotFound indicates nothing was stored for a form version.
	ErrFormVersionNotFound = errors.New("form version not found")
)

// MappingError wraps mapping errors with the form version and node involved.
type MappingError struct {
	Op            string // Operation being performed
	FormVersionID string
	NodeID        string
	Err           error
}

func (e *MappingError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s operation failed for node %s in form version %s: %v", e.Op, e.NodeID, e.FormVersionID, e.Err)
	}

	return fmt.Sprintf("%s operation failed for form version %s: %v", e.Op, e.FormVersionID, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

func (e *MappingError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewMappingError(op, formVersionID, nodeID string, err error) *MappingError {
	return &MappingError{
		Op:            op,
		FormVersionID: formVersionID,
		NodeID:        nodeID,
		Err:           err,
	}
}

// IsMappingNotFound reports whether err means the node or its form version
// has no stored mapping.
func IsMappingNotFound(err error) bool {
	return errors.Is(err, ErrMappingNotFound) || errors.Is(err, ErrFormVersionNotFound)
}
