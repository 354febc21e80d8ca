// Package audit records one event per executed mapping node.
package audit

import (
	"context"
	"time"

	"github.com/dukex/formflow/pkg/models"
)

const EventType = "Mapping"

// Status is the coarse outcome written to the audit trail.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
	StatusSkipped Status = "Skipped"
)

// Event summarizes a node outcome. Input and Output are lossy views meant for
// people reading the trail, not for replay.
type Event struct {
	ID            string          `json:"id"`
	ExecutionID   string          `json:"executionId"`
	UserID        string          `json:"userId"`
	SubmissionID  string          `json:"submissionId"`
	FormID        string          `json:"formId,omitempty"`
	FormVersionID string          `json:"formVersionId"`
	NodeID        string          `json:"nodeId"`
	NodeType      models.NodeType `json:"nodeType"`
	Type          string          `json:"type"`
	SubType       string          `json:"subType"`
	Status        Status          `json:"status"`
	Message       string          `json:"message,omitempty"`
	Error         string          `json:"error,omitempty"`
	Input         map[string]any  `json:"input,omitempty"`
	Output        map[string]any  `json:"output,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Sink appends events. Append never fails the caller; sinks report their own
// delivery problems.
type Sink interface {
	Append(ctx context.Context, event Event)
}

// StatusOf maps a node result onto the audit status.
func StatusOf(result models.NodeResult) Status {
	switch {
	case result.Status == models.NodeStatusSkipped:
		return StatusSkipped
	case result.Failed():
		return StatusFailed
	default:
		return StatusSuccess
	}
}

// NewEvent builds the event for a node of run.
func NewEvent(id string, run *models.ExecutionContext, node *models.Node, result models.NodeResult) Event {
	return Event{
		ID:            id,
		ExecutionID:   run.ID,
		UserID:        run.UserID,
		SubmissionID:  run.SubmissionID,
		FormID:        run.FormID,
		FormVersionID: run.FormVersionID,
		NodeID:        node.NodeID,
		NodeType:      node.Type,
		Type:          EventType,
		SubType:       string(node.Type),
		Status:        StatusOf(result),
		Message:       result.Message,
		Error:         result.Error,
		Input:         InputView(node, run.Variables),
		Output:        OutputView(node.Type, result),
		Timestamp:     result.Timestamp,
	}
}
