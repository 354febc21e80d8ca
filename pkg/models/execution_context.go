package models

import (
	"context"
	"log/slog"
)

// ExecutionContext is the mutable state shared by the nodes of a single run.
type ExecutionContext struct {
	ID            string                `json:"id"`
	UserID        string                `json:"userId"`
	FormID        string                `json:"formId,omitempty"`
	FormVersionID string                `json:"formVersionId"`
	SubmissionID  string                `json:"submissionId"`
	Variables     map[string]any        `json:"variables"`
	Results       map[string]NodeResult `json:"results"`

	// SkipUntilNextCondition suppresses every non-Condition node until a
	// Condition clears it.
	SkipUntilNextCondition bool `json:"skipUntilNextCondition"`
	// SkipSetByRules records that the current skip came from a failed Rules
	// check, which is what lets a following Fallback run.
	SkipSetByRules bool `json:"skipSetByRules"`

	Services *Services    `json:"-"`
	Logger   *slog.Logger `json:"-"`
}

// NewExecutionContext seeds the flow context with a copy of the submitted form data.
func NewExecutionContext(id string, req *RunRequest) *ExecutionContext {
	vars := make(map[string]any, len(req.FormData))
	for k, v := range req.FormData {
		vars[k] = v
	}

	return &ExecutionContext{
		ID:            id,
		UserID:        req.UserID,
		FormID:        req.FormID,
		FormVersionID: req.FormVersionID,
		SubmissionID:  req.SubmissionID,
		Variables:     vars,
		Results:       make(map[string]NodeResult),
		Logger:        slog.Default(),
	}
}

// Services are the remote collaborators available to executors during a run.
type Services struct {
	CRM    CRM
	Sheets SheetsOpener
}

// CRM is the record store the flow reads from and writes to.
type CRM interface {
	Query(ctx context.Context, soql string) ([]map[string]any, error)
	CreateRecord(ctx context.Context, object string, payload map[string]any) (string, error)
	UpdateRecord(ctx context.Context, object, id string, payload map[string]any) error
	BatchUpdate(ctx context.Context, object string, ids []string, payload map[string]any) BatchResult
}

// SheetsOpener yields a spreadsheet client authorized for the run's user.
type SheetsOpener interface {
	Open(ctx context.Context) (SheetClient, error)
}

// SheetClient is the grid access the sheet executors need. Row numbers are
// 1-based as in A1 notation; row 1 is the header.
type SheetClient interface {
	Rows(ctx context.Context, spreadsheetID, sheet string) ([][]string, error)
	WriteHeader(ctx context.Context, spreadsheetID, sheet string, header []string) error
	UpdateRow(ctx context.Context, spreadsheetID, sheet string, row int, values []string) error
	AppendRow(ctx context.Context, spreadsheetID, sheet string, values []string) error
}

// BatchResult partitions a batch update into succeeded and failed ids.
type BatchResult struct {
	SuccessfulIDs []string       `json:"successfulIds"`
	FailedRecords []FailedRecord `json:"failedRecords"`
}

type FailedRecord struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}
