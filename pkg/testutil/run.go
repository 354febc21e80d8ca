package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/dukex/formflow/pkg/models"
)

// NewRun creates an execution context over formData with the given services.
func NewRun(formData map[string]any, services *models.Services) *models.ExecutionContext {
	run := models.NewExecutionContext("exec-test", &models.RunRequest{
		UserID:        "user-1",
		FormVersionID: "fv-1",
		SubmissionID:  "sub-1",
		FormData:      formData,
	})
	run.Services = services

	return run
}

// MemorySheet is an in-memory grid that serves as both models.SheetsOpener
// and models.SheetClient. Rows holds the grid including the header row.
type MemorySheet struct {
	mu   sync.Mutex
	Grid [][]string

	Updated []int
	Appends int
}

func NewMemorySheet(rows ...[]string) *MemorySheet {
	return &MemorySheet{Grid: rows}
}

func (s *MemorySheet) Open(ctx context.Context) (models.SheetClient, error) {
	return s, nil
}

func (s *MemorySheet) Rows(ctx context.Context, spreadsheetID, sheet string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]string, len(s.Grid))
	for i, row := range s.Grid {
		out[i] = slices.Clone(row)
	}

	return out, nil
}

func (s *MemorySheet) WriteHeader(ctx context.Context, spreadsheetID, sheet string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Grid) == 0 {
		s.Grid = append(s.Grid, nil)
	}

	s.Grid[0] = slices.Clone(header)

	return nil
}

func (s *MemorySheet) UpdateRow(ctx context.Context, spreadsheetID, sheet string, row int, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.Grid) < row {
		s.Grid = append(s.Grid, nil)
	}

	s.Grid[row-1] = slices.Clone(values)
	s.Updated = append(s.Updated, row)
	slices.Sort(s.Updated)

	return nil
}

func (s *MemorySheet) AppendRow(ctx context.Context, spreadsheetID, sheet string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Grid = append(s.Grid, slices.Clone(values))
	s.Appends++

	return nil
}
