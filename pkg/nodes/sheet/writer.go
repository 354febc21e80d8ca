package sheet

import (
	"context"
	"fmt"

	"github.com/dukex/formflow/pkg/condition"
	"github.com/dukex/formflow/pkg/models"
	"golang.org/x/sync/errgroup"
)

// WriterNode writes mapped form values into a sheet row.
type WriterNode struct{}

func NewWriterNode() *WriterNode {
	return &WriterNode{}
}

func (n *WriterNode) Execute(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
	cfg, err := decodeConfig(node)
	if err != nil {
		return models.NodeResult{}, err
	}

	opener, err := openClient(run)
	if err != nil {
		return models.NodeResult{}, err
	}

	client, err := opener.Open(ctx)
	if err != nil {
		return models.NodeResult{}, fmt.Errorf("opening spreadsheet access: %w", err)
	}

	rows, err := client.Rows(ctx, cfg.SpreadsheetID, cfg.SheetName)
	if err != nil {
		return models.NodeResult{}, fmt.Errorf("reading %s: %w", cfg.SheetName, err)
	}

	var header []string
	if len(rows) > 0 {
		header = append(header, rows[0]...)
	}

	values := make(map[string]string, len(node.FieldMappings))
	columns := make([]string, 0, len(node.FieldMappings))

	for _, m := range node.FieldMappings {
		if m.SalesforceField == "" {
			continue
		}

		raw := run.Variables[m.FormFieldID]
		if m.PicklistValue != "" {
			raw = m.PicklistValue
		}

		values[m.SalesforceField] = cellValue(raw)
		columns = append(columns, m.SalesforceField)
	}

	header, added := ensureColumns(header, columns)
	if len(added) > 0 {
		if err := client.WriteHeader(ctx, cfg.SpreadsheetID, cfg.SheetName, header); err != nil {
			return models.NodeResult{}, fmt.Errorf("writing header of %s: %w", cfg.SheetName, err)
		}

		run.Logger.InfoContext(ctx, "added sheet columns", "sheet", cfg.SheetName, "columns", added)
	}

	data := map[string]any{
		"spreadsheetId": cfg.SpreadsheetID,
		"sheetName":     cfg.SheetName,
		"columnsAdded":  added,
	}

	matches := n.matchingRows(cfg, header, rows, run.Variables)
	if len(matches) == 0 {
		if err := client.AppendRow(ctx, cfg.SpreadsheetID, cfg.SheetName, rowValues(header, nil, values)); err != nil {
			return models.NodeResult{}, fmt.Errorf("appending to %s: %w", cfg.SheetName, err)
		}

		data["action"] = "appended"

		return models.NodeResult{
			Status:  models.NodeStatusSuccess,
			Success: true,
			Message: fmt.Sprintf("Appended row to %s", cfg.SheetName),
			Data:    data,
		}, nil
	}

	if !cfg.UpdateMultiple {
		matches = matches[:1]
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, row := range matches {
		existing := rows[row-1]

		g.Go(func() error {
			return client.UpdateRow(gctx, cfg.SpreadsheetID, cfg.SheetName, row, rowValues(header, existing, values))
		})
	}

	if err := g.Wait(); err != nil {
		return models.NodeResult{}, fmt.Errorf("updating %s: %w", cfg.SheetName, err)
	}

	data["action"] = "updated"
	data["updatedRows"] = matches

	return models.NodeResult{
		Status:  models.NodeStatusSuccess,
		Success: true,
		Message: fmt.Sprintf("Updated %d rows in %s", len(matches), cfg.SheetName),
		Data:    data,
	}, nil
}

// matchingRows returns the 1-based sheet row numbers matching the write
// conditions. Without conditions nothing matches and the row is appended.
func (n *WriterNode) matchingRows(cfg *sheetConfig, header []string, rows [][]string, vars map[string]any) []int {
	set := cfg.conditionSet(cfg.SheetConditions, vars)
	if set.Len() == 0 || len(rows) < 2 {
		return nil
	}

	var matches []int

	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}

		if condition.Matches(toRecord(header, row), set) {
			matches = append(matches, i+2)
		}
	}

	return matches
}

// rowValues lays values out in header order, keeping existing cells of
// columns that are not mapped.
func rowValues(header, existing []string, values map[string]string) []string {
	out := make([]string, len(header))

	for i, column := range header {
		if v, ok := values[column]; ok {
			out[i] = v
			continue
		}

		if i < len(existing) {
			out[i] = existing[i]
		}
	}

	return out
}
