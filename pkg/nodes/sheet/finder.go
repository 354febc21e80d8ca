package sheet

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dukex/formflow/pkg/condition"
	"github.com/dukex/formflow/pkg/models"
)

// FinderNode reads a sheet and returns the rows matching its conditions.
type FinderNode struct{}

func NewFinderNode() *FinderNode {
	return &FinderNode{}
}

func (n *FinderNode) Execute(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
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

	records := make([]map[string]any, 0, len(rows))

	if len(rows) > 1 {
		header := rows[0]
		for i, row := range rows[1:] {
			if blank(row) {
				continue
			}

			record := toRecord(header, row)
			record["_row"] = i + 2
			records = append(records, record)
		}
	}

	set := cfg.conditionSet(cfg.FindSheetConditions, run.Variables)
	records = condition.FilterRecords(records, set)

	if cfg.SortField != "" {
		sortRecords(records, cfg.SortField, cfg.descending())
	}

	if cfg.ReturnLimit > 0 && len(records) > cfg.ReturnLimit {
		records = records[:cfg.ReturnLimit]
	}

	message := fmt.Sprintf("Found %d rows", len(records))
	if len(records) == 0 {
		message = "No rows found matching conditions"
	}

	return models.NodeResult{
		Status:  models.NodeStatusSuccess,
		Success: true,
		Message: message,
		Data: map[string]any{
			"records":       records,
			"recordCount":   len(records),
			"spreadsheetId": cfg.SpreadsheetID,
			"sheetName":     cfg.SheetName,
		},
	}, nil
}

// sortRecords orders numerically when both cells are numbers and by text otherwise.
func sortRecords(records []map[string]any, field string, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a := cellValue(records[i][field])
		b := cellValue(records[j][field])

		if desc {
			a, b = b, a
		}

		fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
		fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)

		if errA == nil && errB == nil {
			return fa < fb
		}

		return strings.ToLower(a) < strings.ToLower(b)
	})
}
