package sheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/formflow/pkg/models"
	"github.com/mitchellh/mapstructure"
)

const defaultSheetName = "Sheet1"

var (
	ErrMissingSpreadsheet = errors.New("spreadsheetId is required")
	ErrNoSheetsAccess     = errors.New("no spreadsheet access configured for this run")
)

// sheetCondition compares one column of a row. When FormFieldID is set the
// expected value is read from the submitted form instead of Value.
type sheetCondition struct {
	Column      string `json:"column"`
	Field       string `json:"field"`
	Operator    string `json:"operator"`
	Value       string `json:"value"`
	FormFieldID string `json:"formFieldId"`
}

type sheetConfig struct {
	SpreadsheetID       string           `json:"spreadsheetId"`
	SheetName           string           `json:"sheetName"`
	SheetConditions     []sheetCondition `json:"sheetConditions"`
	FindSheetConditions []sheetCondition `json:"findSheetConditions"`
	LogicType           string           `json:"logicType"`
	CustomLogic         string           `json:"customLogic"`
	UpdateMultiple      bool             `json:"updateMultiple"`
	SortField           string           `json:"sortField"`
	SortOrder           string           `json:"sortOrder"`
	ReturnLimit         int              `json:"returnLimit"`
}

func decodeConfig(node *models.Node) (*sheetConfig, error) {
	var cfg sheetConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(node.Config); err != nil {
		return nil, fmt.Errorf("node %s: decoding sheet config: %w", node.NodeID, err)
	}

	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("node %s: %w", node.NodeID, ErrMissingSpreadsheet)
	}

	if cfg.SheetName == "" {
		cfg.SheetName = defaultSheetName
	}

	return &cfg, nil
}

// conditionSet converts sheet conditions into a set keyed by column header,
// resolving form-bound values against vars.
func (c *sheetConfig) conditionSet(conds []sheetCondition, vars map[string]any) *models.ConditionSet {
	if len(conds) == 0 {
		return nil
	}

	set := &models.ConditionSet{
		LogicType:   models.LogicType(c.LogicType),
		CustomLogic: c.CustomLogic,
	}

	if set.LogicType == "" && strings.TrimSpace(c.CustomLogic) != "" {
		set.LogicType = models.LogicCustom
	}

	for _, sc := range conds {
		column := sc.Column
		if column == "" {
			column = sc.Field
		}

		value := sc.Value
		if sc.FormFieldID != "" {
			value = cellValue(vars[sc.FormFieldID])
		}

		set.Conditions = append(set.Conditions, models.Condition{
			Field:    column,
			Operator: models.Operator(sc.Operator),
			Value:    value,
		})
	}

	return set
}

func (c *sheetConfig) descending() bool {
	return strings.EqualFold(c.SortOrder, "DESC")
}

func openClient(run *models.ExecutionContext) (models.SheetsOpener, error) {
	if run.Services == nil || run.Services.Sheets == nil {
		return nil, ErrNoSheetsAccess
	}

	return run.Services.Sheets, nil
}
