package audit

import (
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/soql"
)

type view struct {
	input  func(node *models.Node, vars map[string]any) map[string]any
	output func(result models.NodeResult) map[string]any
}

var views = map[models.NodeType]view{
	models.NodeTypeCreateUpdate: {
		input: func(node *models.Node, vars map[string]any) map[string]any {
			query, _ := soql.Build(node)

			return map[string]any{
				"object":        node.SalesforceObject,
				"query":         query,
				"formValues":    mappedValues(node.FieldMappings, vars),
				"fieldMappings": node.FieldMappings,
			}
		},
		output: pick("action", "recordId", "updatedCount", "failedCount", "failedRecords", "query"),
	},
	models.NodeTypeFind: {
		input:  conditionsInput,
		output: pick("ids", "recordCount", "query"),
	},
	models.NodeTypeFilter: {
		input:  conditionsInput,
		output: pick("ids", "recordCount", "sourceNodeId"),
	},
	models.NodeTypeLoop: {
		input: func(node *models.Node, _ map[string]any) map[string]any {
			if node.LoopConfig == nil {
				return nil
			}

			return map[string]any{
				"loopCollection": node.LoopConfig.LoopCollection,
				"maxIterations":  node.LoopConfig.MaxIterations,
			}
		},
		output: pick("processedCount", "totalItems", "currentItemVariableName"),
	},
	models.NodeTypeFormatter: {
		input: func(node *models.Node, vars map[string]any) map[string]any {
			cfg := node.FormatterConfig
			if cfg == nil {
				return nil
			}

			in := map[string]any{
				"formatType": cfg.FormatType,
				"operation":  cfg.Operation,
				"inputField": cfg.InputField,
			}

			if cfg.UseCustomInput {
				in["inputValue"] = cfg.CustomValue
			} else {
				in["inputValue"] = vars[cfg.InputField]
			}

			return in
		},
		output: pick("output", "outputVariable"),
	},
	models.NodeTypeCondition: {
		input: func(node *models.Node, _ map[string]any) map[string]any {
			return map[string]any{
				"pathOption":     node.PathOption,
				"object":         node.SalesforceObject,
				"conditionCount": node.Conditions.Len(),
			}
		},
		output: pick("proceed", "matched", "recordCount"),
	},
	models.NodeTypeGoogleSheet: {
		input:  sheetInput,
		output: pick("action", "updatedRows", "columnsAdded"),
	},
	models.NodeTypeFindGoogleSheet: {
		input:  sheetInput,
		output: pick("recordCount"),
	},
}

// InputView summarizes what a node consumed.
func InputView(node *models.Node, vars map[string]any) map[string]any {
	v, ok := views[node.Type]
	if !ok {
		return map[string]any{"type": node.Type}
	}

	return v.input(node, vars)
}

// OutputView summarizes what a node produced.
func OutputView(nodeType models.NodeType, result models.NodeResult) map[string]any {
	v, ok := views[nodeType]
	if !ok {
		return map[string]any{"status": result.Status}
	}

	return v.output(result)
}

func pick(keys ...string) func(models.NodeResult) map[string]any {
	return func(result models.NodeResult) map[string]any {
		out := map[string]any{"status": result.Status}

		for _, k := range keys {
			if v, ok := result.Data[k]; ok {
				out[k] = v
			}
		}

		return out
	}
}

func conditionsInput(node *models.Node, _ map[string]any) map[string]any {
	in := map[string]any{"object": node.SalesforceObject}

	if node.Conditions != nil {
		in["conditions"] = node.Conditions.Conditions
		in["logicType"] = node.Conditions.Logic()
	}

	return in
}

func sheetInput(node *models.Node, _ map[string]any) map[string]any {
	return map[string]any{
		"spreadsheetId": node.ConfigString("spreadsheetId"),
		"sheetName":     node.ConfigString("sheetName"),
	}
}

func mappedValues(mappings []models.FieldMapping, vars map[string]any) map[string]any {
	out := make(map[string]any, len(mappings))

	for _, m := range mappings {
		if v, ok := vars[m.FormFieldID]; ok {
			out[m.FormFieldID] = v
		}
	}

	return out
}
