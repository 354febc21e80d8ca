package condition

import (
	"context"
	"fmt"

	conditions "github.com/dukex/formflow/pkg/condition"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/soql"
)

type ConditionNode struct{}

func NewConditionNode() *ConditionNode {
	return &ConditionNode{}
}

func (n *ConditionNode) Execute(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
	option := node.PathOption
	if option == "" {
		option = models.PathOption(node.ConfigString("pathOption"))
	}

	switch option {
	case models.PathOptionFallback:
		return n.fallback(run), nil
	case models.PathOptionRules:
		return n.rules(ctx, run, node)
	default:
		run.SkipUntilNextCondition = false
		run.SkipSetByRules = false

		return models.NodeResult{
			Status:  models.NodeStatusSuccess,
			Success: true,
			Message: "Always run path",
			Data:    map[string]any{"pathOption": string(models.PathOptionAlwaysRun), "proceed": true},
		}, nil
	}
}

// rules evaluates the conditions and skips the following nodes on no match.
func (n *ConditionNode) rules(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
	matched, data, err := n.evaluate(ctx, run, node)
	if err != nil {
		return models.NodeResult{}, err
	}

	data["pathOption"] = string(models.PathOptionRules)
	data["proceed"] = matched

	run.SkipUntilNextCondition = !matched
	run.SkipSetByRules = !matched

	message := "Conditions matched, continuing"
	if !matched {
		message = "Conditions not matched, skipping until the next condition"
	}

	return models.NodeResult{
		Status:  models.NodeStatusSuccess,
		Success: true,
		Message: message,
		Data:    data,
	}, nil
}

// fallback proceeds only when skipping was caused by a failed Rules check.
func (n *ConditionNode) fallback(run *models.ExecutionContext) models.NodeResult {
	if run.SkipUntilNextCondition && run.SkipSetByRules {
		run.SkipUntilNextCondition = false
		run.SkipSetByRules = false

		return models.NodeResult{
			Status:  models.NodeStatusSuccess,
			Success: true,
			Message: "Fallback path taken",
			Data:    map[string]any{"pathOption": string(models.PathOptionFallback), "proceed": true},
		}
	}

	run.SkipUntilNextCondition = true
	run.SkipSetByRules = false

	return models.NodeResult{
		Status:  models.NodeStatusSkipped,
		Success: true,
		Message: "Fallback path not taken",
		Data:    map[string]any{"pathOption": string(models.PathOptionFallback), "proceed": false},
	}
}

func (n *ConditionNode) evaluate(ctx context.Context, run *models.ExecutionContext, node *models.Node) (bool, map[string]any, error) {
	if node.Conditions.Len() == 0 {
		return true, map[string]any{"matched": true}, nil
	}

	if node.SalesforceObject == "" {
		matched := conditions.Matches(run.Variables, node.Conditions)
		return matched, map[string]any{"matched": matched, "source": "form"}, nil
	}

	query, err := soql.Build(node)
	if err != nil {
		return false, nil, err
	}

	records, err := run.Services.CRM.Query(ctx, query)
	if err != nil {
		return false, nil, fmt.Errorf("evaluating rules on %s: %w", node.SalesforceObject, err)
	}

	if node.Conditions.Logic() == models.LogicCustom {
		records = conditions.FilterRecords(records, node.Conditions)
	}

	return len(records) > 0, map[string]any{
		"matched":     len(records) > 0,
		"recordCount": len(records),
		"query":       query,
	}, nil
}
