package find

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/formflow/pkg/condition"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/soql"
)

var ErrNoSource = errors.New("find node needs a salesforceObject or a config.sourceNodeId")

type FindNode struct{}

func NewFindNode() *FindNode {
	return &FindNode{}
}

func (n *FindNode) Execute(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
	if node.SalesforceObject == "" {
		return n.filterPrior(run, node)
	}

	query, err := soql.Build(node)
	if err != nil {
		return models.NodeResult{}, err
	}

	records, err := run.Services.CRM.Query(ctx, query)
	if err != nil {
		return models.NodeResult{}, fmt.Errorf("querying %s: %w", node.SalesforceObject, err)
	}

	// custom logic is re-checked in process against the returned records
	if node.Conditions.Logic() == models.LogicCustom {
		records = condition.FilterRecords(records, node.Conditions)
	}

	result := idsResult(records)
	result.Data["query"] = query

	return result, nil
}

// filterPrior applies the conditions to records produced by an earlier node.
func (n *FindNode) filterPrior(run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
	source := node.ConfigString("sourceNodeId")
	if source == "" {
		return models.NodeResult{}, fmt.Errorf("node %s: %w", node.NodeID, ErrNoSource)
	}

	prior, ok := run.Results[source]
	if !ok {
		return models.NodeResult{}, fmt.Errorf("node %s: source node %s has no result", node.NodeID, source)
	}

	records := toRecords(prior.Get("records"))
	filtered := condition.FilterRecords(records, node.Conditions)

	if limit := node.Conditions.ReturnLimit; limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	result := idsResult(filtered)
	result.Data["sourceNodeId"] = source

	return result, nil
}

// idsResult exposes no match as null, one match as a scalar id and several
// as a list.
func idsResult(records []map[string]any) models.NodeResult {
	ids := make([]string, 0, len(records))

	for _, r := range records {
		if id, ok := r["Id"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}

	result := models.NodeResult{
		Status:  models.NodeStatusSuccess,
		Success: true,
		Data: map[string]any{
			"recordCount": len(ids),
		},
	}

	switch len(ids) {
	case 0:
		result.Data["ids"] = nil
		result.Message = "No records found matching conditions"
	case 1:
		result.Data["ids"] = ids[0]
		result.Message = "Found 1 record"
	default:
		result.Data["ids"] = ids
		result.Message = fmt.Sprintf("Found %d records", len(ids))
	}

	return result
}

func toRecords(v any) []map[string]any {
	switch records := v.(type) {
	case []map[string]any:
		return records
	case []any:
		out := make([]map[string]any, 0, len(records))
		for _, r := range records {
			if m, ok := r.(map[string]any); ok {
				out = append(out, m)
			}
		}

		return out
	default:
		return nil
	}
}
