package loop

import (
	"context"
	"fmt"
	"maps"

	"github.com/dukex/formflow/pkg/models"
)

const defaultItemVariable = "currentItem"

type LoopNode struct{}

func NewLoopNode() *LoopNode {
	return &LoopNode{}
}

func (n *LoopNode) Execute(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
	cfg := node.LoopConfig
	if cfg == nil || cfg.LoopCollection == "" {
		return models.NodeResult{}, fmt.Errorf("loop node %s has no loopCollection", node.NodeID)
	}

	source, ok := run.Results[cfg.LoopCollection]
	if !ok {
		return models.NodeResult{}, fmt.Errorf("loop collection %s has not produced a result", cfg.LoopCollection)
	}

	items := toItems(source.Get("ids"))
	total := len(items)

	if cfg.MaxIterations > 0 && len(items) > cfg.MaxIterations {
		items = items[:cfg.MaxIterations]
	}

	itemVar := cfg.CurrentItemVariableName
	if itemVar == "" {
		itemVar = defaultItemVariable
	}

	// each iteration sees the flow context plus its own loop variables
	iterations := make([]map[string]any, len(items))
	loopVars := make([]map[string]any, len(items))
	for i, item := range items {
		loopVars[i] = iterationVariables(cfg, itemVar, i, item)

		iterations[i] = maps.Clone(run.Variables)
		if iterations[i] == nil {
			iterations[i] = make(map[string]any, len(loopVars[i]))
		}
		maps.Copy(iterations[i], loopVars[i])
	}

	// only the first iteration's variables reach the nodes after the loop
	if len(loopVars) > 0 {
		maps.Copy(run.Variables, loopVars[0])
	}

	run.Logger.InfoContext(ctx, "loop prepared", "items", total, "processed", len(iterations))

	message := fmt.Sprintf("Processed %d of %d items", len(iterations), total)
	if total == 0 {
		message = "No items to iterate"
	}

	return models.NodeResult{
		Status:  models.NodeStatusSuccess,
		Success: true,
		Message: message,
		Data: map[string]any{
			"iterations":              iterations,
			"processedCount":          len(iterations),
			"totalItems":              total,
			"currentItemVariableName": itemVar,
		},
	}, nil
}

func iterationVariables(cfg *models.LoopConfig, itemVar string, i int, item any) map[string]any {
	vars := map[string]any{itemVar: item}

	if cfg.LoopVariables.CurrentIndex {
		vars[itemVar+"_index"] = i + cfg.LoopVariables.IndexBase
	}

	if cfg.LoopVariables.Counter {
		vars[itemVar+"_counter"] = i + 1
	}

	return vars
}

// toItems accepts the null, scalar and list shapes of a Find result.
func toItems(v any) []any {
	switch ids := v.(type) {
	case nil:
		return nil
	case string:
		return []any{ids}
	case []string:
		out := make([]any, len(ids))
		for i, id := range ids {
			out[i] = id
		}

		return out
	case []any:
		return ids
	default:
		return []any{ids}
	}
}
