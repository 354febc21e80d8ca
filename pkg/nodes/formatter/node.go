package formatter

import (
	"context"
	"fmt"

	formatters "github.com/dukex/formflow/pkg/formatter"
	"github.com/dukex/formflow/pkg/models"
)

type FormatterNode struct{}

func NewFormatterNode() *FormatterNode {
	return &FormatterNode{}
}

func (n *FormatterNode) Execute(ctx context.Context, run *models.ExecutionContext, node *models.Node) (models.NodeResult, error) {
	cfg := node.FormatterConfig
	if cfg == nil {
		return models.NodeResult{}, fmt.Errorf("formatter node %s has no formatterConfig", node.NodeID)
	}

	out := formatters.Apply(*cfg, run.Variables)

	if cfg.OutputVariable != "" && out.Status != formatters.StatusFailed {
		run.Variables[cfg.OutputVariable] = out.Output
	}

	result := models.NodeResult{
		Success: out.Status == formatters.StatusCompleted,
		Error:   out.Error,
		Data: map[string]any{
			"output":     out.Output,
			"formatType": cfg.FormatType,
			"operation":  cfg.Operation,
		},
	}

	switch out.Status {
	case formatters.StatusCompleted:
		result.Status = models.NodeStatusCompleted
	case formatters.StatusSkipped:
		result.Status = models.NodeStatusSkipped
	default:
		result.Status = models.NodeStatusFailed
	}

	if cfg.OutputVariable != "" {
		result.Data["outputVariable"] = cfg.OutputVariable
	}

	run.Logger.DebugContext(ctx, "formatter applied", "status", out.Status)

	return result, nil
}
