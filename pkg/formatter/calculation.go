package formatter

import (
	"fmt"

	"github.com/dukex/formflow/pkg/formula"
)

var calculations = formula.NewEngine()

// evaluateFormula runs options.expression with the form data in scope and
// the resolved input bound to "value".
func evaluateFormula(req request) (any, error) {
	expression := optString(req.options, "expression", "formula")
	if expression == "" {
		return nil, fmt.Errorf("calculation requires an expression")
	}

	env := make(map[string]any, len(req.data)+1)
	for k, v := range req.data {
		env[k] = v
	}

	env["value"] = req.value

	return calculations.Evaluate(expression, env)
}
