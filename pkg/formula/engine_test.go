package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	engine := NewEngine()
	values := map[string]any{
		"price":      float64(10),
		"qty":        float64(3),
		"first":      "Ada",
		"Last Name":  "Lovelace",
		"start_date": "2024-01-15",
	}

	tests := []struct {
		name       string
		expression string
		want       any
	}{
		{"arithmetic", "price * qty", float64(30)},
		{"sum", "sum(price, qty, 2)", float64(15)},
		{"concat with placeholder", `concatStrings(first, " ", {Last Name})`, "Ada Lovelace"},
		{"add days", "addDays(start_date, 20)", "2024-02-04"},
		{"round", "round(divide(price, qty), 2)", 3.33},
		{"iif", `iif(qty > 2, "bulk", "single")`, "bulk"},
		{"upper", "upper(first)", "ADA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Evaluate(tt.expression, values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_RejectsBuiltins(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Evaluate(`len("abc")`, nil)
	assert.Error(t, err)
}

func TestEvaluate_DivideByZero(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Evaluate("divide(1, 0)", nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	engine := NewEngine()

	assert.NoError(t, engine.Validate("sum({Amount}, 1)"))
	assert.Error(t, engine.Validate("sum(("))
}
