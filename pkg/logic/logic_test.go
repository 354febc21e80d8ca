package logic

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func results(values ...bool) func(int) bool {
	return func(i int) bool {
		if i < 1 || i > len(values) {
			return false
		}

		return values[i-1]
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expression string
		values     []bool
		want       bool
	}{
		{"1 AND 2", []bool{true, true}, true},
		{"1 AND 2", []bool{true, false}, false},
		{"1 OR 2", []bool{false, true}, true},
		{"1 AND (2 OR 3)", []bool{true, false, true}, true},
		{"(1 AND 2) OR 3", []bool{false, true, true}, true},
		{"1 OR 2 AND 3", []bool{true, false, false}, true},
		{"1 and (2 or 3)", []bool{true, true, false}, true},
		{"((1))", []bool{true}, true},
		{"1 AND", []bool{true}, false},
		{"1 AND 4", []bool{true, true, true}, false},
		{"(1 OR 2", []bool{true, true}, false},
		{"1; DROP", []bool{true}, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.expression, len(tt.values), results(tt.values...)))
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("1 AND (2 OR 3)", 3))
	require.NoError(t, Validate("(1 or 2) and 3", 3))

	tests := []struct {
		name       string
		expression string
		n          int
	}{
		{"empty", "  ", 2},
		{"bad characters", "1 && 2", 2},
		{"unbalanced open", "(1 AND 2", 2},
		{"unbalanced close", "1 AND 2)", 2},
		{"out of range", "1 AND 3", 2},
		{"duplicate", "1 AND 1 OR 2", 2},
		{"missing index", "1 AND 2", 3},
		{"trailing operator", "1 AND 2 OR", 2},
		{"adjacent operands", "1 2", 2},
		{"adjacent operators", "1 AND OR 2", 2},
		{"zero", "0 AND 1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.expression, tt.n)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestCompile(t *testing.T) {
	render := func(i int) (string, error) {
		return fmt.Sprintf("F%d = 'v'", i), nil
	}

	got, err := Compile("1   and (2 OR  3)", 3, render)
	require.NoError(t, err)
	assert.Equal(t, "F1 = 'v' AND (F2 = 'v' OR F3 = 'v')", got)

	_, err = Compile("1 AND 4", 3, render)
	assert.True(t, IsValidationError(err))

	_, err = Compile("1 | 2", 2, render)
	assert.True(t, IsValidationError(err))
}
