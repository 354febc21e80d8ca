// Package condition evaluates record conditions in process and renders them
// as SOQL WHERE fragments. Both paths share one operator table so a record
// kept by a query is also kept by the in-process filter.
package condition

import (
	"log/slog"
	"strings"

	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/logic"
	"github.com/dukex/formflow/pkg/models"
)

func logger() *slog.Logger {
	return log.WithModule("condition")
}

// Evaluate applies c to record[c.Field]. Unknown operators evaluate to false.
func Evaluate(record map[string]any, c models.Condition) bool {
	actual := record[c.Field]

	switch c.Operator {
	case models.OperatorEquals:
		return equals(actual, c.Value)
	case models.OperatorNotEquals:
		return !equals(actual, c.Value)
	case models.OperatorLike:
		s, ok := actual.(string)
		return ok && strings.Contains(s, c.Value)
	case models.OperatorNotLike:
		s, ok := actual.(string)
		return ok && !strings.Contains(s, c.Value)
	case models.OperatorStartsWith:
		s, ok := actual.(string)
		return ok && strings.HasPrefix(s, c.Value)
	case models.OperatorEndsWith:
		s, ok := actual.(string)
		return ok && strings.HasSuffix(s, c.Value)
	case models.OperatorIsNull:
		return isNull(actual)
	case models.OperatorIsNotNull:
		return !isNull(actual)
	case models.OperatorGreater, models.OperatorLess, models.OperatorGreaterEq, models.OperatorLessEq:
		return compareNumbers(actual, c.Value, c.Operator)
	case models.OperatorBetween:
		return between(actual, c.Value)
	case models.OperatorIn:
		return in(actual, c.Value)
	case models.OperatorNotIn:
		return !in(actual, c.Value)
	default:
		logger().Warn("unknown condition operator", "operator", c.Operator, "field", c.Field)
		return false
	}
}

func equals(actual any, expected string) bool {
	s, ok := stringify(actual)
	return ok && s == expected
}

func compareNumbers(actual any, expected string, op models.Operator) bool {
	a, ok := toNumber(actual)
	if !ok {
		return false
	}

	b, ok := toNumber(expected)
	if !ok {
		return false
	}

	switch op {
	case models.OperatorGreater:
		return a > b
	case models.OperatorLess:
		return a < b
	case models.OperatorGreaterEq:
		return a >= b
	default:
		return a <= b
	}
}

func between(actual any, bounds string) bool {
	parts := splitList(bounds)
	if len(parts) != 2 {
		return false
	}

	v, ok := toNumber(actual)
	if !ok {
		return false
	}

	lo, okLo := toNumber(parts[0])
	hi, okHi := toNumber(parts[1])

	return okLo && okHi && v >= lo && v <= hi
}

func in(actual any, list string) bool {
	s, ok := stringify(actual)
	if !ok {
		return false
	}

	for _, item := range splitList(list) {
		if item == s {
			return true
		}
	}

	return false
}

// Matches combines the set's condition results with its join logic. An empty
// set matches everything.
func Matches(record map[string]any, set *models.ConditionSet) bool {
	n := set.Len()
	if n == 0 {
		return true
	}

	result := func(i int) bool {
		if i < 1 || i > n {
			return false
		}

		return Evaluate(record, set.Conditions[i-1])
	}

	switch set.Logic() {
	case models.LogicOr:
		for i := 1; i <= n; i++ {
			if result(i) {
				return true
			}
		}

		return false
	case models.LogicCustom:
		if strings.TrimSpace(set.CustomLogic) == "" {
			return matchAll(n, result)
		}

		return logic.Evaluate(set.CustomLogic, n, result)
	default:
		return matchAll(n, result)
	}
}

func matchAll(n int, result func(int) bool) bool {
	for i := 1; i <= n; i++ {
		if !result(i) {
			return false
		}
	}

	return true
}

// FilterRecords keeps the records matching set.
func FilterRecords(records []map[string]any, set *models.ConditionSet) []map[string]any {
	out := make([]map[string]any, 0, len(records))

	for _, record := range records {
		if Matches(record, set) {
			out = append(out, record)
		}
	}

	return out
}
