package condition

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dukex/formflow/pkg/models"
)

var ErrUnknownOperator = errors.New("unknown operator")

var (
	numberLiteral   = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	dateLiteral     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeLiteral = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)
)

// ToQueryFragment renders field op value as a SOQL WHERE fragment.
func ToQueryFragment(field string, value any, op models.Operator) (string, error) {
	text, _ := stringify(value)

	switch op {
	case models.OperatorEquals, models.OperatorNotEquals:
		return fmt.Sprintf("%s %s %s", field, op, literal(value)), nil
	case models.OperatorLike, models.OperatorNotLike:
		return fmt.Sprintf("%s %s '%%%s%%'", field, op, escape(text)), nil
	case models.OperatorStartsWith:
		return fmt.Sprintf("%s LIKE '%s%%'", field, escape(text)), nil
	case models.OperatorEndsWith:
		return fmt.Sprintf("%s LIKE '%%%s'", field, escape(text)), nil
	case models.OperatorIsNull:
		return field + " = null", nil
	case models.OperatorIsNotNull:
		return field + " != null", nil
	case models.OperatorGreater, models.OperatorLess, models.OperatorGreaterEq, models.OperatorLessEq:
		return fmt.Sprintf("%s %s %s", field, op, rangeLiteral(text)), nil
	case models.OperatorBetween:
		parts := splitList(text)
		if len(parts) != 2 {
			return "", fmt.Errorf("BETWEEN on %s expects \"min,max\", got %q", field, text)
		}

		return fmt.Sprintf("(%s >= %s AND %s <= %s)", field, rangeLiteral(parts[0]), field, rangeLiteral(parts[1])), nil
	case models.OperatorIn, models.OperatorNotIn:
		items := splitList(text)
		quoted := make([]string, len(items))

		for i, item := range items {
			quoted[i] = "'" + escape(item) + "'"
		}

		return fmt.Sprintf("%s %s (%s)", field, op, strings.Join(quoted, ",")), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// literal quotes strings; non-string Go values and boolean keywords are
// emitted bare.
func literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		switch strings.ToLower(v) {
		case "true", "false", "null":
			return strings.ToLower(v)
		}

		return "'" + escape(v) + "'"
	default:
		s, _ := stringify(v)
		return s
	}
}

// rangeLiteral leaves numbers and date literals bare for range comparisons.
func rangeLiteral(s string) string {
	if numberLiteral.MatchString(s) || dateLiteral.MatchString(s) || dateTimeLiteral.MatchString(s) {
		return s
	}

	return "'" + escape(s) + "'"
}
