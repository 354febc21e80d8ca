package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
)

const dateLayout = "2006-01-02"

var dateInputLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	dateLayout,
	"01/02/2006",
}

type function func(params ...any) (any, error)

var functions = map[string]function{
	"addDays":       addDays,
	"addMonths":     addMonths,
	"daysBetween":   daysBetween,
	"sum":           sum,
	"average":       average,
	"subtract":      subtract,
	"multiply":      multiply,
	"divide":        divide,
	"round":         round,
	"concatStrings": concatStrings,
	"upper":         upper,
	"lower":         lower,
	"trim":          trim,
	"iif":           iif,
	"coalesce":      coalesce,
	"today":         today,
}

// Functions lists the callable function names.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}

	return names
}

func functionOptions() []expr.Option {
	options := make([]expr.Option, 0, len(functions))
	for name, fn := range functions {
		options = append(options, expr.Function(name, fn))
	}

	return options
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}

		return f, nil
	case nil:
		return 0, fmt.Errorf("missing number")
	default:
		return 0, fmt.Errorf("%T is not a number", v)
	}
}

func toDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		for _, layout := range dateInputLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(d)); err == nil {
				return t, nil
			}
		}

		return time.Time{}, fmt.Errorf("%q is not a date", d)
	default:
		return time.Time{}, fmt.Errorf("%T is not a date", v)
	}
}

func arity(name string, params []any, n int) error {
	if len(params) != n {
		return fmt.Errorf("%s expects %d arguments, got %d", name, n, len(params))
	}

	return nil
}

func numbers(name string, params []any) ([]float64, error) {
	out := make([]float64, len(params))

	for i, p := range params {
		f, err := toFloat(p)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", name, i+1, err)
		}

		out[i] = f
	}

	return out, nil
}

func addDays(params ...any) (any, error) {
	if err := arity("addDays", params, 2); err != nil {
		return nil, err
	}

	d, err := toDate(params[0])
	if err != nil {
		return nil, err
	}

	n, err := toFloat(params[1])
	if err != nil {
		return nil, err
	}

	return d.AddDate(0, 0, int(n)).Format(dateLayout), nil
}

func addMonths(params ...any) (any, error) {
	if err := arity("addMonths", params, 2); err != nil {
		return nil, err
	}

	d, err := toDate(params[0])
	if err != nil {
		return nil, err
	}

	n, err := toFloat(params[1])
	if err != nil {
		return nil, err
	}

	return d.AddDate(0, int(n), 0).Format(dateLayout), nil
}

func daysBetween(params ...any) (any, error) {
	if err := arity("daysBetween", params, 2); err != nil {
		return nil, err
	}

	from, err := toDate(params[0])
	if err != nil {
		return nil, err
	}

	to, err := toDate(params[1])
	if err != nil {
		return nil, err
	}

	return int(to.Sub(from).Hours() / 24), nil
}

func sum(params ...any) (any, error) {
	values, err := numbers("sum", params)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, v := range values {
		total += v
	}

	return total, nil
}

func average(params ...any) (any, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("average expects at least one argument")
	}

	total, err := sum(params...)
	if err != nil {
		return nil, err
	}

	return total.(float64) / float64(len(params)), nil
}

func subtract(params ...any) (any, error) {
	if err := arity("subtract", params, 2); err != nil {
		return nil, err
	}

	values, err := numbers("subtract", params)
	if err != nil {
		return nil, err
	}

	return values[0] - values[1], nil
}

func multiply(params ...any) (any, error) {
	values, err := numbers("multiply", params)
	if err != nil {
		return nil, err
	}

	product := 1.0
	for _, v := range values {
		product *= v
	}

	return product, nil
}

func divide(params ...any) (any, error) {
	if err := arity("divide", params, 2); err != nil {
		return nil, err
	}

	values, err := numbers("divide", params)
	if err != nil {
		return nil, err
	}

	if values[1] == 0 {
		return nil, fmt.Errorf("division by zero")
	}

	return values[0] / values[1], nil
}

func round(params ...any) (any, error) {
	if len(params) != 1 && len(params) != 2 {
		return nil, fmt.Errorf("round expects 1 or 2 arguments, got %d", len(params))
	}

	values, err := numbers("round", params)
	if err != nil {
		return nil, err
	}

	decimals := 0.0
	if len(values) == 2 {
		decimals = values[1]
	}

	factor := math.Pow(10, decimals)

	return math.Round(values[0]*factor) / factor, nil
}

func concatStrings(params ...any) (any, error) {
	var b strings.Builder

	for _, p := range params {
		if p == nil {
			continue
		}

		b.WriteString(fmt.Sprint(p))
	}

	return b.String(), nil
}

func upper(params ...any) (any, error) {
	if err := arity("upper", params, 1); err != nil {
		return nil, err
	}

	return strings.ToUpper(fmt.Sprint(params[0])), nil
}

func lower(params ...any) (any, error) {
	if err := arity("lower", params, 1); err != nil {
		return nil, err
	}

	return strings.ToLower(fmt.Sprint(params[0])), nil
}

func trim(params ...any) (any, error) {
	if err := arity("trim", params, 1); err != nil {
		return nil, err
	}

	return strings.TrimSpace(fmt.Sprint(params[0])), nil
}

func iif(params ...any) (any, error) {
	if err := arity("iif", params, 3); err != nil {
		return nil, err
	}

	cond, ok := params[0].(bool)
	if !ok {
		return nil, fmt.Errorf("iif condition must be a boolean")
	}

	if cond {
		return params[1], nil
	}

	return params[2], nil
}

func coalesce(params ...any) (any, error) {
	for _, p := range params {
		if s, ok := p.(string); ok && s == "" {
			continue
		}

		if p != nil {
			return p, nil
		}
	}

	return nil, nil
}

func today(params ...any) (any, error) {
	if err := arity("today", params, 0); err != nil {
		return nil, err
	}

	return time.Now().UTC().Format(dateLayout), nil
}
