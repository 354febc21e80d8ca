// Package logic parses custom condition logic such as "1 AND (2 OR 3)".
// Expressions reference conditions by their 1-based position and are only
// ever interpreted through the AST built here.
package logic

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dukex/formflow/pkg/log"
)

var allowedChars = regexp.MustCompile(`^[0-9\sANDORandor()]*$`)

var whitespace = regexp.MustCompile(`\s+`)

// ValidationError describes why an expression was rejected.
type ValidationError struct {
	Expression string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid custom logic %q: %s", e.Expression, e.Reason)
}

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func invalid(expression, format string, args ...any) error {
	return &ValidationError{Expression: expression, Reason: fmt.Sprintf(format, args...)}
}

// Evaluate runs expression over n condition results. Malformed expressions
// and references outside 1..n evaluate to false.
func Evaluate(expression string, n int, result func(i int) bool) bool {
	root, err := compile(expression)
	if err != nil {
		log.WithModule("logic").Warn("custom logic could not be evaluated", "expression", expression, "error", err)
		return false
	}

	for _, i := range root.indexes(nil) {
		if i > n {
			log.WithModule("logic").Warn("custom logic references a missing condition", "expression", expression, "index", i, "conditions", n)
			return false
		}
	}

	return root.eval(result)
}

// Validate checks expression against n conditions: allowed characters,
// balanced parentheses, operand/operator sequence, and every condition
// 1..n referenced exactly once.
func Validate(expression string, n int) error {
	if strings.TrimSpace(expression) == "" {
		return invalid(expression, "expression is empty")
	}

	if !allowedChars.MatchString(expression) {
		return invalid(expression, "only condition numbers, AND, OR and parentheses are allowed")
	}

	depth := 0

	for _, r := range expression {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return invalid(expression, "unbalanced parentheses")
			}
		}
	}

	if depth != 0 {
		return invalid(expression, "unbalanced parentheses")
	}

	root, err := compile(expression)
	if err != nil {
		return invalid(expression, "%s", err.Error())
	}

	seen := make(map[int]int, n)

	for _, i := range root.indexes(nil) {
		if i < 1 || i > n {
			return invalid(expression, "condition %d does not exist, there are %d conditions", i, n)
		}

		seen[i]++
		if seen[i] > 1 {
			return invalid(expression, "condition %d is used more than once", i)
		}
	}

	var missing []string

	for i := 1; i <= n; i++ {
		if seen[i] == 0 {
			missing = append(missing, fmt.Sprint(i))
		}
	}

	if len(missing) > 0 {
		return invalid(expression, "conditions %s are not used", strings.Join(missing, ", "))
	}

	return nil
}

// Compile renders expression with each condition number replaced by
// render(i). Keywords come out upper-cased and whitespace is collapsed.
func Compile(expression string, n int, render func(i int) (string, error)) (string, error) {
	if !allowedChars.MatchString(expression) {
		return "", invalid(expression, "only condition numbers, AND, OR and parentheses are allowed")
	}

	tokens, err := tokenize(expression)
	if err != nil {
		return "", invalid(expression, "%s", err.Error())
	}

	if _, err := parse(tokens); err != nil {
		return "", invalid(expression, "%s", err.Error())
	}

	var b strings.Builder

	for i, t := range tokens {
		if i > 0 && t.kind != tokenRParen && tokens[i-1].kind != tokenLParen {
			b.WriteByte(' ')
		}

		switch t.kind {
		case tokenIndex:
			if t.index < 1 || t.index > n {
				return "", invalid(expression, "condition %d does not exist, there are %d conditions", t.index, n)
			}

			fragment, err := render(t.index)
			if err != nil {
				return "", err
			}

			b.WriteString(fragment)
		default:
			b.WriteString(t.kind.String())
		}
	}

	return whitespace.ReplaceAllString(strings.TrimSpace(b.String()), " "), nil
}

func compile(expression string) (*node, error) {
	tokens, err := tokenize(expression)
	if err != nil {
		return nil, err
	}

	return parse(tokens)
}
