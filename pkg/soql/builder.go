// Package soql builds the SOQL statements issued by the record nodes.
package soql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/formflow/pkg/condition"
	"github.com/dukex/formflow/pkg/logic"
	"github.com/dukex/formflow/pkg/models"
)

var (
	ErrNoConditions  = errors.New("node has no conditions")
	ErrMissingObject = errors.New("node has no salesforce object")
	ErrMissingField  = errors.New("condition has no field")
)

// Build returns the SELECT statement for node. A CreateUpdate node without
// conditions has no lookup query and yields "" with no error.
func Build(node *models.Node) (string, error) {
	set := node.Conditions

	if set.Len() == 0 {
		if node.Type == models.NodeTypeCreateUpdate {
			return "", nil
		}

		return "", fmt.Errorf("%s node %s: %w", node.Type, node.NodeID, ErrNoConditions)
	}

	if node.SalesforceObject == "" {
		return "", fmt.Errorf("%s node %s: %w", node.Type, node.NodeID, ErrMissingObject)
	}

	fields := []string{"Id"}
	seen := map[string]bool{"Id": true}
	fragments := make([]string, len(set.Conditions))

	for i, c := range set.Conditions {
		if c.Field == "" {
			return "", fmt.Errorf("condition %d: %w", i+1, ErrMissingField)
		}

		if !seen[c.Field] {
			seen[c.Field] = true
			fields = append(fields, c.Field)
		}

		fragment, err := condition.ToQueryFragment(c.Field, c.Value, c.Operator)
		if err != nil {
			return "", fmt.Errorf("condition %d: %w", i+1, err)
		}

		fragments[i] = fragment
	}

	where, err := whereClause(set, fragments)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s", strings.Join(fields, ", "), node.SalesforceObject, where)

	if set.SortField != "" {
		fmt.Fprintf(&b, " ORDER BY %s %s", set.SortField, sortOrder(set.SortOrder))
	}

	if set.ReturnLimit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", set.ReturnLimit)
	}

	return b.String(), nil
}

func whereClause(set *models.ConditionSet, fragments []string) (string, error) {
	switch set.Logic() {
	case models.LogicOr:
		return joinParenthesized(fragments, " OR "), nil
	case models.LogicCustom:
		if strings.TrimSpace(set.CustomLogic) == "" {
			return joinParenthesized(fragments, " AND "), nil
		}

		return logic.Compile(set.CustomLogic, len(fragments), func(i int) (string, error) {
			return fragments[i-1], nil
		})
	default:
		return joinParenthesized(fragments, " AND "), nil
	}
}

func joinParenthesized(fragments []string, sep string) string {
	wrapped := make([]string, len(fragments))
	for i, f := range fragments {
		wrapped[i] = "(" + f + ")"
	}

	return strings.Join(wrapped, sep)
}

func sortOrder(order string) string {
	if strings.EqualFold(order, "DESC") {
		return "DESC"
	}

	return "ASC"
}
