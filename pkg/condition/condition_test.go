package condition

import (
	"testing"

	"github.com/dukex/formflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	record := map[string]any{
		"Name":   "Acme Corporation",
		"Status": "Active",
		"Amount": float64(150),
		"Empty":  "",
		"Region": "EMEA",
	}

	tests := []struct {
		name string
		cond models.Condition
		want bool
	}{
		{"equals", models.Condition{Field: "Status", Operator: "=", Value: "Active"}, true},
		{"equals number as text", models.Condition{Field: "Amount", Operator: "=", Value: "150"}, true},
		{"not equals", models.Condition{Field: "Status", Operator: "!=", Value: "Active"}, false},
		{"not equals missing field", models.Condition{Field: "Missing", Operator: "!=", Value: "x"}, true},
		{"like", models.Condition{Field: "Name", Operator: "LIKE", Value: "Corp"}, true},
		{"not like", models.Condition{Field: "Name", Operator: "NOT LIKE", Value: "Corp"}, false},
		{"like on number", models.Condition{Field: "Amount", Operator: "LIKE", Value: "15"}, false},
		{"starts with", models.Condition{Field: "Name", Operator: "STARTS WITH", Value: "Acme"}, true},
		{"ends with", models.Condition{Field: "Name", Operator: "ENDS WITH", Value: "Inc"}, false},
		{"is null on empty", models.Condition{Field: "Empty", Operator: "IS NULL"}, true},
		{"is null on missing", models.Condition{Field: "Missing", Operator: "IS NULL"}, true},
		{"is not null", models.Condition{Field: "Name", Operator: "IS NOT NULL"}, true},
		{"greater", models.Condition{Field: "Amount", Operator: ">", Value: "100"}, true},
		{"less equal", models.Condition{Field: "Amount", Operator: "<=", Value: "150"}, true},
		{"greater on text", models.Condition{Field: "Name", Operator: ">", Value: "1"}, false},
		{"between inclusive", models.Condition{Field: "Amount", Operator: "BETWEEN", Value: "150, 200"}, true},
		{"between outside", models.Condition{Field: "Amount", Operator: "BETWEEN", Value: "1,10"}, false},
		{"between malformed", models.Condition{Field: "Amount", Operator: "BETWEEN", Value: "1"}, false},
		{"in", models.Condition{Field: "Region", Operator: "IN", Value: "NA, EMEA"}, true},
		{"not in", models.Condition{Field: "Region", Operator: "NOT IN", Value: "NA,APAC"}, true},
		{"unknown operator", models.Condition{Field: "Region", Operator: "~=", Value: "EMEA"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(record, tt.cond))
		})
	}
}

func TestToQueryFragment(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		op    models.Operator
		want  string
	}{
		{"equals", "Status", "Active", "=", "Status = 'Active'"},
		{"equals escapes quote", "Name", "O'Brien", "=", `Name = 'O\'Brien'`},
		{"equals boolean keyword", "IsActive__c", "true", "=", "IsActive__c = true"},
		{"not equals", "Status", "Closed", "!=", "Status != 'Closed'"},
		{"like", "Name", "Acme", "LIKE", "Name LIKE '%Acme%'"},
		{"not like", "Name", "Acme", "NOT LIKE", "Name NOT LIKE '%Acme%'"},
		{"starts with", "Name", "Ac", "STARTS WITH", "Name LIKE 'Ac%'"},
		{"ends with", "Name", "me", "ENDS WITH", "Name LIKE '%me'"},
		{"is null", "Email", "", "IS NULL", "Email = null"},
		{"is not null", "Email", "", "IS NOT NULL", "Email != null"},
		{"greater number", "Amount", "100", ">", "Amount > 100"},
		{"greater date", "CloseDate", "2024-01-15", ">=", "CloseDate >= 2024-01-15"},
		{"less text", "Name", "M", "<", "Name < 'M'"},
		{"between", "Amount", "10,20", "BETWEEN", "(Amount >= 10 AND Amount <= 20)"},
		{"in", "Region", "NA, EMEA", "IN", "Region IN ('NA','EMEA')"},
		{"not in", "Region", "APAC", "NOT IN", "Region NOT IN ('APAC')"},
		{"numeric go value", "Amount", float64(5), "=", "Amount = 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToQueryFragment(tt.field, tt.value, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestEvaluateAgreesWithQuery checks that in-memory evaluation and the SOQL
// fragment built from the same condition select the same records.
func TestEvaluateAgreesWithQuery(t *testing.T) {
	tests := []struct {
		cond     models.Condition
		match    any
		miss     any
		fragment string
	}{
		{models.Condition{Field: "Status", Operator: "=", Value: "Active"}, "Active", "Closed", "Status = 'Active'"},
		{models.Condition{Field: "Status", Operator: "!=", Value: "Active"}, "Closed", "Active", "Status != 'Active'"},
		{models.Condition{Field: "Name", Operator: "LIKE", Value: "Corp"}, "Acme Corp Ltd", "Acme", "Name LIKE '%Corp%'"},
		{models.Condition{Field: "Name", Operator: "NOT LIKE", Value: "Corp"}, "Acme", "Acme Corp", "Name NOT LIKE '%Corp%'"},
		{models.Condition{Field: "Name", Operator: "STARTS WITH", Value: "Ac"}, "Acme", "Zeta", "Name LIKE 'Ac%'"},
		{models.Condition{Field: "Name", Operator: "ENDS WITH", Value: "me"}, "Acme", "Zeta", "Name LIKE '%me'"},
		{models.Condition{Field: "Email", Operator: "IS NULL"}, nil, "a@b.com", "Email = null"},
		{models.Condition{Field: "Email", Operator: "IS NOT NULL"}, "a@b.com", nil, "Email != null"},
		{models.Condition{Field: "Amount", Operator: ">", Value: "100"}, float64(150), float64(100), "Amount > 100"},
		{models.Condition{Field: "Amount", Operator: "<", Value: "100"}, float64(50), float64(100), "Amount < 100"},
		{models.Condition{Field: "Amount", Operator: ">=", Value: "100"}, float64(100), float64(99), "Amount >= 100"},
		{models.Condition{Field: "Amount", Operator: "<=", Value: "100"}, float64(100), float64(101), "Amount <= 100"},
		{models.Condition{Field: "Amount", Operator: "BETWEEN", Value: "10,20"}, float64(20), float64(21), "(Amount >= 10 AND Amount <= 20)"},
		{models.Condition{Field: "Region", Operator: "IN", Value: "NA, EMEA"}, "EMEA", "APAC", "Region IN ('NA','EMEA')"},
		{models.Condition{Field: "Region", Operator: "NOT IN", Value: "NA,EMEA"}, "APAC", "NA", "Region NOT IN ('NA','EMEA')"},
	}

	for _, tt := range tests {
		t.Run(string(tt.cond.Operator), func(t *testing.T) {
			fragment, err := ToQueryFragment(tt.cond.Field, tt.cond.Value, tt.cond.Operator)
			require.NoError(t, err)
			assert.Equal(t, tt.fragment, fragment)

			assert.True(t, Evaluate(map[string]any{tt.cond.Field: tt.match}, tt.cond), "record %v should match %s", tt.match, fragment)
			assert.False(t, Evaluate(map[string]any{tt.cond.Field: tt.miss}, tt.cond), "record %v should not match %s", tt.miss, fragment)
		})
	}
}

func TestToQueryFragment_Errors(t *testing.T) {
	_, err := ToQueryFragment("Status", "x", "~=")
	assert.ErrorIs(t, err, ErrUnknownOperator)

	_, err = ToQueryFragment("Amount", "10", "BETWEEN")
	assert.Error(t, err)
}

func TestMatches(t *testing.T) {
	record := map[string]any{"A": "1", "B": "2", "C": "3"}
	conds := []models.Condition{
		{Field: "A", Operator: "=", Value: "1"},
		{Field: "B", Operator: "=", Value: "x"},
		{Field: "C", Operator: "=", Value: "3"},
	}

	assert.False(t, Matches(record, &models.ConditionSet{Conditions: conds}))
	assert.True(t, Matches(record, &models.ConditionSet{Conditions: conds, LogicType: models.LogicOr}))
	assert.True(t, Matches(record, &models.ConditionSet{Conditions: conds, LogicType: models.LogicCustom, CustomLogic: "1 AND (2 OR 3)"}))
	assert.False(t, Matches(record, &models.ConditionSet{Conditions: conds, LogicType: models.LogicCustom, CustomLogic: "(1 AND 2) OR 4"}))
	assert.True(t, Matches(record, nil))
}

func TestFilterRecords(t *testing.T) {
	records := []map[string]any{
		{"Id": "1", "Status": "Active"},
		{"Id": "2", "Status": "Closed"},
		{"Id": "3", "Status": "Active"},
	}

	got := FilterRecords(records, &models.ConditionSet{Conditions: []models.Condition{
		{Field: "Status", Operator: "=", Value: "Active"},
	}})

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0]["Id"])
	assert.Equal(t, "3", got[1]["Id"])
}
