package soql

import (
	"testing"

	"github.com/dukex/formflow/pkg/logic"
	"github.com/dukex/formflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findNode(set *models.ConditionSet) *models.Node {
	return &models.Node{
		NodeID:           "find-1",
		Type:             models.NodeTypeFind,
		SalesforceObject: "Account",
		Conditions:       set,
	}
}

func TestBuild_SingleCondition(t *testing.T) {
	query, err := Build(findNode(&models.ConditionSet{
		Conditions: []models.Condition{{Field: "Status", Operator: "=", Value: "Active"}},
	}))

	require.NoError(t, err)
	assert.Equal(t, "SELECT Id, Status FROM Account WHERE (Status = 'Active')", query)
}

func TestBuild_OrWithSortAndLimit(t *testing.T) {
	query, err := Build(findNode(&models.ConditionSet{
		Conditions: []models.Condition{
			{Field: "Status", Operator: "=", Value: "Active"},
			{Field: "Status", Operator: "=", Value: "Pending"},
			{Field: "Amount", Operator: ">", Value: "10"},
		},
		LogicType:   models.LogicOr,
		SortField:   "Name",
		SortOrder:   "desc",
		ReturnLimit: 10,
	}))

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT Id, Status, Amount FROM Account WHERE (Status = 'Active') OR (Status = 'Pending') OR (Amount > 10) ORDER BY Name DESC LIMIT 10",
		query)
}

func TestBuild_CustomLogic(t *testing.T) {
	query, err := Build(findNode(&models.ConditionSet{
		Conditions: []models.Condition{
			{Field: "Name", Operator: "LIKE", Value: "Acme"},
			{Field: "Region", Operator: "IN", Value: "NA,EMEA"},
			{Field: "Amount", Operator: "BETWEEN", Value: "1,5"},
		},
		LogicType:   models.LogicCustom,
		CustomLogic: "1 and (2 or 3)",
	}))

	require.NoError(t, err)
	assert.Equal(t,
		"SELECT Id, Name, Region, Amount FROM Account WHERE Name LIKE '%Acme%' AND (Region IN ('NA','EMEA') OR (Amount >= 1 AND Amount <= 5))",
		query)
}

func TestBuild_CustomLogicRejectsInjection(t *testing.T) {
	_, err := Build(findNode(&models.ConditionSet{
		Conditions:  []models.Condition{{Field: "Name", Operator: "=", Value: "x"}},
		LogicType:   models.LogicCustom,
		CustomLogic: "1 OR Name != null",
	}))

	assert.True(t, logic.IsValidationError(err))
}

func TestBuild_NoConditions(t *testing.T) {
	query, err := Build(&models.Node{NodeID: "cu", Type: models.NodeTypeCreateUpdate, SalesforceObject: "Contact"})
	require.NoError(t, err)
	assert.Empty(t, query)

	_, err = Build(findNode(nil))
	assert.ErrorIs(t, err, ErrNoConditions)
}

func TestBuild_MissingObject(t *testing.T) {
	node := findNode(&models.ConditionSet{Conditions: []models.Condition{{Field: "A", Operator: "=", Value: "1"}}})
	node.SalesforceObject = ""

	_, err := Build(node)
	assert.ErrorIs(t, err, ErrMissingObject)
}

func TestBuild_UnknownOperator(t *testing.T) {
	_, err := Build(findNode(&models.ConditionSet{
		Conditions: []models.Condition{{Field: "A", Operator: "CONTAINS", Value: "1"}},
	}))
	assert.Error(t, err)
}
