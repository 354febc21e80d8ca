package find

import (
	"context"
	"testing"

	"github.com/dukex/formflow/pkg/mocks"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func findNode(overrides ...func(*models.Node)) *models.Node {
	base := []func(*models.Node){
		testutil.WithID("find-1"),
		testutil.WithObject("Account"),
		testutil.WithConditions(models.Condition{Field: "Status", Operator: models.OperatorEquals, Value: "Active"}),
	}

	return testutil.CreateTestNode(models.NodeTypeFind, append(base, overrides...)...)
}

func TestFindNode_IDShapes(t *testing.T) {
	query := "SELECT Id, Status FROM Account WHERE (Status = 'Active')"

	tests := []struct {
		name    string
		records []map[string]any
		want    any
	}{
		{"none", []map[string]any{}, nil},
		{"one", []map[string]any{{"Id": "001A"}}, "001A"},
		{"many", []map[string]any{{"Id": "001A"}, {"Id": "001B"}}, []string{"001A", "001B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := &mocks.MockCRM{}
			crm.On("Query", mock.Anything, query).Return(tt.records, nil)

			run := testutil.NewRun(nil, &models.Services{CRM: crm})

			result, err := NewFindNode().Execute(context.Background(), run, findNode())
			require.NoError(t, err)

			assert.Equal(t, models.NodeStatusSuccess, result.Status)
			assert.Equal(t, tt.want, result.Get("ids"))
			assert.Contains(t, result.Data, "ids")
			assert.Equal(t, query, result.Get("query"))
		})
	}
}

func TestFindNode_CustomLogicRefiltersInProcess(t *testing.T) {
	crm := &mocks.MockCRM{}
	crm.On("Query", mock.Anything, mock.Anything).Return([]map[string]any{
		{"Id": "1", "Status": "Active", "Region": "EMEA"},
		{"Id": "2", "Status": "Active", "Region": "APAC"},
	}, nil)

	node := findNode(
		testutil.WithConditions(
			models.Condition{Field: "Status", Operator: models.OperatorEquals, Value: "Active"},
			models.Condition{Field: "Region", Operator: models.OperatorEquals, Value: "EMEA"},
		),
		testutil.WithLogic(models.LogicCustom, "1 AND 2"),
	)

	result, err := NewFindNode().Execute(context.Background(), testutil.NewRun(nil, &models.Services{CRM: crm}), node)
	require.NoError(t, err)
	assert.Equal(t, "1", result.Get("ids"))
}

func TestFindNode_FiltersPriorRecords(t *testing.T) {
	run := testutil.NewRun(nil, &models.Services{})
	run.Results["sheet"] = models.NodeResult{Data: map[string]any{
		"records": []map[string]any{
			{"Id": "r1", "Tier": "Gold"},
			{"Id": "r2", "Tier": "Silver"},
			{"Id": "r3", "Tier": "Gold"},
		},
	}}

	node := testutil.CreateTestNode(models.NodeTypeFilter,
		testutil.WithConditions(models.Condition{Field: "Tier", Operator: models.OperatorEquals, Value: "Gold"}),
		testutil.WithConfig(map[string]any{"sourceNodeId": "sheet"}),
	)

	result, err := NewFindNode().Execute(context.Background(), run, node)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r3"}, result.Get("ids"))
	assert.Equal(t, 2, result.Get("recordCount"))
}

func TestFindNode_NoSource(t *testing.T) {
	node := testutil.CreateTestNode(models.NodeTypeFilter,
		testutil.WithConditions(models.Condition{Field: "Tier", Operator: models.OperatorEquals, Value: "Gold"}),
	)

	_, err := NewFindNode().Execute(context.Background(), testutil.NewRun(nil, &models.Services{}), node)
	assert.ErrorIs(t, err, ErrNoSource)
}
