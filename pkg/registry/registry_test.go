package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/nodes/find"
	"github.com/dukex/formflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultRegistry() *Registry {
	r := NewRegistry(slog.Default())
	r.RegisterDefaultNodes()

	return r
}

func TestRegisterDefaultNodes(t *testing.T) {
	r := newDefaultRegistry()

	ids := make([]string, 0)
	for _, f := range r.Factories() {
		ids = append(ids, f.ID())
	}

	assert.Equal(t, []string{
		"Condition",
		"CreateUpdate",
		"Filter",
		"Find",
		"FindGoogleSheet",
		"Formatter",
		"Google Sheet",
		"Loop",
	}, ids)
}

func TestCreateNode(t *testing.T) {
	r := newDefaultRegistry()

	node, err := r.CreateNode(context.Background(), models.NodeTypeFilter)
	require.NoError(t, err)
	assert.IsType(t, &find.FindNode{}, node)

	_, err = r.CreateNode(context.Background(), models.NodeTypeStart)
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestValidate(t *testing.T) {
	r := newDefaultRegistry()

	valid := testutil.CreateTestNode(models.NodeTypeFind,
		testutil.WithObject("Account"),
		testutil.WithConditions(models.Condition{Field: "Name", Operator: models.OperatorEquals, Value: "Acme"}),
	)
	assert.NoError(t, r.Validate(valid))

	missing := testutil.CreateTestNode(models.NodeTypeFind, testutil.WithID("find-x"), testutil.WithObject("Account"))
	err := r.Validate(missing)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "find-x", schemaErr.NodeID)
	assert.NotEmpty(t, schemaErr.Issues)

	loopNode := testutil.CreateTestNode(models.NodeTypeLoop, testutil.WithLoop(models.LoopConfig{}))
	assert.Error(t, r.Validate(loopNode))

	sheetNode := testutil.CreateTestNode(models.NodeTypeGoogleSheet,
		testutil.WithConfig(map[string]any{"spreadsheetId": "abc"}),
		testutil.WithMappings(models.FieldMapping{FormFieldID: "a", SalesforceField: "A"}),
	)
	assert.NoError(t, r.Validate(sheetNode))
}
