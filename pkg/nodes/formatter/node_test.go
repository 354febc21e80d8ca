package formatter

import (
	"context"
	"testing"

	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterNode_WritesOutputVariable(t *testing.T) {
	run := testutil.NewRun(map[string]any{"company": "acme corp"}, &models.Services{})
	node := testutil.CreateTestNode(models.NodeTypeFormatter, testutil.WithFormatter(models.FormatterConfig{
		FormatType:     "text",
		Operation:      "uppercase",
		InputField:     "company",
		OutputVariable: "companyUpper",
	}))

	result, err := NewFormatterNode().Execute(context.Background(), run, node)
	require.NoError(t, err)

	assert.Equal(t, models.NodeStatusCompleted, result.Status)
	assert.True(t, result.Success)
	assert.Equal(t, "ACME CORP", result.Get("output"))
	assert.Equal(t, "ACME CORP", run.Variables["companyUpper"])
}

func TestFormatterNode_MissingInputIsSkipped(t *testing.T) {
	run := testutil.NewRun(map[string]any{}, &models.Services{})
	node := testutil.CreateTestNode(models.NodeTypeFormatter, testutil.WithFormatter(models.FormatterConfig{
		FormatType: "text",
		Operation:  "lowercase",
		InputField: "missing",
	}))

	result, err := NewFormatterNode().Execute(context.Background(), run, node)
	require.NoError(t, err)

	assert.Equal(t, models.NodeStatusSkipped, result.Status)
	assert.False(t, result.Failed())
	assert.Contains(t, result.Error, "missing")
}

func TestFormatterNode_NoConfig(t *testing.T) {
	_, err := NewFormatterNode().Execute(context.Background(), testutil.NewRun(nil, nil), testutil.CreateTestNode(models.NodeTypeFormatter))
	assert.Error(t, err)
}
