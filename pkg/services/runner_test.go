package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/metrics"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/registry"
	"github.com/dukex/formflow/pkg/tokens"
	"github.com/dukex/formflow/pkg/workflow"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refreshingProvider struct {
	calls atomic.Int32
}

func (p *refreshingProvider) Token(_ context.Context, _ string, forceRefresh bool) (string, error) {
	p.calls.Add(1)

	if forceRefresh {
		return "fresh-token", nil
	}

	return "", tokens.ErrTokenNotFound
}

// fakeCRM rejects "expired-token" and creates Accounts unless failCreate is set.
func fakeCRM(t *testing.T, failCreate bool) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Header.Get("Authorization") == "Bearer expired-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`[{"errorCode":"INVALID_SESSION_ID","message":"Session expired or invalid"}]`))

			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/query"):
			_, _ = w.Write([]byte(`{"totalSize":0,"done":true,"records":[]}`))
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/sobjects/Account"):
			if failCreate {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`[{"errorCode":"REQUIRED_FIELD_MISSING","message":"Required fields are missing: [Name]"}]`))

				return
			}

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"001ACME","success":true,"errors":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func newRunner(opts ...RunnerOption) *Runner {
	reg := registry.NewRegistry(log.WithModule("registry"))
	reg.RegisterDefaultNodes()

	return NewRunner(workflow.NewExecutor(reg, log.WithModule("workflow_executor")), opts...)
}

func findThenCreate(instanceURL, token string) *models.RunRequest {
	return &models.RunRequest{
		UserID:        "005USER",
		InstanceURL:   instanceURL,
		AccessToken:   token,
		FormVersionID: "fv-1",
		SubmissionID:  "sub-1",
		FormData:      map[string]any{"name": "Acme"},
		Nodes: []*models.Node{
			{NodeID: "start", Type: models.NodeTypeStart},
			{
				NodeID:           "find-contact",
				Type:             models.NodeTypeFind,
				Order:            1,
				SalesforceObject: "Contact",
				Conditions: &models.ConditionSet{
					LogicType:  models.LogicAnd,
					Conditions: []models.Condition{{Field: "Email", Operator: models.OperatorEquals, Value: "a@b.com"}},
				},
			},
			{
				NodeID:           "create-account",
				Type:             models.NodeTypeCreateUpdate,
				Order:            2,
				SalesforceObject: "Account",
				FieldMappings:    []models.FieldMapping{{FormFieldID: "name", SalesforceField: "Name"}},
			},
			{NodeID: "end", Type: models.NodeTypeEnd, Order: 3},
		},
	}
}

func TestRunner_FindThenCreateWithRefresh(t *testing.T) {
	server := fakeCRM(t, false)
	provider := &refreshingProvider{}
	m := metrics.New()

	runner := newRunner(WithTokenProvider(provider), WithRunnerMetrics(m), WithHTTPClient(server.Client()))

	result, err := runner.Run(context.Background(), findThenCreate(server.URL, "expired-token"))
	require.NoError(t, err)

	find := result.Results["find-contact"]
	assert.Contains(t, find.Data, "ids")
	assert.Nil(t, find.Get("ids"))

	created := result.Results["create-account"]
	assert.True(t, created.Success)
	assert.Equal(t, "001ACME", created.Get("recordId"))

	assert.Equal(t, "fresh-token", result.NewAccessToken)
	assert.Equal(t, int32(1), provider.calls.Load())
	require.NoError(t, promtestutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP formflow_token_refreshes_total CRM access tokens refreshed during runs
# TYPE formflow_token_refreshes_total counter
formflow_token_refreshes_total 1
`), "formflow_token_refreshes_total"))
}

func TestRunner_FailedNodeReturnsResults(t *testing.T) {
	server := fakeCRM(t, true)
	runner := newRunner(WithHTTPClient(server.Client()))

	result, err := runner.Run(context.Background(), findThenCreate(server.URL, "valid-token"))
	require.ErrorIs(t, err, ErrFlowFailed)
	require.NotNil(t, result)

	failed := result.Results["create-account"]
	assert.Equal(t, models.NodeStatusFailed, failed.Status)
	assert.Contains(t, failed.Error, "REQUIRED_FIELD_MISSING")
	assert.Empty(t, result.NewAccessToken)
}

func TestRunner_MissingCredential(t *testing.T) {
	runner := newRunner()

	_, err := runner.Run(context.Background(), findThenCreate("https://org.example", ""))
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestRunner_Validation(t *testing.T) {
	runner := newRunner()

	tests := []struct {
		name   string
		mutate func(*models.RunRequest)
		want   error
	}{
		{"user", func(r *models.RunRequest) { r.UserID = "" }, ErrUserIDRequired},
		{"instance", func(r *models.RunRequest) { r.InstanceURL = " " }, ErrInstanceURLRequired},
		{"form version", func(r *models.RunRequest) { r.FormVersionID = "" }, ErrFormVersionRequired},
		{"submission", func(r *models.RunRequest) { r.SubmissionID = "" }, ErrSubmissionRequired},
		{"only structural nodes", func(r *models.RunRequest) {
			r.Nodes = []*models.Node{{NodeID: "s", Type: models.NodeTypeStart}, {NodeID: "e", Type: models.NodeTypeEnd}}
		}, ErrNodesRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := findThenCreate("https://org.example", "token")
			tt.mutate(req)

			_, err := runner.Run(context.Background(), req)
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}
}
