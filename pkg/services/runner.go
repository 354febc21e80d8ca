package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/metrics"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/salesforce"
	"github.com/dukex/formflow/pkg/sheets"
	"github.com/dukex/formflow/pkg/tokens"
	"github.com/dukex/formflow/pkg/workflow"
)

// Runner executes one mapping flow per submission. Each run gets its own
// CRM session, so a token is refreshed at most once per run.
type Runner struct {
	executor   *workflow.Executor
	tokens     tokens.Provider
	google     tokens.Refresher
	metrics    *metrics.Metrics
	httpClient *http.Client
	apiVersion string
	sheetsOpts []sheets.Option
	logger     *slog.Logger
}

type RunnerOption func(*Runner)

// WithTokenProvider serves stored tokens and refreshes expired ones.
func WithTokenProvider(p tokens.Provider) RunnerOption {
	return func(r *Runner) {
		r.tokens = p
	}
}

// WithGoogleRefresher enables the sheet nodes.
func WithGoogleRefresher(refresher tokens.Refresher, opts ...sheets.Option) RunnerOption {
	return func(r *Runner) {
		r.google = refresher
		r.sheetsOpts = opts
	}
}

func WithRunnerMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

func WithHTTPClient(client *http.Client) RunnerOption {
	return func(r *Runner) {
		r.httpClient = client
	}
}

func WithAPIVersion(version string) RunnerOption {
	return func(r *Runner) {
		r.apiVersion = version
	}
}

func NewRunner(executor *workflow.Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		executor: executor,
		logger:   log.WithModule("mapping_runner"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run validates req, resolves the user's CRM token and executes the flow.
// When any node failed it returns the results together with ErrFlowFailed.
func (r *Runner) Run(ctx context.Context, req *models.RunRequest) (*models.RunResult, error) {
	if err := validateRunRequest(req); err != nil {
		return nil, err
	}

	session := salesforce.NewSession(req.UserID, req.InstanceURL, req.AccessToken, r.provider(req.AccessToken)).
		WithAPIVersion(r.apiVersion)

	// fail before any node runs when the user has no usable credential
	if _, err := session.Token(ctx); err != nil {
		return nil, fmt.Errorf("resolving access token for user %s: %w", req.UserID, err)
	}

	clientOpts := []salesforce.Option{salesforce.WithLogger(r.logger.With("user_id", req.UserID))}
	if r.httpClient != nil {
		clientOpts = append(clientOpts, salesforce.WithHTTPClient(r.httpClient))
	}

	crm := salesforce.NewClient(session, clientOpts...)
	services := &models.Services{CRM: crm}

	if r.google != nil {
		credentials := sheets.NewCredentials(req.UserID, crm, r.google)
		services.Sheets = sheets.NewOpener(credentials, r.sheetsOpts...)
	}

	result, err := r.executor.Execute(ctx, req, services)
	if err != nil {
		if errors.Is(err, workflow.ErrNoExecutableNodes) {
			return nil, NewValidationError("Run", "no_nodes", "no executable nodes after removing Start and End", err)
		}

		return nil, err
	}

	if token, ok := session.RefreshedToken(); ok {
		result.NewAccessToken = token
	}

	r.metrics.ObserveRun(result)

	if failed := result.FailedNodes(); len(failed) > 0 {
		return result, fmt.Errorf("%w: nodes %s", ErrFlowFailed, strings.Join(failed, ", "))
	}

	return result, nil
}

// nolint:ireturn
func (r *Runner) provider(accessToken string) salesforce.TokenProvider {
	return &tokens.Static{AccessToken: accessToken, Fallback: r.tokens}
}

func validateRunRequest(req *models.RunRequest) error {
	if req == nil {
		return NewValidationError("Run", "invalid_request", "request is required", ErrInvalidRequest)
	}

	checks := []struct {
		missing bool
		code    string
		err     error
	}{
		{strings.TrimSpace(req.UserID) == "", "user_id_required", ErrUserIDRequired},
		{strings.TrimSpace(req.InstanceURL) == "", "instance_url_required", ErrInstanceURLRequired},
		{strings.TrimSpace(req.FormVersionID) == "", "form_version_required", ErrFormVersionRequired},
		{strings.TrimSpace(req.SubmissionID) == "", "submission_required", ErrSubmissionRequired},
	}

	for _, c := range checks {
		if c.missing {
			return NewValidationError("Run", c.code, c.err.Error(), c.err)
		}
	}

	for _, node := range req.Nodes {
		if node != nil && !node.Type.IsStructural() {
			return nil
		}
	}

	return NewValidationError("Run", "nodes_required", ErrNodesRequired.Error(), ErrNodesRequired)
}
