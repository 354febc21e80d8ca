// Package workflow runs the mapping nodes of a form submission in order.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dukex/formflow/pkg/audit"
	"github.com/dukex/formflow/pkg/log"
	"github.com/dukex/formflow/pkg/metrics"
	"github.com/dukex/formflow/pkg/models"
	"github.com/dukex/formflow/pkg/otelhelper"
	"github.com/dukex/formflow/pkg/persistence"
	"github.com/dukex/formflow/pkg/registry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrNoExecutableNodes = errors.New("no executable nodes in flow")

type Executor struct {
	registry *registry.Registry
	mappings persistence.Persistence
	sink     audit.Sink
	tracer   trace.Tracer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

type Option func(*Executor)

// WithMappings resolves nodes sent without a definition from stored mappings.
func WithMappings(p persistence.Persistence) Option {
	return func(e *Executor) {
		e.mappings = p
	}
}

func WithAuditSink(sink audit.Sink) Option {
	return func(e *Executor) {
		e.sink = sink
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(reg *registry.Registry, logger *slog.Logger, opts ...Option) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Executor{
		registry: reg,
		sink:     audit.Discard{},
		tracer:   otelhelper.NoopTracer(),
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs the request's nodes by ascending order and returns every
// node's result. A node failure never stops the run.
func (e *Executor) Execute(ctx context.Context, req *models.RunRequest, services *models.Services) (*models.RunResult, error) {
	nodes := e.executableNodes(e.resolve(ctx, req))
	if len(nodes) == 0 {
		return nil, ErrNoExecutableNodes
	}

	run := models.NewExecutionContext(e.newID(), req)
	run.Services = services
	run.Logger = e.logger.With(
		"module", "workflow_executor",
		"execution_id", run.ID,
		"form_version_id", req.FormVersionID,
		"submission_id", req.SubmissionID,
	)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.ExecutionIDKey, run.ID),
		attribute.String(otelhelper.UserIDKey, req.UserID),
		attribute.String(otelhelper.FormVersionIDKey, req.FormVersionID),
		attribute.String(otelhelper.SubmissionIDKey, req.SubmissionID),
		attribute.Int(otelhelper.NodeCountKey, len(nodes)),
	)
	defer span.End()

	run.Logger.InfoContext(ctx, "starting flow", "nodes", len(nodes))

	processed := make(map[string]bool, len(nodes))

	for _, node := range nodes {
		if processed[node.NodeID] {
			run.Logger.DebugContext(ctx, "node already processed", "node_id", node.NodeID)
			continue
		}

		processed[node.NodeID] = true

		e.executeNode(ctx, run, node)
	}

	result := &models.RunResult{ExecutionID: run.ID, Results: run.Results}

	if failed := result.FailedNodes(); len(failed) > 0 {
		run.Logger.WarnContext(ctx, "flow finished with failures", "failed_nodes", failed)
	} else {
		run.Logger.InfoContext(ctx, "flow finished")
	}

	return result, nil
}

func (e *Executor) executeNode(ctx context.Context, run *models.ExecutionContext, node *models.Node) {
	logger := run.Logger.With("node_id", node.NodeID, "node_type", node.Type)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
		attribute.String(otelhelper.NodeIDKey, node.NodeID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
	)
	defer span.End()

	started := e.now()

	var result models.NodeResult

	if run.SkipUntilNextCondition && node.Type != models.NodeTypeCondition {
		logger.InfoContext(ctx, "skipping node until next condition")

		result = models.NodeResult{
			Status:  models.NodeStatusSkipped,
			Message: "Skipped: a previous condition was not met",
		}
	} else {
		nodeLogger := run.Logger
		run.Logger = logger
		result = e.dispatch(ctx, run, node)
		run.Logger = nodeLogger
	}

	result.NodeID = node.NodeID
	result.Type = node.Type
	result.Timestamp = e.now()

	run.Results[node.NodeID] = result

	span.SetAttributes(attribute.String(otelhelper.NodeStatusKey, string(result.Status)))

	if result.Failed() {
		otelhelper.SetError(span, fmt.Errorf("node %s %s: %s", node.NodeID, result.Status, result.Error))
		logger.WarnContext(ctx, "node failed", "error", result.Error)
	} else {
		logger.DebugContext(ctx, "node finished", "status", result.Status)
	}

	e.metrics.ObserveNode(node.Type, result.Status, e.now().Sub(started))
	e.sink.Append(ctx, audit.NewEvent(e.newID(), run, node, result))
}

// dispatch runs node through its registered executor. Errors become a failed
// result so the rest of the flow still runs.
func (e *Executor) dispatch(ctx context.Context, run *models.ExecutionContext, node *models.Node) models.NodeResult {
	if err := e.registry.Validate(node); err != nil {
		return failedResult(err)
	}

	executor, err := e.registry.CreateNode(ctx, node.Type)
	if err != nil {
		return failedResult(err)
	}

	result, err := executor.Execute(ctx, run, node)
	if err != nil {
		return failedResult(err)
	}

	return result
}

func failedResult(err error) models.NodeResult {
	return models.NodeResult{
		Status:  models.NodeStatusFailed,
		Success: false,
		Error:   err.Error(),
	}
}

// resolve fills nodes sent without a definition from the stored mappings of
// the form version. The incoming order and type take precedence.
func (e *Executor) resolve(ctx context.Context, req *models.RunRequest) []*models.Node {
	if e.mappings == nil || req.FormVersionID == "" {
		return req.Nodes
	}

	logger := log.WithModule("workflow_executor").With("form_version_id", req.FormVersionID)

	var stored []*models.Node

	loaded := false
	out := make([]*models.Node, 0, len(req.Nodes))

	for _, node := range req.Nodes {
		if node == nil || node.HasDefinition() || node.Type.IsStructural() {
			out = append(out, node)
			continue
		}

		if !loaded {
			var err error

			stored, err = e.mappings.NodeMappings(ctx, req.FormVersionID)
			if err != nil && !persistence.IsMappingNotFound(err) {
				logger.WarnContext(ctx, "failed to load stored mappings", "error", err)
			}

			loaded = true
		}

		base, err := persistence.FindNode(req.FormVersionID, node.NodeID, stored)
		if err != nil {
			out = append(out, node)
			continue
		}

		out = append(out, merge(base, node))
	}

	return out
}

func merge(base, incoming *models.Node) *models.Node {
	merged := *base

	if incoming.Type != "" {
		merged.Type = incoming.Type
	}

	if incoming.Order != 0 {
		merged.Order = incoming.Order
	}

	if incoming.Label != "" {
		merged.Label = incoming.Label
	}

	if incoming.PathOption != "" {
		merged.PathOption = incoming.PathOption
	}

	return &merged
}

// executableNodes drops structural and nil nodes and sorts the rest by order,
// keeping the request order between equal orders.
func (e *Executor) executableNodes(nodes []*models.Node) []*models.Node {
	out := make([]*models.Node, 0, len(nodes))

	for _, n := range nodes {
		if n == nil || n.NodeID == "" || n.Type.IsStructural() {
			continue
		}

		out = append(out, n)
	}

	slices.SortStableFunc(out, func(a, b *models.Node) int {
		return a.Order - b.Order
	})

	return out
}
