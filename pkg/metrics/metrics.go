// Package metrics exposes Prometheus instruments for flow runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/dukex/formflow/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry     *prometheus.Registry
	nodeResults  *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	tokenRefresh prometheus.Counter
}

// New creates the instruments on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodeResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_node_results_total",
				Help: "Node outcomes by node type and status",
			},
			[]string{"node_type", "status"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formflow_node_duration_seconds",
				Help:    "Duration of node executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node_type"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formflow_runs_total",
				Help: "Flow runs by outcome",
			},
			[]string{"outcome"},
		),
		tokenRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "formflow_token_refreshes_total",
			Help: "CRM access tokens refreshed during runs",
		}),
	}

	m.registry.MustRegister(
		m.nodeResults,
		m.nodeDuration,
		m.runs,
		m.tokenRefresh,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveNode records one node outcome. Safe on a nil receiver.
func (m *Metrics) ObserveNode(nodeType models.NodeType, status models.NodeStatus, took time.Duration) {
	if m == nil {
		return
	}

	m.nodeResults.WithLabelValues(string(nodeType), string(status)).Inc()
	m.nodeDuration.WithLabelValues(string(nodeType)).Observe(took.Seconds())
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(result *models.RunResult) {
	if m == nil || result == nil {
		return
	}

	outcome := "success"
	if result.Failed() {
		outcome = "failed"
	}

	m.runs.WithLabelValues(outcome).Inc()

	if result.NewAccessToken != "" {
		m.tokenRefresh.Inc()
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
