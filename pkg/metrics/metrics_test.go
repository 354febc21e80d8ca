package metrics

import (
	"testing"
	"time"

	"github.com/dukex/formflow/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveNode(t *testing.T) {
	m := New()

	m.ObserveNode(models.NodeTypeFind, models.NodeStatusSuccess, 20*time.Millisecond)
	m.ObserveNode(models.NodeTypeFind, models.NodeStatusSuccess, 10*time.Millisecond)
	m.ObserveNode(models.NodeTypeLoop, models.NodeStatusSkipped, 0)

	assert.InDelta(t, 2, testutil.ToFloat64(m.nodeResults.WithLabelValues("Find", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.nodeResults.WithLabelValues("Loop", "skipped")), 0)
}

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun(&models.RunResult{Results: map[string]models.NodeResult{"a": {Status: models.NodeStatusFailed}}})
	m.ObserveRun(&models.RunResult{NewAccessToken: "fresh", Results: map[string]models.NodeResult{}})

	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("failed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tokenRefresh), 0)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveNode(models.NodeTypeFind, models.NodeStatusSuccess, time.Second)
		m.ObserveRun(&models.RunResult{})
	})
}
