package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randlab/domain/analysis"
)

var resetMu sync.Mutex

func withRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	resetMu.Lock()
	reg := prometheus.NewRegistry()
	previous := SetRegisterer(reg)
	t.Cleanup(func() {
		SetRegisterer(previous)
		resetMu.Unlock()
	})
	return reg
}

func gatherFamilies(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	fams, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(fams))
	for _, fam := range fams {
		out[fam.GetName()] = fam
	}
	return out
}

func metricWithLabels(t *testing.T, fams map[string]*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	fam, ok := fams[name]
	require.True(t, ok, "metric %s not found", name)
	for _, metric := range fam.GetMetric() {
		if labelsMatch(metric, labels) {
			return metric
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return nil
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.GetLabel()) != len(labels) {
		return false
	}
	for _, pair := range metric.GetLabel() {
		if labels[pair.GetName()] != pair.GetValue() {
			return false
		}
	}
	return true
}

func counterValue(t *testing.T, fams map[string]*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	counter := metricWithLabels(t, fams, name, labels).GetCounter()
	require.NotNil(t, counter, "metric %s is not a counter", name)
	return counter.GetValue()
}

func TestSetRegistererIsRepeatable(t *testing.T) {
	reg := withRegistry(t)
	RecordRuns(1, 0)
	first := gatherFamilies(t, reg)
	require.NotEmpty(t, first)

	SetRegisterer(reg)
	RecordRuns(1, 0)
	second := gatherFamilies(t, reg)
	assert.Len(t, second, len(first))
	assert.Equal(t, 1.0, counterValue(t, second, "randlab_runs_analyzed_total", nil), "collectors restart from zero")
}

func TestRecordAnalysis(t *testing.T) {
	reg := withRegistry(t)

	RecordAnalysis(analysis.KindSingleRun, nil, 10*time.Millisecond)
	RecordAnalysis(analysis.KindMultiRun, errors.New("boom"), -time.Second)
	RecordAnalysis(analysis.KindMultiRun, nil, time.Millisecond)

	fams := gatherFamilies(t, reg)
	tests := []struct {
		kind, outcome string
	}{
		{"single_run", "success"},
		{"multi_run", "error"},
		{"multi_run", "success"},
	}
	for _, tt := range tests {
		got := counterValue(t, fams, "randlab_analyses_total", map[string]string{"kind": tt.kind, "outcome": tt.outcome})
		assert.Equal(t, 1.0, got, "%s/%s", tt.kind, tt.outcome)
	}

	hist := metricWithLabels(t, fams, "randlab_analysis_duration_seconds", map[string]string{"kind": "multi_run"}).GetHistogram()
	require.NotNil(t, hist)
	assert.Equal(t, uint64(2), hist.GetSampleCount())
}

func TestObserverForwards(t *testing.T) {
	reg := withRegistry(t)

	var o Observer
	o.AnalysisFinished(analysis.KindSingleRun, nil, time.Millisecond)
	o.RunsFiltered(3, 1)
	o.RunsFiltered(0, 0)
	o.TestOutcome("runs_test", true)
	o.TestOutcome("runs_test", false)
	o.TestOutcome("runs_test", false)

	fams := gatherFamilies(t, reg)
	assert.Equal(t, 3.0, counterValue(t, fams, "randlab_runs_analyzed_total", nil))
	assert.Equal(t, 1.0, counterValue(t, fams, "randlab_runs_skipped_total", nil))
	assert.Equal(t, 1.0, counterValue(t, fams, "randlab_test_outcomes_total", map[string]string{"test": "runs_test", "passed": "true"}))
	assert.Equal(t, 2.0, counterValue(t, fams, "randlab_test_outcomes_total", map[string]string{"test": "runs_test", "passed": "false"}))
	assert.Equal(t, 1.0, counterValue(t, fams, "randlab_analyses_total", map[string]string{"kind": "single_run", "outcome": "success"}))
}

func TestHandlerServesCurrentRegistry(t *testing.T) {
	withRegistry(t)
	RecordHTTPRequest("/analyze", http.StatusBadRequest)
	RecordHTTPRequest("/health", 0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `randlab_http_requests_total{route="/analyze",status="400"} 1`)
	assert.Contains(t, body, `randlab_http_requests_total{route="/health",status="200"} 1`)
}
