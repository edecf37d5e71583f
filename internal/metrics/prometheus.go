// Package metrics registers and records the Prometheus metrics of the
// analysis service: analyses run, runs filtered, test outcomes and HTTP
// requests.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"randlab/domain/analysis"
)

var (
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	RunsAnalyzed     prometheus.Counter
	RunsSkipped      prometheus.Counter
	TestOutcomes     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec

	metricsMu         sync.RWMutex
	currentRegisterer prometheus.Registerer = prometheus.DefaultRegisterer
)

func init() {
	SetRegisterer(prometheus.DefaultRegisterer)
}

// SetRegisterer moves every collector to registerer and returns the previous
// one so tests can restore it.
func SetRegisterer(registerer prometheus.Registerer) prometheus.Registerer {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	previous := currentRegisterer
	if currentRegisterer != nil {
		unregisterAll(currentRegisterer)
	}
	currentRegisterer = registerer
	initializeMetrics(registerer)
	return previous
}

// initializeMetrics must be called while holding metricsMu.
func initializeMetrics(registerer prometheus.Registerer) {
	factory := promauto.With(registerer)

	AnalysesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randlab_analyses_total",
			Help: "Total number of analyses by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	AnalysisDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "randlab_analysis_duration_seconds",
			Help:    "Time taken to compute an analysis",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"kind"},
	)

	RunsAnalyzed = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "randlab_runs_analyzed_total",
			Help: "Total number of runs included in multi-run aggregates",
		},
	)

	RunsSkipped = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "randlab_runs_skipped_total",
			Help: "Total number of runs left out of aggregates for NaN or Inf values",
		},
	)

	TestOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randlab_test_outcomes_total",
			Help: "Randomness test outcomes per test",
		},
		[]string{"test", "passed"},
	)

	HTTPRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "randlab_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"route", "status"},
	)
}

func unregisterAll(registerer prometheus.Registerer) {
	if AnalysesTotal != nil {
		registerer.Unregister(AnalysesTotal)
	}
	if AnalysisDuration != nil {
		registerer.Unregister(AnalysisDuration)
	}
	if RunsAnalyzed != nil {
		registerer.Unregister(RunsAnalyzed)
	}
	if RunsSkipped != nil {
		registerer.Unregister(RunsSkipped)
	}
	if TestOutcomes != nil {
		registerer.Unregister(TestOutcomes)
	}
	if HTTPRequests != nil {
		registerer.Unregister(HTTPRequests)
	}
}

// Handler serves the metrics of the current registerer when it can be
// gathered, and of the default gatherer otherwise.
func Handler() http.Handler {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	if g, ok := currentRegisterer.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// RecordAnalysis records one finished analysis.
func RecordAnalysis(kind analysis.Kind, err error, elapsed time.Duration) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if elapsed < 0 {
		elapsed = 0
	}
	AnalysesTotal.WithLabelValues(string(kind), outcome).Inc()
	AnalysisDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// RecordRuns records how many runs a multi-run analysis kept and skipped.
func RecordRuns(analyzed, skipped int) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	if analyzed > 0 {
		RunsAnalyzed.Add(float64(analyzed))
	}
	if skipped > 0 {
		RunsSkipped.Add(float64(skipped))
	}
}

// RecordTestOutcome records one test result.
func RecordTestOutcome(test string, passed bool) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	TestOutcomes.WithLabelValues(test, strconv.FormatBool(passed)).Inc()
}

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(route string, status int) {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	if status <= 0 {
		status = http.StatusOK
	}
	HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Observer forwards analyzer outcomes to the package collectors.
type Observer struct{}

func (Observer) AnalysisFinished(kind analysis.Kind, err error, elapsed time.Duration) {
	RecordAnalysis(kind, err, elapsed)
}

func (Observer) RunsFiltered(analyzed, skipped int) { RecordRuns(analyzed, skipped) }

func (Observer) TestOutcome(test string, passed bool) { RecordTestOutcome(test, passed) }
