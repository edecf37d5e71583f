// Package analyzer assembles the statistical blocks into single-run and
// multi-run analysis results.
package analyzer

import (
	"context"
	"fmt"
	"math"
	"time"

	mfstats "github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"randlab/domain/analysis"
	"randlab/domain/core"
	"randlab/internal"
	"randlab/internal/stats"
	"randlab/internal/stats/nist"
)

const (
	// ksPassThreshold is the soft uniformity threshold used for tallies.
	ksPassThreshold = 0.05
	// significantCorrelation flags a lag in the autocorrelation table.
	significantCorrelation = 0.2
	// combinedHistogramBins caps the combined frequency histogram.
	combinedHistogramBins = 50
)

// Observer receives analysis outcomes. internal/metrics implements it.
type Observer interface {
	AnalysisFinished(kind analysis.Kind, err error, elapsed time.Duration)
	RunsFiltered(analyzed, skipped int)
	TestOutcome(test string, passed bool)
}

type nopObserver struct{}

func (nopObserver) AnalysisFinished(analysis.Kind, error, time.Duration) {}
func (nopObserver) RunsFiltered(int, int)                                {}
func (nopObserver) TestOutcome(string, bool)                             {}

// Analyzer runs analyses. It holds no state between calls.
type Analyzer struct {
	logger   *internal.Logger
	workers  int
	observer Observer
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *internal.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithWorkers sets how many runs AnalyzeMultiRun processes at once.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithObserver installs an outcome observer.
func WithObserver(o Observer) Option {
	return func(a *Analyzer) {
		if o != nil {
			a.observer = o
		}
	}
}

// New creates an Analyzer. By default runs are processed one at a time.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		logger:   internal.DefaultLogger,
		workers:  1,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.WithComponent("Analyzer")
	return a
}

// Run dispatches a decoded request to the matching analysis.
func (a *Analyzer) Run(ctx context.Context, req analysis.Request) (any, error) {
	switch r := req.(type) {
	case analysis.SingleRunRequest:
		return a.Analyze(r.Numbers, r.Provider)
	case analysis.MultiRunRequest:
		return a.AnalyzeMultiRun(ctx, r.Runs, r.Provider, r.NumRuns)
	default:
		return nil, fmt.Errorf("%w: unsupported request kind %T", core.ErrInvalidRequest, req)
	}
}

// Analyze computes every analysis block of one non-empty sequence. The raw
// sequence is not echoed in the result.
func (a *Analyzer) Analyze(xs []float64, provider string) (analysis.AnalysisResult, error) {
	start := time.Now()
	result, err := analyzeSequence(xs, provider)
	a.observer.AnalysisFinished(analysis.KindSingleRun, err, time.Since(start))
	if err != nil {
		return analysis.AnalysisResult{}, err
	}
	a.observeTests(result)
	return result, nil
}

func analyzeSequence(xs []float64, provider string) (analysis.AnalysisResult, error) {
	if len(xs) == 0 {
		return analysis.AnalysisResult{}, core.ErrEmptySequence
	}
	basic, err := stats.ComputeBasicStats(xs)
	if err != nil {
		return analysis.AnalysisResult{}, err
	}
	return analysis.AnalysisResult{
		Provider:      provider,
		Count:         len(xs),
		BasicStats:    basic,
		Distribution:  stats.AnalyzeDistribution(xs),
		RangeBehavior: stats.AnalyzeRangeBehavior(xs),
		Independence:  stats.AnalyzeIndependence(xs),
		Stationarity:  stats.AnalyzeStationarity(xs),
		Spectral:      stats.AnalyzeSpectrum(xs),
		NISTTests:     nist.RunAll(xs),
	}, nil
}

func (a *Analyzer) observeTests(result analysis.AnalysisResult) {
	a.observer.TestOutcome("ks_uniformity", result.Distribution.IsUniform.PValue > ksPassThreshold)
	for name, outcome := range result.NISTTests.Outcomes() {
		a.observer.TestOutcome(name, outcome.Passed)
	}
}

// runSummary is what one retained run contributes to the aggregate.
type runSummary struct {
	mean     float64
	std      float64
	skewness float64
	kurtosis float64
	ksPassed bool
	autocorr analysis.AutocorrelationSummary
	ecdf     analysis.RunECDF
	result   analysis.AnalysisResult
}

// summarizeRun computes the rough per-run statistics and the full analysis
// of run number index (1-based).
func summarizeRun(run []float64, index int, provider string) (*runSummary, error) {
	result, err := analyzeSequence(run, provider)
	if err != nil {
		return nil, err
	}

	mean, err := mfstats.Mean(run)
	if err != nil {
		return nil, err
	}
	// NOTE: population std (ddof=0) here, while basic_stats.std and the
	// combined stream use the sample std (ddof=1). Kept as is; likely an
	// inconsistency in the metric definitions.
	std, err := mfstats.StandardDeviationPopulation(run)
	if err != nil {
		return nil, err
	}

	acf := result.Independence.Autocorrelation
	lags := analysis.LagList{}
	var maxCorr float64
	for i, r := range acf.Values {
		abs := math.Abs(r)
		if abs > maxCorr {
			maxCorr = abs
		}
		if abs > significantCorrelation {
			lags = append(lags, acf.Lags[i])
		}
	}

	ecdf := result.RangeBehavior.ECDF
	return &runSummary{
		mean:     mean,
		std:      std,
		skewness: stats.Skewness(run),
		kurtosis: stats.ExcessKurtosis(run),
		ksPassed: result.Distribution.IsUniform.PValue > ksPassThreshold,
		autocorr: analysis.AutocorrelationSummary{Run: index, SignificantLags: lags, MaxCorrelation: maxCorr},
		ecdf:     analysis.RunECDF{Run: index, X: ecdf.X, Y: ecdf.Y},
		result:   result,
	}, nil
}

// AnalyzeMultiRun analyzes every run and aggregates across them. Runs
// containing NaN or Inf are left out of the aggregate. Test tallies are
// reported against numRuns as declared by the caller, not against the number
// of runs retained.
func (a *Analyzer) AnalyzeMultiRun(ctx context.Context, runs [][]float64, provider string, numRuns int) (analysis.MultiRunAnalysisResult, error) {
	start := time.Now()
	result, err := a.analyzeMultiRun(ctx, runs, provider, numRuns)
	a.observer.AnalysisFinished(analysis.KindMultiRun, err, time.Since(start))
	return result, err
}

func (a *Analyzer) analyzeMultiRun(ctx context.Context, runs [][]float64, provider string, numRuns int) (analysis.MultiRunAnalysisResult, error) {
	if len(runs) == 0 {
		return analysis.MultiRunAnalysisResult{}, core.ErrNoRuns
	}
	for i, run := range runs {
		if len(run) == 0 {
			return analysis.MultiRunAnalysisResult{}, core.NewEmptyRunError(i + 1)
		}
	}

	slots := make([]*runSummary, len(runs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, run := range runs {
		if !stats.AllFinite(run) {
			a.logger.Debug("skipping run %d: contains NaN or Inf", i+1)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summary, err := summarizeRun(run, i+1, provider)
			if err != nil {
				return fmt.Errorf("run %d: %w", i+1, err)
			}
			slots[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return analysis.MultiRunAnalysisResult{}, err
	}

	var retained []*runSummary
	var retainedRuns [][]float64
	for i, s := range slots {
		if s != nil {
			retained = append(retained, s)
			retainedRuns = append(retainedRuns, runs[i])
		}
	}
	a.observer.RunsFiltered(len(retained), len(runs)-len(retained))
	if len(retained) == 0 {
		return analysis.MultiRunAnalysisResult{}, core.ErrNoValidRuns
	}

	out := analysis.MultiRunAnalysisResult{
		Provider:              provider,
		NumRuns:               numRuns,
		CountPerRun:           len(runs[0]),
		AggregateStats:        aggregate(retained),
		DistributionDeviation: stats.ComputeDistributionDeviation(runs),
		TestResults:           a.tally(retained, numRuns),
		AutocorrelationTable:  make([]analysis.AutocorrelationSummary, 0, len(retained)),
		ECDFAllRuns:           make([]analysis.RunECDF, 0, len(retained)),
		IndividualAnalyses:    make([]analysis.AnalysisResult, 0, len(retained)),
	}
	for _, s := range retained {
		out.AutocorrelationTable = append(out.AutocorrelationTable, s.autocorr)
		out.ECDFAllRuns = append(out.ECDFAllRuns, s.ecdf)
		out.IndividualAnalyses = append(out.IndividualAnalyses, s.result)
	}

	// Only retained runs feed the combined stream. Joining the skipped ones
	// too would carry their NaN/Inf values into every combined statistic.
	combined := concat(retainedRuns)
	combinedStats, err := stats.ComputeBasicStats(combined)
	if err != nil {
		return analysis.MultiRunAnalysisResult{}, err
	}
	out.CombinedStreamStats = combinedStats
	out.FrequencyHistogram = frequencyHistogram(combined)
	out.CombinedKDE = combinedKDE(combined)

	a.logger.Info("analyzed %d/%d runs for provider %q (%d values)", len(retained), len(runs), provider, len(combined))
	return out, nil
}

func aggregate(retained []*runSummary) analysis.AggregateStats {
	n := len(retained)
	means := make([]float64, 0, n)
	stds := make([]float64, 0, n)
	skews := make([]float64, 0, n)
	kurts := make([]float64, 0, n)
	modes := make([]float64, 0, n)
	for _, s := range retained {
		means = append(means, s.mean)
		stds = append(stds, s.std)
		skews = append(skews, s.skewness)
		kurts = append(kurts, s.kurtosis)
		if m := s.result.BasicStats.Mode; !math.IsNaN(m) {
			modes = append(modes, m)
		}
	}
	if len(modes) == 0 {
		modes = means
	}
	return analysis.AggregateStats{
		Mean:     stats.SummarizeMetric(means),
		StdDev:   stats.SummarizeMetric(stds),
		Skewness: stats.SummarizeMetric(skews),
		Kurtosis: stats.SummarizeMetric(kurts),
		Mode:     stats.SummarizeMetric(modes),
	}
}

func (a *Analyzer) tally(retained []*runSummary, numRuns int) analysis.TestTallies {
	var ks, runsTest, rank, longest, apen int
	for _, s := range retained {
		t := s.result.NISTTests
		count := func(passed bool, n *int, name string) {
			if passed {
				*n++
			}
			a.observer.TestOutcome(name, passed)
		}
		count(s.ksPassed, &ks, "ks_uniformity")
		count(t.RunsTest.Passed, &runsTest, "runs_test")
		count(t.BinaryMatrixRankTest.Passed, &rank, "binary_matrix_rank_test")
		count(t.LongestRunOfOnesTest.Passed, &longest, "longest_run_of_ones_test")
		count(t.ApproximateEntropyTest.Passed, &apen, "approximate_entropy_test")
	}
	ratio := func(k int) string { return fmt.Sprintf("%d/%d", k, numRuns) }
	return analysis.TestTallies{
		KSUniformityPassed:                ratio(ks),
		RunsTestPassed:                    ratio(runsTest),
		BinaryMatrixRankTestPassed:        ratio(rank),
		LongestRunOfOnesTestPassed:        ratio(longest),
		ApproximateEntropyTestPassed:      ratio(apen),
		KSPassedCount:                     ks,
		RunsTestPassedCount:               runsTest,
		BinaryMatrixRankTestPassedCount:   rank,
		LongestRunOfOnesTestPassedCount:   longest,
		ApproximateEntropyTestPassedCount: apen,
	}
}

func concat(runs [][]float64) []float64 {
	total := 0
	for _, r := range runs {
		total += len(r)
	}
	out := make([]float64, 0, total)
	for _, r := range runs {
		out = append(out, r...)
	}
	return out
}

// frequencyHistogram bins the combined stream into min(50, unique values)
// equal-width bins and reports their centers.
func frequencyHistogram(xs []float64) analysis.FrequencyHistogram {
	unique := make(map[float64]struct{}, len(xs))
	for _, x := range xs {
		unique[x] = struct{}{}
	}
	bins := len(unique)
	if bins > combinedHistogramBins {
		bins = combinedHistogramBins
	}
	if bins == 0 {
		return analysis.FrequencyHistogram{Bins: []float64{}, Frequencies: []int{}, BinEdges: []float64{}}
	}

	lo, hi := minMax(xs)
	counts, edges := stats.Histogram(xs, bins, lo, hi)
	centers := make([]float64, len(counts))
	for i := range centers {
		centers[i] = (edges[i] + edges[i+1]) / 2
	}
	return analysis.FrequencyHistogram{Bins: centers, Frequencies: counts, BinEdges: edges}
}

func combinedKDE(xs []float64) analysis.Curve {
	n := len(xs) + 1
	if n > stats.MaxChartPoints {
		n = stats.MaxChartPoints
	}
	lo, hi := minMax(xs)
	x := stats.Linspace(lo, hi, n)
	return analysis.Curve{X: x, Y: stats.GaussianKDE(xs, x)}
}

func minMax(xs []float64) (float64, float64) {
	lo, _ := mfstats.Min(xs)
	hi, _ := mfstats.Max(xs)
	return lo, hi
}
