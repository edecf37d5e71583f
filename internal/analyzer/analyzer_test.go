package analyzer

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randlab/domain/analysis"
	"randlab/domain/core"
	"randlab/internal/stats"
)

type recordingObserver struct {
	mu       sync.Mutex
	finished []analysis.Kind
	failures int
	analyzed int
	skipped  int
	tests    map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{tests: map[string]int{}}
}

func (o *recordingObserver) AnalysisFinished(kind analysis.Kind, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, kind)
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) RunsFiltered(analyzed, skipped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.analyzed += analyzed
	o.skipped += skipped
}

func (o *recordingObserver) TestOutcome(test string, _ bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tests[test]++
}

func uniformRun(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}

func normalizedJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(stats.ConvertNumericTypes(v))
	require.NoError(t, err)
	return string(b)
}

func TestAnalyze(t *testing.T) {
	a := New()
	xs := uniformRun(1, 300)

	got, err := a.Analyze(xs, "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, 300, got.Count)
	assert.Equal(t, 300*64, got.NISTTests.BinarySequenceLength)
	assert.Len(t, got.Independence.Autocorrelation.Lags, 50)

	again, err := a.Analyze(xs, "openai")
	require.NoError(t, err)
	assert.Equal(t, normalizedJSON(t, got), normalizedJSON(t, again), "analysis is a pure function of its input")
}

func TestAnalyzeEmpty(t *testing.T) {
	obs := newRecordingObserver()
	_, err := New(WithObserver(obs)).Analyze(nil, "p")
	assert.ErrorIs(t, err, core.ErrEmptySequence)
	assert.Equal(t, 1, obs.failures)
}

func TestAnalyzeShortSequenceKeepsInapplicableTests(t *testing.T) {
	got, err := New().Analyze([]float64{0.5}, "p")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.BasicStats.Std)
	assert.Equal(t, "Sequence too short (need at least 1024 bits)", got.NISTTests.BinaryMatrixRankTest.Error)
	assert.False(t, got.NISTTests.BinaryMatrixRankTest.Passed)
}

func TestAnalyzeMultiRun(t *testing.T) {
	runs := [][]float64{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}
	got, err := New().AnalyzeMultiRun(context.Background(), runs, "test", 2)
	require.NoError(t, err)

	assert.Equal(t, "test", got.Provider)
	assert.Equal(t, 2, got.NumRuns)
	assert.Equal(t, 3, got.CountPerRun)
	require.Len(t, got.IndividualAnalyses, 2)

	agg := got.AggregateStats
	assert.InDelta(t, 0.35, agg.Mean.Mean, 1e-12)
	assert.InDelta(t, 0.15, agg.Mean.StdDev, 1e-12)
	assert.InDelta(t, 0.3, agg.Mean.Range, 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/300), agg.StdDev.Mean, 1e-12)
	assert.InDelta(t, 0.0, agg.StdDev.Range, 1e-12)

	assert.InDelta(t, 0.35, got.CombinedStreamStats.Mean, 1e-12)
	assert.Equal(t, "0/2", got.TestResults.BinaryMatrixRankTestPassed)
	assert.Equal(t, 0, got.TestResults.BinaryMatrixRankTestPassedCount)

	require.Len(t, got.AutocorrelationTable, 2)
	assert.Equal(t, 1, got.AutocorrelationTable[0].Run)
	assert.Equal(t, 2, got.AutocorrelationTable[1].Run)
	require.Len(t, got.ECDFAllRuns, 2)
	assert.Equal(t, []float64{0.4, 0.5, 0.6}, got.ECDFAllRuns[1].X)

	assert.Len(t, got.FrequencyHistogram.Bins, 6)
	assert.Len(t, got.FrequencyHistogram.BinEdges, 7)
	assert.Len(t, got.CombinedKDE.X, 7)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(normalizedJSON(t, got)), &m))
	aggregate := m["aggregate_stats"].(map[string]any)
	for _, block := range []string{"mean", "std_dev", "skewness", "kurtosis", "mode"} {
		require.Contains(t, aggregate, block)
		for _, field := range []string{"mean", "std_dev", "range"} {
			assert.Contains(t, aggregate[block], field, "%s.%s", block, field)
		}
	}
}

func TestAnalyzeMultiRunValidation(t *testing.T) {
	tests := []struct {
		name    string
		runs    [][]float64
		wantErr error
		wantMsg string
	}{
		{"no runs", nil, core.ErrNoRuns, "No runs provided"},
		{"first run empty", [][]float64{{}}, core.ErrEmptyRun, "Run 1 is empty"},
		{"later run empty", [][]float64{{1, 2}, {3}, {}}, core.ErrEmptyRun, "Run 3 is empty"},
		{"no finite runs", [][]float64{{math.NaN()}, {1, math.Inf(-1)}}, core.ErrNoValidRuns, "No valid runs to analyze"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().AnalyzeMultiRun(context.Background(), tt.runs, "p", len(tt.runs))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.True(t, core.IsValidationError(err))
		})
	}
}

func TestAnalyzeMultiRunSkipsNonFiniteRuns(t *testing.T) {
	obs := newRecordingObserver()
	runs := [][]float64{
		uniformRun(1, 100),
		{0.5, math.NaN(), 0.7},
		uniformRun(2, 100),
	}
	got, err := New(WithObserver(obs)).AnalyzeMultiRun(context.Background(), runs, "p", 3)
	require.NoError(t, err)

	assert.Equal(t, 3, got.NumRuns)
	assert.Equal(t, 100, got.CountPerRun)
	require.Len(t, got.IndividualAnalyses, 2)
	assert.Equal(t, 1, got.AutocorrelationTable[0].Run)
	assert.Equal(t, 3, got.AutocorrelationTable[1].Run)
	assert.Equal(t, 200, got.IndividualAnalyses[0].Count+got.IndividualAnalyses[1].Count)
	assert.False(t, math.IsNaN(got.CombinedStreamStats.Mean))

	assert.Equal(t, 2, obs.analyzed)
	assert.Equal(t, 1, obs.skipped)
	assert.Equal(t, 2, obs.tests["runs_test"])
	assert.Equal(t, []analysis.Kind{analysis.KindMultiRun}, obs.finished)
}

func TestAnalyzeMultiRunDeclaredDenominator(t *testing.T) {
	runs := [][]float64{uniformRun(3, 200), uniformRun(4, 200)}
	got, err := New().AnalyzeMultiRun(context.Background(), runs, "p", 5)
	require.NoError(t, err)

	tr := got.TestResults
	for _, s := range []string{
		tr.KSUniformityPassed, tr.RunsTestPassed, tr.BinaryMatrixRankTestPassed,
		tr.LongestRunOfOnesTestPassed, tr.ApproximateEntropyTestPassed,
	} {
		assert.Regexp(t, `^[0-2]/5$`, s)
	}
	assert.LessOrEqual(t, tr.KSPassedCount, 2)
}

func TestAnalyzeMultiRunParallelKeepsOrder(t *testing.T) {
	runs := make([][]float64, 8)
	for i := range runs {
		runs[i] = uniformRun(int64(i), 64+i)
	}

	sequential, err := New().AnalyzeMultiRun(context.Background(), runs, "p", len(runs))
	require.NoError(t, err)
	parallel, err := New(WithWorkers(4)).AnalyzeMultiRun(context.Background(), runs, "p", len(runs))
	require.NoError(t, err)

	require.Len(t, parallel.IndividualAnalyses, len(runs))
	for i, a := range parallel.IndividualAnalyses {
		assert.Equal(t, len(runs[i]), a.Count)
		assert.Equal(t, i+1, parallel.AutocorrelationTable[i].Run)
	}
	assert.Equal(t, normalizedJSON(t, sequential), normalizedJSON(t, parallel))
}

func TestAnalyzeMultiRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().AnalyzeMultiRun(ctx, [][]float64{{1, 2, 3}}, "p", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAutocorrelationTable(t *testing.T) {
	alternating := make([]float64, 40)
	for i := range alternating {
		alternating[i] = float64(i % 2)
	}
	constant := []float64{5, 5, 5, 5, 5, 5, 5, 5}

	got, err := New().AnalyzeMultiRun(context.Background(), [][]float64{alternating, constant}, "p", 2)
	require.NoError(t, err)

	alt := got.AutocorrelationTable[0]
	assert.Equal(t, analysis.LagList{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, alt.SignificantLags)
	assert.InDelta(t, 1.0, alt.MaxCorrelation, 1e-9)

	flat := got.AutocorrelationTable[1]
	assert.Empty(t, flat.SignificantLags)
	assert.Equal(t, 0.0, flat.MaxCorrelation)
	b, err := json.Marshal(flat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"run":2,"significant_lags":["None"],"max_correlation":0}`, string(b))
}

func TestRunDispatch(t *testing.T) {
	a := New()

	single, err := a.Run(context.Background(), analysis.SingleRunRequest{Numbers: []float64{1, 2, 3}, Provider: "x"})
	require.NoError(t, err)
	assert.IsType(t, analysis.AnalysisResult{}, single)

	multi, err := a.Run(context.Background(), analysis.MultiRunRequest{Runs: [][]float64{{1, 2}}, Provider: "x", NumRuns: 1})
	require.NoError(t, err)
	assert.IsType(t, analysis.MultiRunAnalysisResult{}, multi)
}
