package analysis

// ============================================================================
// SINGLE-RUN BLOCKS
// ============================================================================

// BasicStats holds the descriptive statistics of one sequence.
// Std and Variance use the sample (n-1) denominator; both are 0 for n=1.
type BasicStats struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Mode     float64 `json:"mode"`
	Std      float64 `json:"std"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Q25      float64 `json:"q25"`
	Q50      float64 `json:"q50"`
	Q75      float64 `json:"q75"`
	Q95      float64 `json:"q95"`
	Skewness float64 `json:"skewness"` // Biased (population) moment ratio, NaN for zero variance
	Kurtosis float64 `json:"kurtosis"` // Excess kurtosis, NaN for zero variance
}

// UniformityTest is the two-sided KS result against uniform([min, max]).
type UniformityTest struct {
	Statistic float64 `json:"ks_stat"`
	PValue    float64 `json:"ks_p"`
}

// Histogram carries bin counts and the len(counts)+1 bin edges.
type Histogram struct {
	Counts []int     `json:"counts"`
	Edges  []float64 `json:"edges"`
}

// Curve is a pair of equal-length coordinate series.
type Curve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// QQPlot pairs sorted sample values with theoretical uniform quantiles.
type QQPlot struct {
	Sample      []float64 `json:"sample"`
	Theoretical []float64 `json:"theoretical"`
}

// Distribution is the per-run distribution block.
type Distribution struct {
	IsUniform UniformityTest `json:"is_uniform"`
	Histogram Histogram      `json:"histogram"`
	KDE       Curve          `json:"kde"`
	QQPlot    QQPlot         `json:"qq_plot"`
}

// Boundaries reports clustering near the observed min and max.
type Boundaries struct {
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	NearMinCount int     `json:"near_min_count"`
	NearMaxCount int     `json:"near_max_count"`
	NearMinPct   float64 `json:"near_min_pct"`
	NearMaxPct   float64 `json:"near_max_pct"`
}

// RangeBehavior is the per-run range/boundary block.
type RangeBehavior struct {
	ECDF          Curve      `json:"ecdf"`
	Boundaries    Boundaries `json:"boundaries"`
	EdgeHistogram Histogram  `json:"edge_histogram"`
}

// Autocorrelation holds lag-indexed Pearson correlations.
type Autocorrelation struct {
	Lags   []int     `json:"lags"`
	Values []float64 `json:"values"`
}

// IndexedSeries is a value series keyed by (possibly thinned) positions.
type IndexedSeries struct {
	Index  []float64 `json:"index"`
	Values []float64 `json:"values"`
}

// Independence is the per-run independence block.
type Independence struct {
	Autocorrelation Autocorrelation `json:"autocorrelation"`
	Lag1Scatter     Curve           `json:"lag1_scatter"`
	TimeSeries      IndexedSeries   `json:"time_series"`
}

// ChunkStats describes one contiguous quarter of a sequence.
type ChunkStats struct {
	Chunk int     `json:"chunk"` // 1-based
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Stationarity is the per-run stationarity block. Both rolling series
// share one index set.
type Stationarity struct {
	RollingMean IndexedSeries `json:"rolling_mean"`
	RollingStd  IndexedSeries `json:"rolling_std"`
	Chunks      []ChunkStats  `json:"chunks"`
}

// Spectrum holds the positive-frequency half of the FFT.
type Spectrum struct {
	Frequencies []float64 `json:"frequencies"`
	Magnitude   []float64 `json:"magnitude"`
	Power       []float64 `json:"power"`
}

// AnalysisResult is the complete single-run analysis.
type AnalysisResult struct {
	Provider      string        `json:"provider"`
	Count         int           `json:"count"`
	BasicStats    BasicStats    `json:"basic_stats"`
	Distribution  Distribution  `json:"distribution"`
	RangeBehavior RangeBehavior `json:"range_behavior"`
	Independence  Independence  `json:"independence"`
	Stationarity  Stationarity  `json:"stationarity"`
	Spectral      Spectrum      `json:"spectral"`
	NISTTests     NISTTests     `json:"nist_tests"`
}

// ============================================================================
// MULTI-RUN BLOCKS
// ============================================================================

// MetricSummary summarizes one per-run metric across runs.
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Range  float64 `json:"range"`
}

// AggregateStats summarizes the rough per-run statistics across runs.
type AggregateStats struct {
	Mean     MetricSummary `json:"mean"`
	StdDev   MetricSummary `json:"std_dev"`
	Skewness MetricSummary `json:"skewness"`
	Kurtosis MetricSummary `json:"kurtosis"`
	Mode     MetricSummary `json:"mode"`
}

// VariationSummary is mean, spread and coefficient of variation of a metric.
type VariationSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	CV     float64 `json:"cv"`
}

// SpreadSummary is mean and spread of a metric.
type SpreadSummary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// RegionalDeviation is the mean ECDF deviation per fifth of [0,1].
type RegionalDeviation struct {
	Labels []string  `json:"labels"`
	Mean   []float64 `json:"mean"`
}

// ECDFDeviation groups the ECDF-based deviation metrics.
type ECDFDeviation struct {
	KSStatistic       VariationSummary  `json:"ks_statistic"`
	MAD               VariationSummary  `json:"mad"`
	RegionalDeviation RegionalDeviation `json:"regional_deviation"`
}

// QQDeviation groups the Q-Q based deviation metrics.
type QQDeviation struct {
	RSquared        SpreadSummary `json:"r_squared"`
	MSEFromDiagonal SpreadSummary `json:"mse_from_diagonal"`
}

// DistributionDeviation holds cross-run deviation from uniform on [0,1].
type DistributionDeviation struct {
	ECDF ECDFDeviation `json:"ecdf"`
	QQ   QQDeviation   `json:"qq"`
}

// TestTallies counts passing runs per test. The "k/n" strings use the
// declared run count as denominator.
type TestTallies struct {
	KSUniformityPassed                string `json:"ks_uniformity_passed"`
	RunsTestPassed                    string `json:"runs_test_passed"`
	BinaryMatrixRankTestPassed        string `json:"binary_matrix_rank_test_passed"`
	LongestRunOfOnesTestPassed        string `json:"longest_run_of_ones_test_passed"`
	ApproximateEntropyTestPassed      string `json:"approximate_entropy_test_passed"`
	KSPassedCount                     int    `json:"ks_passed_count"`
	RunsTestPassedCount               int    `json:"runs_test_passed_count"`
	BinaryMatrixRankTestPassedCount   int    `json:"binary_matrix_rank_test_passed_count"`
	LongestRunOfOnesTestPassedCount   int    `json:"longest_run_of_ones_test_passed_count"`
	ApproximateEntropyTestPassedCount int    `json:"approximate_entropy_test_passed_count"`
}

// AutocorrelationSummary flags the lags of one run with |r| above threshold.
type AutocorrelationSummary struct {
	Run             int     `json:"run"`
	SignificantLags LagList `json:"significant_lags"`
	MaxCorrelation  float64 `json:"max_correlation"`
}

// RunECDF is the thinned ECDF of one run.
type RunECDF struct {
	Run int       `json:"run"`
	X   []float64 `json:"x"`
	Y   []float64 `json:"y"`
}

// FrequencyHistogram is the combined-stream histogram with bin centers.
type FrequencyHistogram struct {
	Bins        []float64 `json:"bins"`
	Frequencies []int     `json:"frequencies"`
	BinEdges    []float64 `json:"bin_edges"`
}

// MultiRunAnalysisResult is the cross-run summary plus every per-run analysis.
type MultiRunAnalysisResult struct {
	Provider              string                   `json:"provider"`
	NumRuns               int                      `json:"num_runs"`
	CountPerRun           int                      `json:"count_per_run"`
	AggregateStats        AggregateStats           `json:"aggregate_stats"`
	CombinedStreamStats   BasicStats               `json:"combined_stream_stats"`
	DistributionDeviation DistributionDeviation    `json:"distribution_deviation"`
	TestResults           TestTallies              `json:"test_results"`
	AutocorrelationTable  []AutocorrelationSummary `json:"autocorrelation_table"`
	ECDFAllRuns           []RunECDF                `json:"ecdf_all_runs"`
	FrequencyHistogram    FrequencyHistogram       `json:"frequency_histogram"`
	CombinedKDE           Curve                    `json:"combined_kde"`
	IndividualAnalyses    []AnalysisResult         `json:"individual_analyses"`
}
