package stats

import (
	"math"

	mfstats "github.com/montanaflynn/stats"

	"randlab/domain/analysis"
)

// maxAutocorrelationLag bounds the ACF; the effective cap is min(50, n/4).
const maxAutocorrelationLag = 50

// MaxLag returns min(50, n/4).
func MaxLag(n int) int {
	if n/4 < maxAutocorrelationLag {
		return n / 4
	}
	return maxAutocorrelationLag
}

// LagCorrelation is the Pearson correlation of xs[:n-lag] with xs[lag:].
// Degenerate variance or lag >= n yields 0.
func LagCorrelation(xs []float64, lag int) float64 {
	if lag <= 0 || lag >= len(xs) {
		return 0
	}
	r, err := mfstats.Correlation(xs[:len(xs)-lag], xs[lag:])
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Autocorrelations returns lags 1..MaxLag(n) and their correlations.
func Autocorrelations(xs []float64) ([]int, []float64) {
	maxLag := MaxLag(len(xs))
	lags := make([]int, maxLag)
	values := make([]float64, maxLag)
	for i := range lags {
		lags[i] = i + 1
		values[i] = LagCorrelation(xs, i+1)
	}
	return lags, values
}

// AnalyzeIndependence computes the ACF, lag-1 scatter and time series.
// Sequences shorter than two values produce empty outputs.
func AnalyzeIndependence(xs []float64) analysis.Independence {
	lags, values := Autocorrelations(xs)

	var lagX, lagY []float64
	if len(xs) > 1 {
		lagX, lagY = Downsample(xs[:len(xs)-1], xs[1:], MaxChartPoints)
	} else {
		lagX, lagY = []float64{}, []float64{}
	}

	index := make([]float64, len(xs))
	for i := range index {
		index[i] = float64(i)
	}

	return analysis.Independence{
		Autocorrelation: analysis.Autocorrelation{Lags: lags, Values: values},
		Lag1Scatter:     analysis.Curve{X: lagX, Y: lagY},
		TimeSeries: analysis.IndexedSeries{
			Index:  DownsampleSingle(index, MaxChartPoints),
			Values: DownsampleSingle(xs, MaxChartPoints),
		},
	}
}
