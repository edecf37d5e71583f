package stats

import (
	"math"

	mfstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"randlab/domain/analysis"
	"randlab/domain/core"
)

// modeBins is the histogram resolution used for the continuous mode.
const modeBins = 50

// ComputeBasicStats computes the descriptive statistics of a non-empty
// sequence. Whole-number input uses "lower" percentiles and the most
// frequent value as mode; other input uses linear percentiles and the
// midpoint of the fullest histogram bin.
func ComputeBasicStats(xs []float64) (analysis.BasicStats, error) {
	if len(xs) == 0 {
		return analysis.BasicStats{}, core.ErrEmptySequence
	}

	mean, err := mfstats.Mean(xs)
	if err != nil {
		return analysis.BasicStats{}, err
	}
	min, max := minMax(xs)
	sorted := sortedCopy(xs)

	result := analysis.BasicStats{
		Mean:     mean,
		Min:      min,
		Max:      max,
		Skewness: Skewness(xs),
		Kurtosis: ExcessKurtosis(xs),
	}

	if len(xs) > 1 {
		variance, err := mfstats.SampleVariance(xs)
		if err != nil {
			return analysis.BasicStats{}, err
		}
		result.Variance = variance
		result.Std = math.Sqrt(variance)
	}

	if IsIntegerLike(xs) {
		result.Q25 = percentileLower(sorted, 25)
		result.Q50 = percentileLower(sorted, 50)
		result.Q75 = percentileLower(sorted, 75)
		result.Q95 = percentileLower(sorted, 95)
		result.Median = result.Q50
		result.Mode = modeDiscrete(sorted)
	} else {
		median, err := mfstats.Median(xs)
		if err != nil {
			return analysis.BasicStats{}, err
		}
		result.Median = median
		result.Q25 = percentileLinear(sorted, 25)
		result.Q50 = percentileLinear(sorted, 50)
		result.Q75 = percentileLinear(sorted, 75)
		result.Q95 = percentileLinear(sorted, 95)
		result.Mode = modeContinuous(xs, median)
	}

	return result, nil
}

// modeDiscrete returns the most frequent value of a sorted slice; ties go
// to the smallest value.
func modeDiscrete(sorted []float64) float64 {
	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}

// modeContinuous returns the midpoint of the fullest bin of a histogram
// with min(50, n) bins, falling back to the median for an empty histogram.
func modeContinuous(xs []float64, median float64) float64 {
	bins := modeBins
	if len(xs) < bins {
		bins = len(xs)
	}
	min, max := minMax(xs)
	counts, edges := Histogram(xs, bins, min, max)

	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	if counts[best] == 0 {
		return median
	}
	return (edges[best] + edges[best+1]) / 2
}

// Skewness is the biased sample skewness m3/m2^1.5. Zero variance yields NaN.
func Skewness(xs []float64) float64 {
	m2, ok := centralVariance(xs)
	if !ok {
		return math.NaN()
	}
	return stat.Moment(3, xs, nil) / math.Pow(m2, 1.5)
}

// ExcessKurtosis is the biased Fisher kurtosis m4/m2^2 - 3. Zero variance
// yields NaN.
func ExcessKurtosis(xs []float64) float64 {
	m2, ok := centralVariance(xs)
	if !ok {
		return math.NaN()
	}
	return stat.Moment(4, xs, nil)/(m2*m2) - 3
}

// centralVariance returns the population second central moment and whether
// it is distinguishable from zero at the data's scale.
func centralVariance(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return math.NaN(), false
	}
	m2 := stat.Moment(2, xs, nil)
	mean := stat.Mean(xs, nil)
	eps := math.Nextafter(1, 2) - 1
	if m2 <= (eps*mean)*(eps*mean) {
		return m2, false
	}
	return m2, true
}
