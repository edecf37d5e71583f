package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"randlab/domain/analysis"
)

// deviationRegions is the number of equal-width regions of [0,1].
const deviationRegions = 5

// RegionLabels names the regions of the regional ECDF deviation.
var RegionLabels = []string{"0.0–0.2", "0.2–0.4", "0.4–0.6", "0.6–0.8", "0.8–1.0"}

// NormalizeToUnit rescales xs onto [0,1] by its own min and max. A constant
// sequence maps to 0.5 everywhere.
func NormalizeToUnit(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	lo, hi := minMax(xs)
	if hi <= lo {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, x := range xs {
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}

// ECDFKSStatistic is the largest gap between the empirical CDF of u and the
// identity CDF on [0,1], checked at and just before every step.
func ECDFKSStatistic(u []float64) float64 {
	if len(u) == 0 {
		return math.NaN()
	}
	s := sortedCopy(u)
	n := float64(len(s))
	var worst float64
	for i, x := range s {
		at := math.Abs(float64(i+1)/n - x)
		before := math.Abs(float64(i)/n - x)
		worst = math.Max(worst, math.Max(at, before))
	}
	return worst
}

// ECDFMAD is the mean |F_n(x_i) - x_i| over the sorted points of u.
func ECDFMAD(u []float64) float64 {
	if len(u) == 0 {
		return math.NaN()
	}
	s := sortedCopy(u)
	n := float64(len(s))
	var sum float64
	for i, x := range s {
		sum += math.Abs(float64(i+1)/n - x)
	}
	return sum / n
}

// ECDFRegionalDeviation splits [0,1] into regions equal-width parts and
// averages |F_n(x) - x| inside each. The last region includes 1.0. Empty
// regions report 0.
func ECDFRegionalDeviation(u []float64, regions int) []float64 {
	if regions <= 0 {
		return []float64{}
	}
	out := make([]float64, regions)
	if len(u) == 0 {
		return out
	}
	s := sortedCopy(u)
	n := float64(len(s))
	bounds := Linspace(0, 1, regions+1)
	for r := 0; r < regions; r++ {
		low, high := bounds[r], bounds[r+1]
		last := r == regions-1
		var sum float64
		var count int
		for i, x := range s {
			inside := x >= low && x < high
			if last {
				inside = x >= low && x <= high
			}
			if inside {
				sum += math.Abs(float64(i+1)/n - x)
				count++
			}
		}
		if count > 0 {
			out[r] = sum / float64(count)
		}
	}
	return out
}

// blom returns the Blom plotting positions (i-0.5)/n for i = 1..n.
func blom(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = (float64(i+1) - 0.5) / float64(n)
	}
	return out
}

// QQRSquared is 1 - SS_res/SS_tot of the sorted points of u about the
// diagonal at Blom positions. Fewer than two points or SS_tot <= 0 give NaN.
func QQRSquared(u []float64) float64 {
	if len(u) < 2 {
		return math.NaN()
	}
	s := sortedCopy(u)
	theoretical := blom(len(s))
	mean := stat.Mean(s, nil)
	var ssRes, ssTot float64
	for i, x := range s {
		ssRes += (x - theoretical[i]) * (x - theoretical[i])
		ssTot += (x - mean) * (x - mean)
	}
	if ssTot <= 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}

// QQMSE is the mean squared distance of the sorted points of u from their
// Blom positions.
func QQMSE(u []float64) float64 {
	if len(u) == 0 {
		return math.NaN()
	}
	s := sortedCopy(u)
	theoretical := blom(len(s))
	var sum float64
	for i, x := range s {
		sum += (x - theoretical[i]) * (x - theoretical[i])
	}
	return sum / float64(len(s))
}

// EmptyDeviationMetrics is returned when no run qualifies.
func EmptyDeviationMetrics() analysis.DistributionDeviation {
	return analysis.DistributionDeviation{
		ECDF: analysis.ECDFDeviation{
			RegionalDeviation: analysis.RegionalDeviation{
				Labels: append([]string(nil), RegionLabels...),
				Mean:   make([]float64, deviationRegions),
			},
		},
	}
}

// ComputeDistributionDeviation normalizes each run to [0,1] and aggregates
// its ECDF and Q-Q deviation from uniform across runs. Runs with NaN/Inf or
// fewer than two points are skipped.
func ComputeDistributionDeviation(runs [][]float64) analysis.DistributionDeviation {
	var ks, mad, r2, mse []float64
	var regional [][]float64

	for _, run := range runs {
		if len(run) < 2 || !AllFinite(run) {
			continue
		}
		u := NormalizeToUnit(run)
		ks = append(ks, ECDFKSStatistic(u))
		mad = append(mad, ECDFMAD(u))
		regional = append(regional, ECDFRegionalDeviation(u, deviationRegions))
		r2 = append(r2, QQRSquared(u))
		mse = append(mse, QQMSE(u))
	}
	if len(ks) == 0 {
		return EmptyDeviationMetrics()
	}

	meanRegional := make([]float64, deviationRegions)
	for _, row := range regional {
		for i, v := range row {
			meanRegional[i] += v
		}
	}
	for i := range meanRegional {
		meanRegional[i] /= float64(len(regional))
	}

	return analysis.DistributionDeviation{
		ECDF: analysis.ECDFDeviation{
			KSStatistic: variationSummary(ks),
			MAD:         variationSummary(mad),
			RegionalDeviation: analysis.RegionalDeviation{
				Labels: append([]string(nil), RegionLabels...),
				Mean:   meanRegional,
			},
		},
		QQ: analysis.QQDeviation{
			RSquared:        spreadSummary(r2),
			MSEFromDiagonal: spreadSummary(mse),
		},
	}
}

// plainMean averages xs, propagating NaN.
func plainMean(xs []float64) float64 {
	return stat.Mean(xs, nil)
}

// spread is the population standard deviation, 0 for a single value.
func spread(xs []float64) float64 {
	if len(xs) <= 1 {
		return 0
	}
	return populationStd(xs)
}

// SafeCV is std/mean, or 0 when the mean is 0 or NaN.
func SafeCV(xs []float64) float64 {
	m := plainMean(xs)
	if m == 0 || math.IsNaN(m) {
		return 0
	}
	return populationStd(xs) / m
}

func variationSummary(xs []float64) analysis.VariationSummary {
	return analysis.VariationSummary{Mean: plainMean(xs), StdDev: spread(xs), CV: SafeCV(xs)}
}

func spreadSummary(xs []float64) analysis.SpreadSummary {
	return analysis.SpreadSummary{Mean: plainMean(xs), StdDev: spread(xs)}
}

// SummarizeMetric reports mean, spread (population, 0 for one run) and range
// of a per-run metric. An empty input yields zeros; NaN propagates.
func SummarizeMetric(xs []float64) analysis.MetricSummary {
	if len(xs) == 0 {
		return analysis.MetricSummary{}
	}
	rng := math.NaN()
	if AllFinite(xs) {
		lo, hi := minMax(xs)
		rng = hi - lo
	}
	return analysis.MetricSummary{
		Mean:   plainMean(xs),
		StdDev: spread(xs),
		Range:  rng,
	}
}
