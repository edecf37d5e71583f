package stats

import (
	"math"

	moremath "github.com/aclements/go-moremath/stats"
	mfstats "github.com/montanaflynn/stats"

	"randlab/domain/analysis"
)

// distributionBins is the resolution of the per-run histogram.
const distributionBins = 50

// AnalyzeDistribution computes the uniformity test, histogram, KDE and Q-Q
// coordinates of a non-empty sequence against its own observed range.
func AnalyzeDistribution(xs []float64) analysis.Distribution {
	min, max := minMax(xs)
	sorted := sortedCopy(xs)

	ksStat, ksP := KSUniform(sorted, min, max)
	counts, edges := Histogram(xs, distributionBins, min, max)

	nKDE := len(xs) + 1
	if nKDE > MaxChartPoints {
		nKDE = MaxChartPoints
	}
	kdeX := Linspace(min, max, nKDE)

	dist := NewDistributions()
	probs := Linspace(0.01, 0.99, len(sorted))
	theoretical := make([]float64, len(probs))
	for i, p := range probs {
		theoretical[i] = dist.UniformQuantile(p, min, max-min)
	}
	sample, theory := Downsample(sorted, theoretical, MaxChartPoints)

	return analysis.Distribution{
		IsUniform: analysis.UniformityTest{Statistic: ksStat, PValue: ksP},
		Histogram: analysis.Histogram{Counts: counts, Edges: edges},
		KDE:       analysis.Curve{X: kdeX, Y: GaussianKDE(xs, kdeX)},
		QQPlot:    analysis.QQPlot{Sample: sample, Theoretical: theory},
	}
}

// KSUniform runs the two-sided one-sample Kolmogorov-Smirnov test of sorted
// against uniform([lo, hi]). A zero-width range yields NaN for both values.
func KSUniform(sorted []float64, lo, hi float64) (statistic, pValue float64) {
	n := len(sorted)
	width := hi - lo
	if n == 0 || width <= 0 {
		return math.NaN(), math.NaN()
	}

	nf := float64(n)
	var dPlus, dMinus float64
	for i, x := range sorted {
		cdf := (x - lo) / width
		cdf = math.Min(1, math.Max(0, cdf))
		if v := float64(i+1)/nf - cdf; v > dPlus {
			dPlus = v
		}
		if v := cdf - float64(i)/nf; v > dMinus {
			dMinus = v
		}
	}
	statistic = math.Max(dPlus, dMinus)
	return statistic, NewDistributions().KolmogorovPValue(statistic, n)
}

// GaussianKDE evaluates a Gaussian kernel density estimate of xs at each
// point of at, with Scott's bandwidth factor n^(-1/5) applied to the sample
// standard deviation. Fewer than two points or zero spread give a zero
// density rather than an error.
func GaussianKDE(xs, at []float64) []float64 {
	ys := make([]float64, len(at))
	if len(xs) < 2 {
		return ys
	}
	sd, err := mfstats.StandardDeviationSample(xs)
	if err != nil || sd == 0 || math.IsNaN(sd) {
		return ys
	}

	kde := moremath.KDE{
		Sample:    moremath.Sample{Xs: xs},
		Kernel:    moremath.GaussianKernel,
		Bandwidth: sd * math.Pow(float64(len(xs)), -0.2),
	}
	for i, x := range at {
		ys[i] = kde.PDF(x)
	}
	return ys
}
