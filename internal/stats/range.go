package stats

import "randlab/domain/analysis"

const (
	// boundaryThreshold is the share of the observed range counted as "near".
	boundaryThreshold = 0.01
	edgeBins          = 20
)

// ECDF returns the thinned empirical CDF of xs: sorted values against i/n.
func ECDF(xs []float64) analysis.Curve {
	sorted := sortedCopy(xs)
	n := float64(len(sorted))
	ys := make([]float64, len(sorted))
	for i := range ys {
		ys[i] = float64(i+1) / n
	}
	x, y := Downsample(sorted, ys, MaxChartPoints)
	return analysis.Curve{X: x, Y: y}
}

// AnalyzeRangeBehavior reports the ECDF, clustering within 1% of the range
// at either end, and a 20-bin edge histogram. For a constant sequence every
// value is near both boundaries.
func AnalyzeRangeBehavior(xs []float64) analysis.RangeBehavior {
	min, max := minMax(xs)
	margin := boundaryThreshold * (max - min)

	var nearMin, nearMax int
	for _, x := range xs {
		if x <= min+margin {
			nearMin++
		}
		if x >= max-margin {
			nearMax++
		}
	}
	n := float64(len(xs))
	counts, edges := Histogram(xs, edgeBins, min, max)

	return analysis.RangeBehavior{
		ECDF: ECDF(xs),
		Boundaries: analysis.Boundaries{
			Min:          min,
			Max:          max,
			NearMinCount: nearMin,
			NearMaxCount: nearMax,
			NearMinPct:   float64(nearMin) / n * 100,
			NearMaxPct:   float64(nearMax) / n * 100,
		},
		EdgeHistogram: analysis.Histogram{Counts: counts, Edges: edges},
	}
}
