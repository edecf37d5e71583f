// Package stats implements the statistical analysis blocks applied to one
// numeric sequence, plus the cross-run deviation metrics.
package stats

import (
	"math"
	"sort"

	mfstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxChartPoints caps every client-facing coordinate series.
const MaxChartPoints = 5000

// IsIntegerLike reports whether every value is finite and whole.
// An empty sequence is not integer-like.
func IsIntegerLike(xs []float64) bool {
	if len(xs) == 0 {
		return false
	}
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Round(x) {
			return false
		}
	}
	return true
}

// AllFinite reports whether xs has no NaN or Inf.
func AllFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// sampleIndices picks at most maxPoints evenly spaced indices of [0, n),
// deduplicated, always ending with n-1. It returns nil when no thinning is
// needed.
func sampleIndices(n, maxPoints int) []int {
	if n <= maxPoints {
		return nil
	}
	if maxPoints < 1 {
		maxPoints = 1
	}
	indices := make([]int, 0, maxPoints+1)
	step := 0.0
	if maxPoints > 1 {
		step = float64(n-1) / float64(maxPoints-1)
	}
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if i == maxPoints-1 && maxPoints > 1 {
			idx = n - 1
		}
		if len(indices) > 0 && indices[len(indices)-1] == idx {
			continue
		}
		indices = append(indices, idx)
	}
	if indices[len(indices)-1] != n-1 {
		indices = append(indices, n-1)
	}
	return indices
}

// Downsample thins two paired series to the same evenly spaced index set,
// keeping the first and last points. Series at or under maxPoints are
// returned unchanged (as copies). y must be at least as long as x.
func Downsample(x, y []float64, maxPoints int) ([]float64, []float64) {
	indices := sampleIndices(len(x), maxPoints)
	if indices == nil {
		return append([]float64(nil), x...), append([]float64(nil), y...)
	}
	outX := make([]float64, len(indices))
	outY := make([]float64, len(indices))
	for i, idx := range indices {
		outX[i] = x[idx]
		outY[i] = y[idx]
	}
	return outX, outY
}

// DownsampleSingle thins one series the same way Downsample does.
func DownsampleSingle(xs []float64, maxPoints int) []float64 {
	indices := sampleIndices(len(xs), maxPoints)
	if indices == nil {
		return append([]float64(nil), xs...)
	}
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = xs[idx]
	}
	return out
}

// Linspace returns n evenly spaced values over [start, stop].
func Linspace(start, stop float64, n int) []float64 {
	switch {
	case n <= 0:
		return []float64{}
	case n == 1:
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, stop)
}

// Histogram counts xs into bins equal-width bins over [lo, hi]. Every bin is
// half-open except the last, which is closed. When lo == hi the range is
// widened to [lo-0.5, hi+0.5]. Values outside [lo, hi] are ignored.
func Histogram(xs []float64, bins int, lo, hi float64) ([]int, []float64) {
	if bins < 1 {
		bins = 1
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	edges := Linspace(lo, hi, bins+1)

	inRange := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x >= lo && x <= hi {
			inRange = append(inRange, x)
		}
	}
	sort.Float64s(inRange)

	// stat.Histogram wants half-open bins throughout; nudging the last
	// divider closes the final bin on hi.
	dividers := append([]float64(nil), edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	raw := stat.Histogram(nil, dividers, inRange, nil)

	counts := make([]int, bins)
	for i, c := range raw {
		counts[i] = int(c)
	}
	return counts, edges
}

// minMax returns the extremes of a non-empty slice.
func minMax(xs []float64) (float64, float64) {
	return floats.Min(xs), floats.Max(xs)
}

func sortedCopy(xs []float64) []float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return s
}

// percentileLinear interpolates between order statistics at rank (n-1)*p/100.
func percentileLinear(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * (p / 100)
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	frac := h - lo
	a, b := sorted[i], sorted[i+1]
	if frac >= 0.5 {
		return b - (b-a)*(1-frac)
	}
	return a + (b-a)*frac
}

// percentileLower picks the order statistic at or below rank (n-1)*p/100.
func percentileLower(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	i := int(math.Floor(float64(n-1) * (p / 100)))
	if i >= n {
		i = n - 1
	}
	return sorted[i]
}

// populationStd is the standard deviation with denominator n.
func populationStd(xs []float64) float64 {
	sd, err := mfstats.StandardDeviationPopulation(xs)
	if err != nil {
		return math.NaN()
	}
	return sd
}
