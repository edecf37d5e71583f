package stats

import (
	"math"

	mfstats "github.com/montanaflynn/stats"

	"randlab/domain/analysis"
)

const (
	minRollingWindow   = 10
	stationarityChunks = 4
)

// RollingWindow returns max(10, n/20).
func RollingWindow(n int) int {
	if w := n / 20; w > minRollingWindow {
		return w
	}
	return minRollingWindow
}

// CenteredRolling computes the mean and sample std of every full centered
// window of width w. Window i spans [i-w/2, i+(w-1)/2]; positions whose
// window runs off either end are omitted. The returned index holds the
// retained positions.
func CenteredRolling(xs []float64, w int) (index, means, stds []float64) {
	n := len(xs)
	offset := (w - 1) / 2
	first := w - 1 - offset
	last := n - 1 - offset
	if w < 1 || first > last {
		return []float64{}, []float64{}, []float64{}
	}

	size := last - first + 1
	index = make([]float64, 0, size)
	means = make([]float64, 0, size)
	stds = make([]float64, 0, size)
	for i := first; i <= last; i++ {
		end := i + offset + 1
		window := xs[end-w : end]
		mean, _ := mfstats.Mean(window)
		std := math.NaN()
		if w > 1 {
			std, _ = mfstats.StandardDeviationSample(window)
		}
		index = append(index, float64(i))
		means = append(means, mean)
		stds = append(stds, std)
	}
	return index, means, stds
}

// SplitChunks cuts xs into k contiguous parts whose sizes differ by at most
// one; the first len(xs)%k parts get the extra element. Empty parts are
// returned as empty slices.
func SplitChunks(xs []float64, k int) [][]float64 {
	chunks := make([][]float64, k)
	base, extra := len(xs)/k, len(xs)%k
	start := 0
	for i := range chunks {
		size := base
		if i < extra {
			size++
		}
		chunks[i] = xs[start : start+size]
		start += size
	}
	return chunks
}

// AnalyzeStationarity computes centered rolling mean/std and per-quarter
// statistics of xs.
func AnalyzeStationarity(xs []float64) analysis.Stationarity {
	index, means, stds := CenteredRolling(xs, RollingWindow(len(xs)))
	meanIdx, meanVals := Downsample(index, means, MaxChartPoints)
	_, stdVals := Downsample(index, stds, MaxChartPoints)

	chunks := make([]analysis.ChunkStats, 0, stationarityChunks)
	for i, chunk := range SplitChunks(xs, stationarityChunks) {
		if len(chunk) == 0 {
			continue
		}
		mean, _ := mfstats.Mean(chunk)
		min, max := minMax(chunk)
		std := 0.0
		if len(chunk) > 1 {
			std, _ = mfstats.StandardDeviationSample(chunk)
		}
		chunks = append(chunks, analysis.ChunkStats{
			Chunk: i + 1,
			Mean:  mean,
			Std:   std,
			Min:   min,
			Max:   max,
		})
	}

	return analysis.Stationarity{
		RollingMean: analysis.IndexedSeries{Index: meanIdx, Values: meanVals},
		RollingStd:  analysis.IndexedSeries{Index: append([]float64(nil), meanIdx...), Values: stdVals},
		Chunks:      chunks,
	}
}
