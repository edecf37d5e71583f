package stats

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"randlab/domain/analysis"
)

// AnalyzeSpectrum returns the magnitude and power of the FFT of the
// mean-centered sequence at strictly positive frequencies k/n, thinned to
// MaxChartPoints by even index selection.
func AnalyzeSpectrum(xs []float64) analysis.Spectrum {
	n := len(xs)
	positive := (n - 1) / 2
	if n < 3 {
		return analysis.Spectrum{Frequencies: []float64{}, Magnitude: []float64{}, Power: []float64{}}
	}

	mean := stat.Mean(xs, nil)
	centered := make([]float64, n)
	for i, x := range xs {
		centered[i] = x - mean
	}
	coeffs := fourier.NewFFT(n).Coefficients(nil, centered)

	freqs := make([]float64, positive)
	magnitude := make([]float64, positive)
	power := make([]float64, positive)
	for k := 1; k <= positive; k++ {
		m := cmplx.Abs(coeffs[k])
		freqs[k-1] = float64(k) / float64(n)
		magnitude[k-1] = m
		power[k-1] = m * m
	}

	indices := sampleIndices(positive, MaxChartPoints)
	if indices == nil {
		return analysis.Spectrum{Frequencies: freqs, Magnitude: magnitude, Power: power}
	}
	out := analysis.Spectrum{
		Frequencies: make([]float64, len(indices)),
		Magnitude:   make([]float64, len(indices)),
		Power:       make([]float64, len(indices)),
	}
	for i, idx := range indices {
		out.Frequencies[i] = freqs[idx]
		out.Magnitude[i] = magnitude[idx]
		out.Power[i] = power[idx]
	}
	return out
}
