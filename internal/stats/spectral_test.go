package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSpectrumPeak(t *testing.T) {
	const n = 64
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = 3 + math.Sin(2*math.Pi*4*float64(i)/n)
	}
	s := AnalyzeSpectrum(xs)
	require.Len(t, s.Frequencies, 31)

	peak := 0
	for i, m := range s.Magnitude {
		if m > s.Magnitude[peak] {
			peak = i
		}
		assert.InDelta(t, m*m, s.Power[i], 1e-9)
		assert.Greater(t, s.Frequencies[i], 0.0)
	}
	assert.Equal(t, 3, peak)
	assert.InDelta(t, 4.0/n, s.Frequencies[peak], 1e-12)
	assert.InDelta(t, n/2.0, s.Magnitude[peak], 1e-9)
}

func TestAnalyzeSpectrumShortAndLong(t *testing.T) {
	s := AnalyzeSpectrum([]float64{1, 2})
	assert.NotNil(t, s.Frequencies)
	assert.Empty(t, s.Frequencies)

	long := AnalyzeSpectrum(Linspace(0, 1, 20001))
	assert.LessOrEqual(t, len(long.Frequencies), MaxChartPoints)
	assert.Equal(t, len(long.Frequencies), len(long.Power))
}
