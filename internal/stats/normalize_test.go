package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randlab/domain/analysis"
)

func TestConvertNumericTypesScalars(t *testing.T) {
	assert.Nil(t, ConvertNumericTypes(nil))
	assert.Nil(t, ConvertNumericTypes(math.NaN()))
	assert.Nil(t, ConvertNumericTypes(math.Inf(-1)))
	assert.Equal(t, 1.5, ConvertNumericTypes(1.5))
	assert.Equal(t, 1.5, ConvertNumericTypes(float32(1.5)))
	assert.Equal(t, int64(7), ConvertNumericTypes(7))
	assert.Equal(t, "x", ConvertNumericTypes("x"))
	assert.Equal(t, true, ConvertNumericTypes(true))
}

func TestConvertNumericTypesNested(t *testing.T) {
	input := map[string]any{
		"values": []float64{1, math.NaN(), 3},
		"inner":  map[string]any{"n": int32(2)},
		"empty":  []int(nil),
	}

	got := ConvertNumericTypes(input).(map[string]any)
	assert.Equal(t, []any{1.0, nil, 3.0}, got["values"])
	assert.Equal(t, map[string]any{"n": int64(2)}, got["inner"])
	assert.Equal(t, []any{}, got["empty"])
}

func TestConvertNumericTypesFlattensTestResults(t *testing.T) {
	passed := analysis.RunsTestResult{
		TestOutcome: analysis.Evaluated(0.5, 1.25),
		RunsDetail:  &analysis.RunsDetail{Runs: 10, ExpectedRuns: 9.5, Ones: 5, Zeros: 5},
	}
	got := ConvertNumericTypes(passed).(map[string]any)
	assert.Equal(t, 0.5, got["p_value"])
	assert.Equal(t, 1.25, got["statistic"])
	assert.Equal(t, true, got["passed"])
	assert.Equal(t, int64(10), got["runs"])
	assert.NotContains(t, got, "error")

	failed := analysis.RunsTestResult{TestOutcome: analysis.Inapplicable("Sequence too short")}
	got = ConvertNumericTypes(failed).(map[string]any)
	assert.Nil(t, got["p_value"])
	assert.Nil(t, got["statistic"])
	assert.Equal(t, false, got["passed"])
	assert.Equal(t, "Sequence too short", got["error"])
	assert.NotContains(t, got, "runs")
}

func TestConvertNumericTypesMatchesJSONShape(t *testing.T) {
	summary := analysis.AutocorrelationSummary{Run: 2, MaxCorrelation: 0.1}
	got := ConvertNumericTypes(summary).(map[string]any)
	assert.Equal(t, []any{"None"}, got["significant_lags"])

	summary.SignificantLags = analysis.LagList{3, 7}
	converted, err := json.Marshal(ConvertNumericTypes(summary))
	require.NoError(t, err)
	direct, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, string(direct), string(converted))
}

func TestConvertNumericTypesIsEncodable(t *testing.T) {
	stats := analysis.BasicStats{Mean: 1, Skewness: math.NaN(), Kurtosis: math.Inf(1)}
	_, err := json.Marshal(stats)
	require.Error(t, err, "raw NaN cannot be encoded")

	raw, err := json.Marshal(ConvertNumericTypes(stats))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"skewness":null`)
	assert.Contains(t, string(raw), `"kurtosis":null`)
}
