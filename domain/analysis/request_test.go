package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randlab/domain/core"
)

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"runs": [[0.1, 0.2], [3]], "provider": "openai"}`))
	require.NoError(t, err)
	multi, ok := req.(MultiRunRequest)
	require.True(t, ok)
	assert.Equal(t, KindMultiRun, multi.Kind())
	assert.Equal(t, 2, multi.NumRuns)
	assert.Equal(t, [][]float64{{0.1, 0.2}, {3}}, multi.Sequences())

	req, err = DecodeRequest([]byte(`{"runs": [[1]], "num_runs": 5}`))
	require.NoError(t, err)
	assert.Equal(t, 5, req.(MultiRunRequest).NumRuns)

	req, err = DecodeRequest([]byte(`{"numbers": [1, 2], "provider": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, KindSingleRun, req.Kind())
	assert.Equal(t, "x", req.Label())
}

func TestDecodeRequestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		message  string
		sentinel error
		index    int
	}{
		{"empty first run wins", `{"runs": [[], [0.1, "x"]]}`, "Run 1 is empty", core.ErrEmptyRun, 1},
		{"non-numeric first run wins", `{"runs": [[0.1, "x"], []]}`, "Run 1 contains non-numeric values", core.ErrNonNumeric, 1},
		{"later empty run", `{"runs": [[0.1], [0.2], []]}`, "Run 3 is empty", core.ErrEmptyRun, 3},
		{"null entry", `{"runs": [[0.1], [null]]}`, "Run 2 contains non-numeric values", core.ErrNonNumeric, 2},
		{"non-numeric numbers", `{"numbers": [0.1, true]}`, "Run 1 contains non-numeric values", core.ErrNonNumeric, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest([]byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
			assert.True(t, errors.Is(err, tt.sentinel))
			idx, ok := core.RunIndex(err)
			assert.True(t, ok)
			assert.Equal(t, tt.index, idx)
		})
	}
}

func TestDecodeRequestInvalid(t *testing.T) {
	for _, body := range []string{`{"runs": [`, `{"provider": "x"}`, `{"runs": [1, 2]}`, `{"numbers": "abc"}`} {
		_, err := DecodeRequest([]byte(body))
		assert.ErrorIs(t, err, core.ErrInvalidRequest, body)
	}
	_, err := DecodeRequest([]byte(`{"numbers": []}`))
	assert.ErrorIs(t, err, core.ErrEmptySequence)
}
