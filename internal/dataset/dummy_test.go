package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randlab/domain/core"
)

func TestParseDummy(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  DummyData
	}{
		{
			name:  "single run is wrapped",
			input: `[0.1, 0.5, 0.9]`,
			want:  DummyData{Data: [][]float64{{0.1, 0.5, 0.9}}, NumRuns: 1, CountPerRun: 3},
		},
		{
			name:  "multi run",
			input: `[[1, 2], [3, 4, 5]]`,
			want:  DummyData{Data: [][]float64{{1, 2}, {3, 4, 5}}, IsMultiRun: true, NumRuns: 2, CountPerRun: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDummy([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseDummyInvalid(t *testing.T) {
	for _, input := range []string{`[]`, `{}`, `"x"`, `[1, "a"]`, `not json`} {
		_, err := ParseDummy([]byte(input))
		require.Error(t, err, input)
		assert.ErrorIs(t, err, core.ErrInvalidRequest, input)
		assert.Contains(t, err.Error(), "Invalid dummy data format")
	}
}

func TestLoadDummy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dummy_data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[0.25, 0.75]]`), 0o644))

	got, err := LoadDummy(path)
	require.NoError(t, err)
	assert.True(t, got.IsMultiRun)
	assert.Equal(t, [][]float64{{0.25, 0.75}}, got.Data)

	_, err = LoadDummy(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))
}

func TestReplay(t *testing.T) {
	var events []ReplayEvent
	err := Replay(context.Background(), [][]float64{{1, 2}, {3}}, 0, func(e ReplayEvent) error {
		events = append(events, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []ReplayEvent{
		{Run: 1, Number: 1},
		{Run: 1, Number: 2},
		{Run: 1, EndOfRun: true},
		{Run: 2, Number: 3},
		{Run: 2, EndOfRun: true},
	}, events)
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	stop := errors.New("client gone")
	calls := 0
	err := Replay(context.Background(), [][]float64{{1, 2, 3}}, 0, func(ReplayEvent) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestReplayHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Replay(ctx, [][]float64{{1, 2, 3}}, time.Hour, func(ReplayEvent) error {
		calls++
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
