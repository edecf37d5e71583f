package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"randlab/domain/core"
)

// DummyData is a canned set of runs served in place of live generation.
type DummyData struct {
	Data        [][]float64 `json:"data"`
	IsMultiRun  bool        `json:"is_multi_run"`
	NumRuns     int         `json:"num_runs"`
	CountPerRun int         `json:"count_per_run"`
}

// LoadDummy reads a dummy data file. A missing file is reported as not found.
func LoadDummy(path string) (*DummyData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewNotFoundError("dummy data file", path)
		}
		return nil, fmt.Errorf("failed to read dummy data: %w", err)
	}
	return ParseDummy(raw)
}

// ParseDummy accepts either a flat array of numbers (one run) or an array
// of arrays (several runs). A single run is wrapped so Data is always a list
// of runs.
func ParseDummy(raw []byte) (*DummyData, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, fmt.Errorf("%w: Invalid dummy data format", core.ErrInvalidRequest)
	}

	var multi [][]float64
	if err := json.Unmarshal(raw, &multi); err == nil {
		return &DummyData{
			Data:        multi,
			IsMultiRun:  true,
			NumRuns:     len(multi),
			CountPerRun: len(multi[0]),
		}, nil
	}

	var single []float64
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("%w: Invalid dummy data format: %v", core.ErrInvalidRequest, err)
	}
	return &DummyData{
		Data:        [][]float64{single},
		IsMultiRun:  false,
		NumRuns:     1,
		CountPerRun: len(single),
	}, nil
}
