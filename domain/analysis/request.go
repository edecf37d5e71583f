package analysis

import (
	"encoding/json"
	"fmt"

	"randlab/domain/core"
)

// Kind discriminates the analysis request variants.
type Kind string

const (
	KindSingleRun Kind = "single_run"
	KindMultiRun  Kind = "multi_run"
)

// Request is either a SingleRunRequest or a MultiRunRequest.
type Request interface {
	Kind() Kind
	Label() string
	Sequences() [][]float64
}

// SingleRunRequest asks for the analysis of one sequence.
type SingleRunRequest struct {
	Numbers  []float64 `json:"numbers"`
	Provider string    `json:"provider"`
}

func (SingleRunRequest) Kind() Kind      { return KindSingleRun }
func (r SingleRunRequest) Label() string { return r.Provider }

func (r SingleRunRequest) Sequences() [][]float64 { return [][]float64{r.Numbers} }

// MultiRunRequest asks for the cross-run analysis of several sequences.
type MultiRunRequest struct {
	Runs     [][]float64 `json:"runs"`
	Provider string      `json:"provider"`
	NumRuns  int         `json:"num_runs"`
}

func (MultiRunRequest) Kind() Kind      { return KindMultiRun }
func (r MultiRunRequest) Label() string { return r.Provider }

func (r MultiRunRequest) Sequences() [][]float64 { return r.Runs }

type rawRequest struct {
	Numbers  json.RawMessage `json:"numbers"`
	Runs     json.RawMessage `json:"runs"`
	Provider string          `json:"provider"`
	NumRuns  *int            `json:"num_runs"`
}

// DecodeRequest discriminates a JSON analysis body once. A body carrying
// "runs" is multi-run, one carrying "numbers" is single-run. Runs are
// checked in order, emptiness before content, and the first bad run is
// reported by its 1-based index.
func DecodeRequest(body []byte) (Request, error) {
	var raw rawRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", core.ErrInvalidRequest, err)
	}

	switch {
	case len(raw.Runs) > 0 && string(raw.Runs) != "null":
		var cells [][]json.RawMessage
		if err := json.Unmarshal(raw.Runs, &cells); err != nil {
			return nil, fmt.Errorf("%w: 'runs' must be an array of arrays", core.ErrInvalidRequest)
		}
		runs := make([][]float64, len(cells))
		for i, run := range cells {
			if len(run) == 0 {
				return nil, core.NewEmptyRunError(i + 1)
			}
			values, ok := decodeNumbers(run)
			if !ok {
				return nil, core.NewNonNumericRunError(i + 1)
			}
			runs[i] = values
		}
		numRuns := len(runs)
		if raw.NumRuns != nil {
			numRuns = *raw.NumRuns
		}
		return MultiRunRequest{Runs: runs, Provider: raw.Provider, NumRuns: numRuns}, nil

	case len(raw.Numbers) > 0 && string(raw.Numbers) != "null":
		var cells []json.RawMessage
		if err := json.Unmarshal(raw.Numbers, &cells); err != nil {
			return nil, fmt.Errorf("%w: 'numbers' must be an array", core.ErrInvalidRequest)
		}
		values, ok := decodeNumbers(cells)
		if !ok {
			return nil, core.NewNonNumericRunError(1)
		}
		if len(values) == 0 {
			return nil, core.ErrEmptySequence
		}
		return SingleRunRequest{Numbers: values, Provider: raw.Provider}, nil
	}

	return nil, fmt.Errorf("%w: either 'runs' or 'numbers' must be provided", core.ErrInvalidRequest)
}

func decodeNumbers(cells []json.RawMessage) ([]float64, bool) {
	values := make([]float64, 0, len(cells))
	for _, cell := range cells {
		var v float64
		if err := json.Unmarshal(cell, &v); err != nil || string(cell) == "null" {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}
