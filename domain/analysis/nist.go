package analysis

import "encoding/json"

// PassThreshold is the p-value a bitwise test must exceed to pass.
const PassThreshold = 0.01

// TestOutcome is the shape every bitwise test shares. When a precondition
// fails PValue and Statistic are nil, Passed is false and Error says why.
type TestOutcome struct {
	PValue    *float64 `json:"p_value"`
	Statistic *float64 `json:"statistic"`
	Passed    bool     `json:"passed"`
	Error     string   `json:"error,omitempty"`
}

// Inapplicable builds the outcome of a test whose preconditions failed.
func Inapplicable(reason string) TestOutcome {
	return TestOutcome{Error: reason}
}

// Evaluated builds the outcome of a completed test.
func Evaluated(pValue, statistic float64) TestOutcome {
	return TestOutcome{
		PValue:    &pValue,
		Statistic: &statistic,
		Passed:    pValue > PassThreshold,
	}
}

// RunsDetail is the test-specific part of a completed runs test.
type RunsDetail struct {
	Runs         int     `json:"runs"`
	ExpectedRuns float64 `json:"expected_runs"`
	Ones         int     `json:"ones"`
	Zeros        int     `json:"zeros"`
}

// RunsTestResult is the NIST runs test result. Detail is nil on error.
type RunsTestResult struct {
	TestOutcome
	*RunsDetail
}

// MatrixRankDetail is the test-specific part of a completed rank test.
type MatrixRankDetail struct {
	NumMatrices     int `json:"num_matrices"`
	FullRankCount   int `json:"full_rank_count"`
	RankMinus1Count int `json:"rank_minus_1_count"`
	Rank0Count      int `json:"rank_0_count"` // rank <= size-2
}

// MatrixRankTestResult is the NIST binary matrix rank test result.
type MatrixRankTestResult struct {
	TestOutcome
	*MatrixRankDetail
}

// LongestRunDetail is the test-specific part of a completed longest-run test.
type LongestRunDetail struct {
	NumBlocks int            `json:"num_blocks"`
	RunCounts map[string]int `json:"run_counts"` // keyed "4".."9"; "4" is <=4 and "9" is >=9
}

// LongestRunTestResult is the NIST longest run of ones test result.
type LongestRunTestResult struct {
	TestOutcome
	*LongestRunDetail
}

// ApproximateEntropyDetail is the test-specific part of a completed ApEn test.
type ApproximateEntropyDetail struct {
	ApproximateEntropy float64 `json:"approximate_entropy"`
	PhiM               float64 `json:"phi_m"`
	PhiM1              float64 `json:"phi_m1"`
	PatternLengthM     int     `json:"pattern_length_m"`
	PatternLengthM1    int     `json:"pattern_length_m1"`
	NumPatternsM       int     `json:"num_patterns_m"`
	NumPatternsM1      int     `json:"num_patterns_m1"`
	UniquePatternsM    int     `json:"unique_patterns_m"`
	UniquePatternsM1   int     `json:"unique_patterns_m1"`
}

// ApproximateEntropyTestResult is the NIST approximate entropy test result.
type ApproximateEntropyTestResult struct {
	TestOutcome
	*ApproximateEntropyDetail
}

// NISTTests bundles the four bitwise tests of one run.
type NISTTests struct {
	RunsTest               RunsTestResult               `json:"runs_test"`
	BinaryMatrixRankTest   MatrixRankTestResult         `json:"binary_matrix_rank_test"`
	LongestRunOfOnesTest   LongestRunTestResult         `json:"longest_run_of_ones_test"`
	ApproximateEntropyTest ApproximateEntropyTestResult `json:"approximate_entropy_test"`
	BinarySequenceLength   int                          `json:"binary_sequence_length"`
}

// Outcomes lists the shared outcome of each test keyed by its result name,
// so callers can tally passes without branching per test.
func (n NISTTests) Outcomes() map[string]TestOutcome {
	return map[string]TestOutcome{
		"runs_test":                n.RunsTest.TestOutcome,
		"binary_matrix_rank_test":  n.BinaryMatrixRankTest.TestOutcome,
		"longest_run_of_ones_test": n.LongestRunOfOnesTest.TestOutcome,
		"approximate_entropy_test": n.ApproximateEntropyTest.TestOutcome,
	}
}

// LagList is a list of lags rendered as ["None"] when empty.
type LagList []int

// MarshalJSON implements json.Marshaler.
func (l LagList) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte(`["None"]`), nil
	}
	return json.Marshal([]int(l))
}
