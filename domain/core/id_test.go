package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseAnalysisID tests analysis ID parsing
func TestParseAnalysisID(t *testing.T) {
	valid := NewAnalysisID().String()
	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"  " + valid + " ", false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, test := range tests {
		result, err := ParseAnalysisID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError {
			if err != nil {
				t.Errorf("Unexpected error for input '%s': %v", test.input, err)
			}
			if result.String() != valid {
				t.Errorf("Expected %s, got %s", valid, result)
			}
		}
	}
}

// TestComputeDatasetHash tests run-boundary sensitivity and determinism
func TestComputeDatasetHash(t *testing.T) {
	a := ComputeDatasetHash([][]float64{{1, 2}, {3}})
	b := ComputeDatasetHash([][]float64{{1}, {2, 3}})
	if a == b {
		t.Error("Expected different hashes for different run boundaries")
	}
	if a != ComputeDatasetHash([][]float64{{1, 2}, {3}}) {
		t.Error("Expected identical input to hash identically")
	}
	if len(Hash(a).Short()) != 12 {
		t.Errorf("Expected 12-character short hash, got %q", Hash(a).Short())
	}
}
