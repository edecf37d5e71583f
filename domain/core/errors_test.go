package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestRunErrorMessages(t *testing.T) {
	tests := []struct {
		err      error
		expected string
		sentinel error
		index    int
	}{
		{NewEmptyRunError(1), "Run 1 is empty", ErrEmptyRun, 1},
		{NewNonNumericRunError(4), "Run 4 contains non-numeric values", ErrNonNumeric, 4},
	}

	for _, test := range tests {
		if test.err.Error() != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, test.err.Error())
		}
		if !errors.Is(test.err, test.sentinel) {
			t.Errorf("Expected %q to match its sentinel", test.err)
		}
		if idx, ok := RunIndex(test.err); !ok || idx != test.index {
			t.Errorf("Expected run index %d, got %d (ok=%v)", test.index, idx, ok)
		}
		if !IsValidationError(test.err) {
			t.Errorf("Expected %q to be a validation error", test.err)
		}
	}
}

func TestIsValidationErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("analyze: %w", ErrNoValidRuns)
	if !IsValidationError(wrapped) {
		t.Error("Expected wrapped ErrNoValidRuns to be a validation error")
	}
	if IsValidationError(errors.New("boom")) {
		t.Error("Expected plain error not to be a validation error")
	}
	if !IsNotFoundError(NewNotFoundError("dummy data", "x.json")) {
		t.Error("Expected not-found error to match ErrNotFound")
	}
}
