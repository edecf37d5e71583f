package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Request errors
	ErrInvalidRequest = errors.New("invalid analysis request")
	ErrEmptySequence  = errors.New("sequence is empty")

	// Run validation errors
	ErrNoRuns      = errors.New("No runs provided")
	ErrEmptyRun    = errors.New("is empty")
	ErrNonNumeric  = errors.New("contains non-numeric values")
	ErrNoValidRuns = errors.New("No valid runs to analyze")

	// Not found errors
	ErrNotFound = errors.New("resource not found")
)

// runError attaches a 1-based run index to a run validation sentinel so the
// message reads "Run 3 is empty" while errors.Is still matches the sentinel.
type runError struct {
	index int
	err   error
}

func (e *runError) Error() string {
	return fmt.Sprintf("Run %d %s", e.index, e.err)
}

func (e *runError) Unwrap() error {
	return e.err
}

// Error constructors with context
func NewEmptyRunError(index int) error {
	return &runError{index: index, err: ErrEmptyRun}
}

func NewNonNumericRunError(index int) error {
	return &runError{index: index, err: ErrNonNumeric}
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// RunIndex reports the 1-based run index carried by err, if any.
func RunIndex(err error) (int, bool) {
	var re *runError
	if errors.As(err, &re) {
		return re.index, true
	}
	return 0, false
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptySequence) ||
		errors.Is(err, ErrNoRuns) ||
		errors.Is(err, ErrEmptyRun) ||
		errors.Is(err, ErrNonNumeric) ||
		errors.Is(err, ErrNoValidRuns)
}
