package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"randlab/domain/core"
)

func TestWrapKeepsCode(t *testing.T) {
	base := InvalidInput("bad column")
	wrapped := Wrap(base, "parse upload")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.Equal(t, "parse upload: bad column", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapClassifiesDomainErrors(t *testing.T) {
	assert.Equal(t, CodeValidationError, GetCode(Wrap(core.NewEmptyRunError(2), "analyze")))
	assert.Equal(t, CodeNotFound, GetCode(Wrap(core.NewNotFoundError("file", "x"), "load")))
	assert.Equal(t, CodeInternalError, GetCode(Wrap(fmt.Errorf("disk on fire"), "load")))
	assert.Nil(t, Wrap(nil, "noop"))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation code", ValidationError("x"), http.StatusBadRequest},
		{"invalid input", InvalidInput("x"), http.StatusBadRequest},
		{"bare domain error", core.ErrNoRuns, http.StatusBadRequest},
		{"wrapped domain error", fmt.Errorf("ctx: %w", core.NewNonNumericRunError(1)), http.StatusBadRequest},
		{"not found", NotFound("dummy data file"), http.StatusNotFound},
		{"unsupported", UnsupportedType("x"), http.StatusUnsupportedMediaType},
		{"internal", InternalError("x"), http.StatusInternalServerError},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeRenderFailed, fmt.Errorf("pdf writer closed"))
	assert.Equal(t, CodeRenderFailed, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}
