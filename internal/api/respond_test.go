package api

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randlab/domain/core"
	"randlab/internal/errors"
)

func TestWriteError(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"uncoded failure", fmt.Errorf("disk full"), http.StatusInternalServerError, "disk full"},
		{"render failure", errors.RenderFailed("pdf", fmt.Errorf("closed")), http.StatusInternalServerError, "closed"},
		{"validation", errors.ValidationError("bad input"), http.StatusBadRequest, "bad input"},
		{"run error", core.NewEmptyRunError(2), http.StatusBadRequest, "Run 2 is empty"},
		{"not found", errors.NotFound("file"), http.StatusNotFound, "file not found"},
		{"too large", fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 8}), http.StatusRequestEntityTooLarge, "request body too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeError(rec, httptest.NewRequest(http.MethodPost, "/analyze", nil), tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, decode(t, rec)["detail"], tt.wantDetail)
		})
	}
}

type closedStream struct {
	header http.Header
}

func (c *closedStream) Header() http.Header       { return c.header }
func (c *closedStream) WriteHeader(int)           {}
func (c *closedStream) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestSSEWriterFail(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, newSSEWriter(rec).fail("boom"))
	assert.Equal(t, "data: {\"error\":\"boom\"}\n\ndata: [DONE]\n\n", rec.Body.String())
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	sw := newSSEWriter(&closedStream{header: http.Header{}})
	assert.ErrorIs(t, sw.fail("boom"), io.ErrClosedPipe)
}
