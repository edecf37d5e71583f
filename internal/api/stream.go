package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"randlab/domain/core"
	"randlab/internal/dataset"
	"randlab/internal/errors"
)

const (
	dummyProvider     = "dummy"
	dummyNotFound     = "Dummy data file not found"
	streamDoneMessage = "[DONE]"
)

// streamEvent is one SSE data payload of the dummy replay.
type streamEvent struct {
	Number   *float64 `json:"number,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func (s *Server) loadDummy() (*dataset.DummyData, error) {
	data, err := dataset.LoadDummy(s.config.Data.DummyPath())
	if core.IsNotFoundError(err) {
		return nil, errors.New(errors.CodeNotFound, dummyNotFound)
	}
	return data, err
}

func (s *Server) handleDummyData(w http.ResponseWriter, r *http.Request) {
	data, err := s.loadDummy()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// sseWriter writes "data:" frames and flushes after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: flusher}
}

func (sw *sseWriter) data(payload string) error {
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

func (sw *sseWriter) event(ev streamEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return sw.data(string(raw))
}

// fail reports message in-band and closes the stream.
func (sw *sseWriter) fail(message string) error {
	if err := sw.event(streamEvent{Error: message}); err != nil {
		return err
	}
	return sw.data(streamDoneMessage)
}

// handleDummyStream replays the dummy runs number by number in the same
// event format as live generation: a [DONE] frame closes every run.
func (s *Server) handleDummyStream(w http.ResponseWriter, r *http.Request) {
	data, err := s.loadDummy()
	sw := newSSEWriter(w)
	if err != nil {
		s.logger.Warn("Dummy stream unavailable: %v", err)
		if werr := sw.fail(err.Error()); werr != nil {
			s.logger.Debug("Dummy stream error not delivered: %v", werr)
		}
		return
	}

	s.logger.Debug("Streaming %d dummy runs", data.NumRuns)
	err = dataset.Replay(r.Context(), data.Data, s.config.Data.StreamDelay, func(ev dataset.ReplayEvent) error {
		if ev.EndOfRun {
			return sw.data(streamDoneMessage)
		}
		number := ev.Number
		return sw.event(streamEvent{Number: &number, Provider: dummyProvider})
	})
	switch {
	case err == nil:
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		s.logger.Debug("Dummy stream closed by client")
	default:
		s.logger.Error("Dummy stream failed: %v", err)
		if werr := sw.fail(err.Error()); werr != nil {
			s.logger.Debug("Dummy stream error not delivered: %v", werr)
		}
	}
}
