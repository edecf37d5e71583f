package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"randlab/domain/core"
	"randlab/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers with {"detail": ...} and the status the error maps to.
// Oversized bodies get 413 whatever wraps them. Uncoded failures are
// reported as INTERNAL_ERROR.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}

	if status >= http.StatusInternalServerError {
		if !errors.IsAppError(err) {
			err = errors.InternalError(err.Error())
		}
		s.logger.Error("%s %s failed [%s]: %v", r.Method, r.URL.Path, errors.GetCode(err), err)
	} else if idx, ok := core.RunIndex(err); ok {
		s.logger.Warn("%s %s rejected run %d (%d): %v", r.Method, r.URL.Path, idx, status, err)
	} else {
		s.logger.Warn("%s %s rejected (%d): %v", r.Method, r.URL.Path, status, err)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

// attachment writes body as a file download.
func attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// setAnalysisHeaders tags a response with the analysis id and the
// fingerprint of the analyzed runs.
func setAnalysisHeaders(w http.ResponseWriter, id core.AnalysisID, hash core.DatasetHash) {
	w.Header().Set("X-Analysis-ID", id.String())
	w.Header().Set("X-Dataset-Hash", hash.String())
}
