package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"randlab/adapters/excel"
	"randlab/domain/analysis"
	"randlab/domain/core"
	"randlab/internal/errors"
	"randlab/internal/report"
	"randlab/internal/stats"
)

const (
	uploadProvider  = "uploaded"
	defaultProvider = "manual"
	uploadFormField = "file"
)

// Provider is one selectable number source.
type Provider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Providers lists the sources the client can pick from.
var Providers = []Provider{
	{ID: "openai", Name: "OpenAI"},
	{ID: "anthropic", Name: "Anthropic"},
	{ID: "deepseek", Name: "DeepSeek"},
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "LLM Random Number Generator API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": Providers})
}

// handleAnalyze runs a single-run or multi-run analysis depending on the
// shape of the body.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "failed to read request body"))
		return
	}
	req, err := analysis.DecodeRequest(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := s.analysisID(r)
	hash := core.ComputeDatasetHash(req.Sequences())
	s.logger.Info("Analysis %s: %s request from provider %q (dataset %s)", id, req.Kind(), req.Label(), core.Hash(hash).Short())
	result, err := s.analyzer.Run(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setAnalysisHeaders(w, id, hash)
	writeJSON(w, http.StatusOK, stats.ConvertNumericTypes(result))
}

// analysisID reuses a valid X-Analysis-ID sent by the client and mints a
// new one otherwise.
func (s *Server) analysisID(r *http.Request) core.AnalysisID {
	if raw := r.Header.Get("X-Analysis-ID"); raw != "" {
		id, err := core.ParseAnalysisID(raw)
		if err == nil {
			return id
		}
		s.logger.Warn("Ignoring X-Analysis-ID: %v", err)
	}
	return core.NewAnalysisID()
}

// handleUpload parses a multipart run file and analyzes every run in it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		s.writeError(w, r, errors.InvalidInput(fmt.Sprintf("Missing upload field %q: %v", uploadFormField, err)))
		return
	}
	defer file.Close()

	var runs [][]float64
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		runs, err = excel.ReadRunsCSV(file)
	case ".xlsx":
		runs, err = excel.ReadRunsXLSX(file)
	default:
		err = errors.UnsupportedType("File must be a CSV file (.csv extension) or an Excel workbook (.xlsx)")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := s.analysisID(r)
	hash := core.ComputeDatasetHash(runs)
	s.logger.Info("Analysis %s: uploaded %s with %d runs (dataset %s)", id, header.Filename, len(runs), core.Hash(hash).Short())
	result, err := s.analyzer.AnalyzeMultiRun(r.Context(), runs, uploadProvider, len(runs))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	setAnalysisHeaders(w, id, hash)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":     runs,
		"num_runs": len(runs),
		"provider": uploadProvider,
		"analysis": stats.ConvertNumericTypes(result),
		"message":  fmt.Sprintf("Successfully uploaded and analyzed %d run(s)", len(runs)),
	})
}

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	var runs [][]float64
	if err := json.Unmarshal([]byte(r.URL.Query().Get("runs")), &runs); err != nil {
		s.writeError(w, r, errors.ValidationError("Invalid JSON in runs parameter"))
		return
	}
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = defaultProvider
	}

	var buf bytes.Buffer
	if err := excel.WriteRunsCSV(&buf, runs); err != nil {
		s.writeError(w, r, err)
		return
	}
	attachment(w, "text/csv", excel.CSVFilename(provider, s.now()), buf.Bytes())
}

// exportRequest carries an analysis document and the runs behind it.
type exportRequest struct {
	Analysis json.RawMessage `json:"analysis"`
	Runs     [][]float64     `json:"runs"`
}

func (s *Server) decodeExport(r *http.Request) (*exportRequest, error) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, errors.Wrap(err, "Invalid export request"))
	}
	if len(req.Analysis) == 0 || !gjson.ValidBytes(req.Analysis) || !gjson.ParseBytes(req.Analysis).IsObject() {
		return nil, errors.ValidationError("'analysis' must be an object")
	}
	return &req, nil
}

func (req *exportRequest) provider() string {
	if p := gjson.GetBytes(req.Analysis, "provider").String(); p != "" {
		return p
	}
	return defaultProvider
}

func (s *Server) handleDownloadXLSX(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeExport(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if _, err := excel.NewWorkbookWriter(req.Runs, req.Analysis).WriteTo(&buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		excel.WorkbookFilename(req.provider(), s.now()), buf.Bytes())
}

// handleDownloadReport renders the HTML summary, or markdown with
// ?format=markdown.
func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeExport(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rep := report.New(req.Analysis, req.Runs, s.config.Report.Title)
	if r.URL.Query().Get("format") == "markdown" {
		attachment(w, "text/markdown; charset=utf-8", reportFilename(req.provider(), "md", s.now()), []byte(rep.Markdown()))
		return
	}
	attachment(w, "text/html; charset=utf-8", reportFilename(req.provider(), "html", s.now()), rep.HTML())
}

func (s *Server) handleDownloadPDF(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeExport(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if _, err := report.New(req.Analysis, req.Runs, s.config.Report.Title).WritePDF(&buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	attachment(w, "application/pdf", reportFilename(req.provider(), "pdf", s.now()), buf.Bytes())
}

func reportFilename(provider, ext string, now time.Time) string {
	return fmt.Sprintf("randomness_report_%s_%s.%s", provider, now.Format("20060102_150405"), ext)
}
