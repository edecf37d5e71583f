package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"randlab/internal/errors"
)

// RunHeader is the column name of run i (0-based).
func RunHeader(i int) string {
	return fmt.Sprintf("run %d", i+1)
}

// CSVFilename names a runs export for provider at time now.
func CSVFilename(provider string, now time.Time) string {
	return fmt.Sprintf("random_numbers_%s_%s.csv", provider, now.Format("20060102_150405"))
}

// WorkbookFilename names a workbook export for provider at time now.
func WorkbookFilename(provider string, now time.Time) string {
	return fmt.Sprintf("random_numbers_%s_%s.xlsx", provider, now.Format("20060102_150405"))
}

func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// WriteRunsCSV writes one "run N" column per run. Shorter runs are padded
// with empty cells.
func WriteRunsCSV(w io.Writer, runs [][]float64) error {
	if len(runs) == 0 {
		return errors.ValidationError("Invalid runs data")
	}
	longest := 0
	header := make([]string, len(runs))
	for i, run := range runs {
		header[i] = RunHeader(i)
		if len(run) > longest {
			longest = len(run)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(runs))
	for row := 0; row < longest; row++ {
		for i, run := range runs {
			record[i] = ""
			if row < len(run) {
				record[i] = formatNumber(run[row])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	sheetRuns    = "Runs"
	sheetSummary = "Summary"
	sheetPerRun  = "Per-Run"
	sheetTests   = "Tests"
)

// WorkbookWriter exports runs and a normalized analysis document to XLSX.
// The analysis is read by key path, so either a multi-run or a single-run
// result is accepted.
type WorkbookWriter struct {
	runs     [][]float64
	analysis gjson.Result
}

// NewWorkbookWriter creates a writer over runs and the JSON analysis.
func NewWorkbookWriter(runs [][]float64, analysisJSON []byte) *WorkbookWriter {
	return &WorkbookWriter{runs: runs, analysis: gjson.ParseBytes(analysisJSON)}
}

// WriteTo renders the workbook into w.
func (ww *WorkbookWriter) WriteTo(w io.Writer) (int64, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetRuns); err != nil {
		return 0, errors.RenderFailed("xlsx", err)
	}
	for _, name := range []string{sheetSummary, sheetPerRun, sheetTests} {
		if _, err := f.NewSheet(name); err != nil {
			return 0, errors.RenderFailed("xlsx", err)
		}
	}

	steps := []func(*excelize.File) error{ww.writeRuns, ww.writeSummary, ww.writePerRun, ww.writeTests}
	for _, step := range steps {
		if err := step(f); err != nil {
			return 0, errors.RenderFailed("xlsx", err)
		}
	}

	n, err := f.WriteTo(w)
	if err != nil {
		return n, errors.RenderFailed("xlsx", err)
	}
	log.Printf("[WorkbookWriter] Wrote workbook (%d runs, %d bytes)", len(ww.runs), n)
	return n, nil
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// cellValue maps a JSON value onto a cell; null stays blank.
func cellValue(r gjson.Result) interface{} {
	switch r.Type {
	case gjson.Number:
		return r.Float()
	case gjson.True, gjson.False:
		return r.Bool()
	case gjson.String:
		return r.String()
	case gjson.JSON:
		return r.Raw
	}
	return nil
}

func (ww *WorkbookWriter) writeRuns(f *excelize.File) error {
	header := make([]interface{}, len(ww.runs))
	longest := 0
	for i, run := range ww.runs {
		header[i] = RunHeader(i)
		if len(run) > longest {
			longest = len(run)
		}
	}
	if err := setRow(f, sheetRuns, 1, header...); err != nil {
		return err
	}
	for row := 0; row < longest; row++ {
		values := make([]interface{}, len(ww.runs))
		for i, run := range ww.runs {
			if row < len(run) {
				values[i] = run[row]
			}
		}
		if err := setRow(f, sheetRuns, row+2, values...); err != nil {
			return err
		}
	}
	return nil
}

var aggregateMetrics = []struct{ key, label string }{
	{"mean", "Mean"},
	{"std_dev", "Std Dev"},
	{"skewness", "Skewness"},
	{"kurtosis", "Kurtosis"},
	{"mode", "Mode"},
}

var basicStatFields = []struct{ key, label string }{
	{"mean", "Mean"},
	{"median", "Median"},
	{"mode", "Mode"},
	{"std", "Std"},
	{"variance", "Variance"},
	{"min", "Min"},
	{"max", "Max"},
	{"q25", "Q25"},
	{"q75", "Q75"},
	{"q95", "Q95"},
	{"skewness", "Skewness"},
	{"kurtosis", "Kurtosis"},
}

func (ww *WorkbookWriter) writeSummary(f *excelize.File) error {
	a := ww.analysis
	row := 1
	var numRuns interface{} = 1
	if v := a.Get("num_runs"); v.Exists() {
		numRuns = cellValue(v)
	}
	rows := [][]interface{}{
		{"Provider", cellValue(a.Get("provider"))},
		{"Runs", numRuns},
		{"Count per run", cellValue(firstOf(a, "count_per_run", "count"))},
		{},
	}
	if a.Get("aggregate_stats").Exists() {
		rows = append(rows, []interface{}{"Metric", "Mean", "Std Dev", "Range"})
		for _, m := range aggregateMetrics {
			block := a.Get("aggregate_stats." + m.key)
			rows = append(rows, []interface{}{
				m.label,
				cellValue(block.Get("mean")),
				cellValue(block.Get("std_dev")),
				cellValue(block.Get("range")),
			})
		}
		rows = append(rows, []interface{}{})
	}

	stats := firstOf(a, "combined_stream_stats", "basic_stats")
	rows = append(rows, []interface{}{"Statistic", "Value"})
	for _, field := range basicStatFields {
		rows = append(rows, []interface{}{field.label, cellValue(stats.Get(field.key))})
	}

	for _, values := range rows {
		if err := setRow(f, sheetSummary, row, values...); err != nil {
			return err
		}
		row++
	}
	return nil
}

// perRunAnalyses returns individual_analyses, or the document itself when it
// is a single-run result.
func (ww *WorkbookWriter) perRunAnalyses() []gjson.Result {
	if list := ww.analysis.Get("individual_analyses"); list.IsArray() {
		return list.Array()
	}
	if ww.analysis.Get("basic_stats").Exists() {
		return []gjson.Result{ww.analysis}
	}
	return nil
}

var nistKeys = []struct{ key, label string }{
	{"runs_test", "Runs p"},
	{"binary_matrix_rank_test", "Matrix Rank p"},
	{"longest_run_of_ones_test", "Longest Run p"},
	{"approximate_entropy_test", "ApEn p"},
}

func (ww *WorkbookWriter) writePerRun(f *excelize.File) error {
	header := []interface{}{"Run", "Count", "Mean", "Std", "Min", "Max", "Median", "Skewness", "Kurtosis", "KS p"}
	for _, k := range nistKeys {
		header = append(header, k.label)
	}
	if err := setRow(f, sheetPerRun, 1, header...); err != nil {
		return err
	}
	for i, run := range ww.perRunAnalyses() {
		b := run.Get("basic_stats")
		values := []interface{}{
			i + 1,
			cellValue(run.Get("count")),
			cellValue(b.Get("mean")),
			cellValue(b.Get("std")),
			cellValue(b.Get("min")),
			cellValue(b.Get("max")),
			cellValue(b.Get("median")),
			cellValue(b.Get("skewness")),
			cellValue(b.Get("kurtosis")),
			cellValue(run.Get("distribution.is_uniform.ks_p")),
		}
		for _, k := range nistKeys {
			values = append(values, cellValue(run.Get("nist_tests."+k.key+".p_value")))
		}
		if err := setRow(f, sheetPerRun, i+2, values...); err != nil {
			return err
		}
	}
	return nil
}

var tallyKeys = []struct{ label, ratio, count string }{
	{"KS Uniformity", "ks_uniformity_passed", "ks_passed_count"},
	{"Runs Test", "runs_test_passed", "runs_test_passed_count"},
	{"Binary Matrix Rank", "binary_matrix_rank_test_passed", "binary_matrix_rank_test_passed_count"},
	{"Longest Run of Ones", "longest_run_of_ones_test_passed", "longest_run_of_ones_test_passed_count"},
	{"Approximate Entropy", "approximate_entropy_test_passed", "approximate_entropy_test_passed_count"},
}

func (ww *WorkbookWriter) writeTests(f *excelize.File) error {
	row := 1
	if err := setRow(f, sheetTests, row, "Test", "Passed", "Count"); err != nil {
		return err
	}
	row++
	results := ww.analysis.Get("test_results")
	for _, k := range tallyKeys {
		if err := setRow(f, sheetTests, row, k.label, cellValue(results.Get(k.ratio)), cellValue(results.Get(k.count))); err != nil {
			return err
		}
		row++
	}

	row++
	if err := setRow(f, sheetTests, row, "Run", "Significant Lags", "Max |r|"); err != nil {
		return err
	}
	row++
	for _, entry := range ww.analysis.Get("autocorrelation_table").Array() {
		lags := entry.Get("significant_lags").Array()
		parts := make([]string, len(lags))
		for i, l := range lags {
			parts[i] = l.String()
		}
		if err := setRow(f, sheetTests, row,
			cellValue(entry.Get("run")),
			strings.Join(parts, ", "),
			cellValue(entry.Get("max_correlation")),
		); err != nil {
			return err
		}
		row++
	}
	return nil
}

func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
