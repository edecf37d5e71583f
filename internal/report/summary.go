// Package report renders a normalized analysis document as a markdown/HTML
// summary or a PDF of charts. The document is read by key path, so both the
// single-run and the multi-run shape are accepted.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/tidwall/gjson"
)

// DefaultTitle heads reports rendered without an explicit title.
const DefaultTitle = "LLM Random Number Analysis"

// Report is one analysis document plus the raw runs it was computed from.
type Report struct {
	Title    string
	analysis gjson.Result
	runs     [][]float64
}

// New parses analysisJSON. runs may be nil.
func New(analysisJSON []byte, runs [][]float64, title string) *Report {
	if title == "" {
		title = DefaultTitle
	}
	return &Report{Title: title, analysis: gjson.ParseBytes(analysisJSON), runs: runs}
}

// IsMultiRun reports whether the document is a cross-run result.
func (r *Report) IsMultiRun() bool {
	return r.analysis.Get("individual_analyses").IsArray()
}

// perRun returns the per-run analyses in run order.
func (r *Report) perRun() []gjson.Result {
	if r.IsMultiRun() {
		return r.analysis.Get("individual_analyses").Array()
	}
	if r.analysis.Get("basic_stats").Exists() {
		return []gjson.Result{r.analysis}
	}
	return nil
}

func num(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		return strconv.FormatFloat(v.Float(), 'g', 6, 64)
	case gjson.True:
		return "yes"
	case gjson.False:
		return "no"
	case gjson.String:
		return v.String()
	}
	return "n/a"
}

type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) { t.rows = append(t.rows, cells) }

func (t *table) write(b *strings.Builder) {
	b.WriteString("| " + strings.Join(t.header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.header)) + "\n")
	for _, row := range t.rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	b.WriteString("\n")
}

var statRows = []struct{ key, label string }{
	{"mean", "Mean"},
	{"median", "Median"},
	{"mode", "Mode"},
	{"std", "Std"},
	{"variance", "Variance"},
	{"min", "Min"},
	{"max", "Max"},
	{"q25", "Q25"},
	{"q50", "Q50"},
	{"q75", "Q75"},
	{"q95", "Q95"},
	{"skewness", "Skewness"},
	{"kurtosis", "Kurtosis"},
}

var aggregateRows = []struct{ key, label string }{
	{"mean", "Mean"},
	{"std_dev", "Std Dev"},
	{"skewness", "Skewness"},
	{"kurtosis", "Kurtosis"},
	{"mode", "Mode"},
}

var testRows = []struct{ key, label, tally, count string }{
	{"runs_test", "Runs", "runs_test_passed", "runs_test_passed_count"},
	{"binary_matrix_rank_test", "Binary Matrix Rank", "binary_matrix_rank_test_passed", "binary_matrix_rank_test_passed_count"},
	{"longest_run_of_ones_test", "Longest Run of Ones", "longest_run_of_ones_test_passed", "longest_run_of_ones_test_passed_count"},
	{"approximate_entropy_test", "Approximate Entropy", "approximate_entropy_test_passed", "approximate_entropy_test_passed_count"},
}

// Markdown renders the summary as GitHub-flavoured markdown.
func (r *Report) Markdown() string {
	a := r.analysis
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	fmt.Fprintf(&b, "- **Provider:** %s\n", num(a.Get("provider")))
	if r.IsMultiRun() {
		fmt.Fprintf(&b, "- **Runs:** %s\n", num(a.Get("num_runs")))
		fmt.Fprintf(&b, "- **Numbers per run:** %s\n\n", num(a.Get("count_per_run")))
		r.writeMultiRun(&b)
	} else {
		fmt.Fprintf(&b, "- **Count:** %s\n\n", num(a.Get("count")))
		r.writeSingleRun(&b)
	}

	if runs := r.perRun(); len(runs) > 0 {
		b.WriteString("## Per-Run Statistics\n\n")
		t := table{header: []string{"Run", "Count", "Mean", "Std", "Min", "Max", "Median", "KS p"}}
		for i, run := range runs {
			s := run.Get("basic_stats")
			t.add(strconv.Itoa(i+1), num(run.Get("count")), num(s.Get("mean")), num(s.Get("std")),
				num(s.Get("min")), num(s.Get("max")), num(s.Get("median")), num(run.Get("distribution.is_uniform.ks_p")))
		}
		t.write(&b)
	}

	if len(r.runs) > 0 {
		lengths := make([]string, len(r.runs))
		for i, run := range r.runs {
			lengths[i] = strconv.Itoa(len(run))
		}
		fmt.Fprintf(&b, "_Source data: %d runs with lengths %s._\n", len(r.runs), strings.Join(lengths, ", "))
	}
	return b.String()
}

func (r *Report) writeMultiRun(b *strings.Builder) {
	a := r.analysis

	b.WriteString("## Aggregate Statistics\n\n")
	agg := table{header: []string{"Metric", "Mean", "Std Dev", "Range"}}
	for _, m := range aggregateRows {
		block := a.Get("aggregate_stats." + m.key)
		agg.add(m.label, num(block.Get("mean")), num(block.Get("std_dev")), num(block.Get("range")))
	}
	agg.write(b)

	b.WriteString("## Combined Stream\n\n")
	writeStats(b, a.Get("combined_stream_stats"))

	b.WriteString("## Deviation From Uniform\n\n")
	dev := a.Get("distribution_deviation")
	d := table{header: []string{"Metric", "Mean", "Std Dev", "CV"}}
	d.add("ECDF KS statistic", num(dev.Get("ecdf.ks_statistic.mean")), num(dev.Get("ecdf.ks_statistic.std_dev")), num(dev.Get("ecdf.ks_statistic.cv")))
	d.add("ECDF MAD", num(dev.Get("ecdf.mad.mean")), num(dev.Get("ecdf.mad.std_dev")), num(dev.Get("ecdf.mad.cv")))
	d.add("Q-Q R²", num(dev.Get("qq.r_squared.mean")), num(dev.Get("qq.r_squared.std_dev")), "")
	d.add("Q-Q MSE", num(dev.Get("qq.mse_from_diagonal.mean")), num(dev.Get("qq.mse_from_diagonal.std_dev")), "")
	d.write(b)

	labels := dev.Get("ecdf.regional_deviation.labels").Array()
	means := dev.Get("ecdf.regional_deviation.mean").Array()
	if len(labels) > 0 {
		reg := table{header: []string{"Region", "Mean |F(x) - x|"}}
		for i, l := range labels {
			v := gjson.Result{}
			if i < len(means) {
				v = means[i]
			}
			reg.add(l.String(), num(v))
		}
		reg.write(b)
	}

	b.WriteString("## Test Results\n\n")
	res := a.Get("test_results")
	t := table{header: []string{"Test", "Passed", "Count"}}
	t.add("KS Uniformity", num(res.Get("ks_uniformity_passed")), num(res.Get("ks_passed_count")))
	for _, tr := range testRows {
		t.add(tr.label, num(res.Get(tr.tally)), num(res.Get(tr.count)))
	}
	t.write(b)

	b.WriteString("## Autocorrelation\n\n")
	ac := table{header: []string{"Run", "Significant Lags", "Max |r|"}}
	for _, entry := range a.Get("autocorrelation_table").Array() {
		lags := entry.Get("significant_lags").Array()
		parts := make([]string, len(lags))
		for i, l := range lags {
			parts[i] = l.String()
		}
		ac.add(num(entry.Get("run")), strings.Join(parts, ", "), num(entry.Get("max_correlation")))
	}
	ac.write(b)
}

func (r *Report) writeSingleRun(b *strings.Builder) {
	a := r.analysis

	b.WriteString("## Basic Statistics\n\n")
	writeStats(b, a.Get("basic_stats"))

	b.WriteString("## Uniformity\n\n")
	fmt.Fprintf(b, "KS statistic %s, p-value %s.\n\n",
		num(a.Get("distribution.is_uniform.ks_stat")), num(a.Get("distribution.is_uniform.ks_p")))

	b.WriteString("## NIST Tests\n\n")
	t := table{header: []string{"Test", "Passed", "p-value", "Note"}}
	for _, tr := range testRows {
		res := a.Get("nist_tests." + tr.key)
		note := ""
		if e := res.Get("error"); e.Exists() && e.Type == gjson.String {
			note = e.String()
		}
		t.add(tr.label, num(res.Get("passed")), num(res.Get("p_value")), note)
	}
	t.write(b)
}

func writeStats(b *strings.Builder, stats gjson.Result) {
	t := table{header: []string{"Statistic", "Value"}}
	for _, s := range statRows {
		t.add(s.label, num(stats.Get(s.key)))
	}
	t.write(b)
}

// HTML renders the markdown summary as a complete HTML page.
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: r.Title,
	})
	return markdown.ToHTML([]byte(r.Markdown()), p, renderer)
}
