package report

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/tidwall/gjson"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"randlab/internal/errors"
)

const (
	pageWidth  = 11 * vg.Inch
	pageHeight = 8.5 * vg.Inch

	// maxLegendRuns bounds the per-run series drawn on one chart.
	maxLegendRuns = 12
)

// xyFrom pairs two JSON arrays point by point, dropping null entries.
func xyFrom(xs, ys gjson.Result) plotter.XYs {
	xa, ya := xs.Array(), ys.Array()
	n := len(xa)
	if len(ya) < n {
		n = len(ya)
	}
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if xa[i].Type != gjson.Number || ya[i].Type != gjson.Number {
			continue
		}
		pts = append(pts, plotter.XY{X: xa[i].Float(), Y: ya[i].Float()})
	}
	return pts
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

// addRunLines draws one line per run from the xKey/yKey arrays of each
// per-run document. It reports whether anything was drawn.
func addRunLines(p *plot.Plot, runs []gjson.Result, xKey, yKey string) (bool, error) {
	drawn := false
	for i, run := range runs {
		if i == maxLegendRuns {
			break
		}
		pts := xyFrom(run.Get(xKey), run.Get(yKey))
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return false, err
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("Run %d", i+1), line)
		drawn = true
	}
	return drawn, nil
}

func (r *Report) ecdfPage() (*plot.Plot, bool, error) {
	p := newPlot("Empirical CDF", "Value", "F(x)")
	var runs []gjson.Result
	if r.IsMultiRun() {
		runs = r.analysis.Get("ecdf_all_runs").Array()
	} else {
		runs = []gjson.Result{r.analysis.Get("range_behavior.ecdf")}
	}
	ok, err := addRunLines(p, runs, "x", "y")
	return p, ok, err
}

// histogramPage draws the frequency histogram as a density next to the
// kernel density estimate so both share one axis.
func (r *Report) histogramPage() (*plot.Plot, bool, error) {
	a := r.analysis
	var counts, edges, kde gjson.Result
	if r.IsMultiRun() {
		counts, edges, kde = a.Get("frequency_histogram.frequencies"), a.Get("frequency_histogram.bin_edges"), a.Get("combined_kde")
	} else {
		counts, edges, kde = a.Get("distribution.histogram.counts"), a.Get("distribution.histogram.edges"), a.Get("distribution.kde")
	}

	p := newPlot("Frequency Distribution", "Value", "Density")
	c, e := counts.Array(), edges.Array()
	if len(c) == 0 || len(e) != len(c)+1 {
		return p, false, nil
	}
	var total float64
	for _, v := range c {
		total += v.Float()
	}
	if total == 0 {
		return p, false, nil
	}

	bins := make([]plotter.HistogramBin, len(c))
	for i := range c {
		lo, hi := e[i].Float(), e[i+1].Float()
		weight := 0.0
		if hi > lo {
			weight = c[i].Float() / (total * (hi - lo))
		}
		bins[i] = plotter.HistogramBin{Min: lo, Max: hi, Weight: weight}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     e[len(e)-1].Float() - e[0].Float(),
		FillColor: color.Gray{Y: 200},
		LineStyle: plotter.DefaultLineStyle,
	}
	p.Add(hist)

	if pts := xyFrom(kde.Get("x"), kde.Get("y")); len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, false, err
		}
		line.Color = plotutil.Color(0)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add("KDE", line)
	}
	return p, true, nil
}

func (r *Report) acfPage() (*plot.Plot, bool, error) {
	p := newPlot("Autocorrelation", "Lag", "r")
	ok, err := addRunLines(p, r.perRun(), "independence.autocorrelation.lags", "independence.autocorrelation.values")
	return p, ok, err
}

func (r *Report) timeSeriesPage() (*plot.Plot, bool, error) {
	p := newPlot("Time Series", "Index", "Value")
	ok, err := addRunLines(p, r.perRun(), "independence.time_series.index", "independence.time_series.values")
	return p, ok, err
}

func (r *Report) spectrumPage() (*plot.Plot, bool, error) {
	p := newPlot("Power Spectrum", "Frequency", "Power")
	ok, err := addRunLines(p, r.perRun(), "spectral.frequencies", "spectral.power")
	return p, ok, err
}

// WritePDF renders one chart per page: ECDFs, histogram with KDE,
// autocorrelation, time series and power spectrum. Pages without data are
// left out.
func (r *Report) WritePDF(w io.Writer) (int64, error) {
	pages := []func() (*plot.Plot, bool, error){
		r.ecdfPage,
		r.histogramPage,
		r.acfPage,
		r.timeSeriesPage,
		r.spectrumPage,
	}

	canvas := vgpdf.New(pageWidth, pageHeight)
	drawn := 0
	for _, page := range pages {
		p, ok, err := page()
		if err != nil {
			return 0, errors.RenderFailed("pdf", err)
		}
		if !ok {
			continue
		}
		if drawn > 0 {
			canvas.NextPage()
		}
		p.Draw(draw.New(canvas))
		drawn++
	}
	if drawn == 0 {
		return 0, errors.ValidationError("Analysis contains no chart data")
	}

	n, err := canvas.WriteTo(w)
	if err != nil {
		return n, errors.RenderFailed("pdf", err)
	}
	log.Printf("[Report] Rendered PDF (%d pages, %d bytes)", drawn, n)
	return n, nil
}
