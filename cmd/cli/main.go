package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"randlab/adapters/excel"
	"randlab/internal/analyzer"
	"randlab/internal/config"
	"randlab/internal/dataset"
	"randlab/internal/errors"
	"randlab/internal/report"
	"randlab/internal/stats"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "randlab",
		Short:         "Statistical randomness analysis of LLM generated numbers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newExportCmd(),
	)
	return rootCmd
}

// loadConfig reads .env (if present) and the environment.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

func newAnalyzer(cfg *config.Config, workers int) *analyzer.Analyzer {
	if workers <= 0 {
		workers = cfg.Analysis.Workers
	}
	return analyzer.New(
		analyzer.WithLogger(cfg.Logger()),
		analyzer.WithWorkers(workers),
	)
}

// loadRuns reads runs from a run-column CSV or XLSX file, or from a JSON
// array of numbers or of arrays of numbers.
func loadRuns(path string) ([][]float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := dataset.LoadDummy(path)
		if err != nil {
			return nil, err
		}
		return data.Data, nil
	case ".csv", ".xlsx":
		return excel.NewDataReader(path).ReadRuns()
	}
	return nil, errors.UnsupportedType(fmt.Sprintf("unsupported input %s: use .csv, .xlsx or .json", path))
}

func newAnalyzeCmd() *cobra.Command {
	var provider string
	var single bool
	var workers int
	var numRuns int
	var output string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze the runs in a file and print the result as JSON",
		Long: `Analyze every run in a CSV/XLSX file with "run 1", "run 2", ... columns,
or in a JSON file holding one array of numbers or an array of arrays.

With --single only the first run is analyzed, as a single sequence.

Example: randlab analyze runs.csv --provider openai --workers 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runs, err := loadRuns(args[0])
			if err != nil {
				return err
			}

			az := newAnalyzer(cfg, workers)
			var result any
			if single {
				if len(runs) > 1 {
					cfg.Logger().Warn("--single analyzes run 1 only; %d further runs ignored", len(runs)-1)
				}
				result, err = az.Analyze(runs[0], provider)
			} else {
				if numRuns <= 0 {
					numRuns = len(runs)
				}
				result, err = az.AnalyzeMultiRun(cmd.Context(), runs, provider, numRuns)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrapf(err, "failed to create %s", output)
				}
				defer f.Close()
				out = f
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(stats.ConvertNumericTypes(result))
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "cli", "Provider name recorded in the result")
	cmd.Flags().BoolVar(&single, "single", false, "Analyze the first run as a single sequence")
	cmd.Flags().IntVar(&workers, "workers", 0, "Runs analyzed in parallel (default ANALYSIS_WORKERS)")
	cmd.Flags().IntVar(&numRuns, "num-runs", 0, "Declared run count used as pass-rate denominator (default: runs in file)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the JSON to this file instead of stdout")

	return cmd
}

type exportTargets struct {
	xlsx     string
	pdf      string
	html     string
	markdown string
}

func (t exportTargets) empty() bool {
	return t.xlsx == "" && t.pdf == "" && t.html == "" && t.markdown == ""
}

func newExportCmd() *cobra.Command {
	var targets exportTargets
	var provider string
	var title string
	var workers int

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Analyze the runs in a file and write workbook, PDF or HTML reports",
		Long: `Analyze the runs in a file and render the result.

Example: randlab export runs.csv --xlsx runs.xlsx --pdf report.pdf --html report.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if targets.empty() {
				return errors.InvalidInput("at least one of --xlsx, --pdf, --html or --markdown is required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runs, err := loadRuns(args[0])
			if err != nil {
				return err
			}

			result, err := newAnalyzer(cfg, workers).AnalyzeMultiRun(cmd.Context(), runs, provider, len(runs))
			if err != nil {
				return err
			}
			analysisJSON, err := json.Marshal(stats.ConvertNumericTypes(result))
			if err != nil {
				return errors.Wrap(err, "failed to encode analysis")
			}

			if title == "" {
				title = cfg.Report.Title
			}
			return writeExports(cmd.OutOrStdout(), targets, runs, analysisJSON, title)
		},
	}

	cmd.Flags().StringVar(&targets.xlsx, "xlsx", "", "Write the workbook to this path")
	cmd.Flags().StringVar(&targets.pdf, "pdf", "", "Write the PDF chart report to this path")
	cmd.Flags().StringVar(&targets.html, "html", "", "Write the HTML summary to this path")
	cmd.Flags().StringVar(&targets.markdown, "markdown", "", "Write the markdown summary to this path")
	cmd.Flags().StringVar(&provider, "provider", "cli", "Provider name recorded in the result")
	cmd.Flags().StringVar(&title, "title", "", "Report title (default REPORT_TITLE)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Runs analyzed in parallel (default ANALYSIS_WORKERS)")

	return cmd
}

func writeExports(out io.Writer, targets exportTargets, runs [][]float64, analysisJSON []byte, title string) error {
	rep := report.New(analysisJSON, runs, title)

	if targets.xlsx != "" {
		if err := writeFile(targets.xlsx, excel.NewWorkbookWriter(runs, analysisJSON)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", targets.xlsx)
	}
	if targets.pdf != "" {
		if err := writeFile(targets.pdf, writerToFunc(rep.WritePDF)); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", targets.pdf)
	}
	if targets.html != "" {
		if err := writeFile(targets.html, bytes.NewReader(rep.HTML())); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", targets.html)
	}
	if targets.markdown != "" {
		if err := writeFile(targets.markdown, strings.NewReader(rep.Markdown())); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", targets.markdown)
	}
	return nil
}

type writerToFunc func(io.Writer) (int64, error)

func (f writerToFunc) WriteTo(w io.Writer) (int64, error) { return f(w) }

func writeFile(path string, src io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if _, err := src.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
