package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"randlab/internal/errors"
)

// MissingRunColumnsMessage is reported when no header looks like "run N".
const MissingRunColumnsMessage = "CSV must have columns named 'run 1', 'run 2', 'run 3', etc. (case-insensitive)"

var runColumnPattern = regexp.MustCompile(`(?i)^run\s*(\d+)$`)

// DataReader reads runs laid out as "run N" columns from CSV or Excel files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader picks the file type from the extension; anything other than
// .csv is read as a workbook.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// ReadRuns reads every run column of the file, ordered by run number.
func (r *DataReader) ReadRuns() ([][]float64, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	file, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
		}
		return nil, errors.Wrapf(err, "failed to open %s", r.filePath)
	}
	defer file.Close()

	if r.fileType == "csv" {
		return ReadRunsCSV(file)
	}
	return ReadRunsXLSX(file)
}

// ReadRunsCSV parses CSV content with "run N" header columns.
func ReadRunsCSV(src io.Reader) ([][]float64, error) {
	readStart := time.Now()
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("Invalid CSV format: %v", err))
	}
	if len(rows) == 0 {
		return nil, errors.ValidationError("CSV file is empty")
	}
	log.Printf("[DataReader] CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return RunsFromRows(rows)
}

// ReadRunsXLSX parses the first sheet of a workbook with "run N" header
// columns.
func ReadRunsXLSX(src io.Reader) ([][]float64, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.ValidationError(fmt.Sprintf("Invalid Excel file: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ValidationError("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s", sheets[0])
	}
	if len(rows) == 0 {
		return nil, errors.ValidationError("Excel file is empty")
	}
	log.Printf("[DataReader] %s read (%d rows)", sheets[0], len(rows))
	return RunsFromRows(rows)
}

type runColumn struct {
	number int
	index  int
	name   string
}

// RunsFromRows turns a header row plus data rows into runs. Headers match
// "run N" ignoring case and inner spacing. Blank and non-numeric cells are
// skipped; a run column with no numbers left is an error.
func RunsFromRows(rows [][]string) ([][]float64, error) {
	header := rows[0]
	var columns []runColumn
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		m := runColumnPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		columns = append(columns, runColumn{number: n, index: i, name: name})
	}
	if len(columns) == 0 {
		return nil, errors.ValidationError(MissingRunColumnsMessage)
	}
	sort.SliceStable(columns, func(a, b int) bool { return columns[a].number < columns[b].number })

	runs := make([][]float64, 0, len(columns))
	for _, col := range columns {
		var values []float64
		skipped := 0
		for _, row := range rows[1:] {
			if col.index >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col.index])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(v) {
				skipped++
				continue
			}
			values = append(values, v)
		}
		if skipped > 0 {
			log.Printf("[DataReader] Skipped %d non-numeric values in %s", skipped, col.name)
		}
		if len(values) == 0 {
			return nil, errors.ValidationError(fmt.Sprintf("Column '%s' contains no valid numeric values", col.name))
		}
		runs = append(runs, values)
	}

	lengths := make([]int, len(runs))
	for i, run := range runs {
		lengths[i] = len(run)
	}
	log.Printf("[DataReader] Parsed %d runs, lengths: %v", len(runs), lengths)
	return runs, nil
}

// ReadRunsBytes detects CSV or XLSX content by the zip signature.
func ReadRunsBytes(content []byte) ([][]float64, error) {
	if bytes.HasPrefix(content, []byte("PK\x03\x04")) {
		return ReadRunsXLSX(bytes.NewReader(content))
	}
	return ReadRunsCSV(bytes.NewReader(content))
}
