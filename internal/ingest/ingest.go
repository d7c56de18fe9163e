package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetchart/pkg/contracts/domain"
)

// Decoder reads tabular files (xlsx workbooks or delimited text) into a
// Dataset: ordered column names from the header row plus raw rows. Numeric
// cells are preserved as float64 and empty cells as nil, so downstream type
// detection sees raw values rather than pre-formatted strings.
type Decoder struct {
	logger *slog.Logger
}

// NewDecoder creates a decoder. A nil logger falls back to slog.Default().
func NewDecoder(logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{logger: logger}
}

// Decode dispatches on the file extension. Structural problems (unreadable
// file, no header row, no data rows) are reported as a single ingestion
// error; per-cell oddities never fail the decode.
func (d *Decoder) Decode(r io.Reader, filename string) (*domain.Dataset, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return d.DecodeExcel(r, filename)
	case ".csv", ".txt":
		return d.DecodeCSV(r, filename, ',')
	case ".tsv":
		return d.DecodeCSV(r, filename, '\t')
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(filename))
	}
}

// DecodeExcel reads the first sheet that contains a plausible table: a
// non-empty header row followed by at least one data row. Raw cell values
// are requested so date cells arrive as day serials, not display strings.
func (d *Decoder) DecodeExcel(r io.Reader, filename string) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var rows [][]string
	var sheetName string
	for _, name := range f.GetSheetList() {
		candidate, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		if headerIndex(candidate) >= 0 {
			rows = candidate
			sheetName = name
			break
		}
	}
	if sheetName == "" {
		return nil, fmt.Errorf("no sheet with tabular data in %s", filename)
	}

	d.logger.Info("decoded workbook sheet",
		slog.String("file", filename),
		slog.String("sheet", sheetName),
		slog.Int("total_rows", len(rows)))

	return d.buildDataset(filename, rows)
}

// DecodeCSV reads delimited text. Ragged rows are tolerated: short rows are
// padded with empty cells and long rows are truncated to the header width.
func (d *Decoder) DecodeCSV(r io.Reader, filename string, comma rune) (*domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read delimited file: %w", err)
	}

	return d.buildDataset(filename, records)
}

// buildDataset turns raw string rows into a Dataset: the first non-empty row
// becomes the header, every following non-empty row becomes a RawRow.
func (d *Decoder) buildDataset(filename string, rows [][]string) (*domain.Dataset, error) {
	header := headerIndex(rows)
	if header < 0 {
		return nil, fmt.Errorf("no header row found in %s", filename)
	}

	columns := make([]string, 0, len(rows[header]))
	for i, name := range rows[header] {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		columns = append(columns, name)
	}

	dataset := &domain.Dataset{
		SourceName: filepath.Base(filename),
		Columns:    columns,
	}
	for _, row := range rows[header+1:] {
		if isEmptyRow(row) {
			continue
		}
		raw := make(domain.RawRow, len(columns))
		for i, column := range columns {
			if i < len(row) {
				raw[column] = cellValue(row[i])
			} else {
				raw[column] = nil
			}
		}
		dataset.Rows = append(dataset.Rows, raw)
	}

	if len(dataset.Rows) == 0 {
		return nil, fmt.Errorf("no data rows found in %s", filename)
	}

	d.logger.Info("dataset decoded",
		slog.String("file", filename),
		slog.Int("columns", len(dataset.Columns)),
		slog.Int("rows", len(dataset.Rows)))

	return dataset, nil
}

// headerIndex finds the first row with at least one non-empty cell followed
// by at least one further non-empty row, or -1.
func headerIndex(rows [][]string) int {
	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		for _, rest := range rows[i+1:] {
			if !isEmptyRow(rest) {
				return i
			}
		}
		return -1
	}
	return -1
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cellValue converts one raw cell string: empty becomes nil and anything
// that parses strictly as a float becomes float64. Everything else stays a
// string for the type detector to judge.
func cellValue(cell string) interface{} {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}
