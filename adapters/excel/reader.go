package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"nhanesci/domain/dataset"
	"nhanesci/internal"
	"nhanesci/internal/errors"
)

const (
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string
	sheet    string
	logger   *internal.Logger
}

// Option configures a DataReader
type Option func(*DataReader)

// WithSheet selects the worksheet read from an xlsx file; the first sheet is used otherwise
func WithSheet(sheet string) Option {
	return func(r *DataReader) { r.sheet = sheet }
}

// WithLogger replaces the default logger
func WithLogger(logger *internal.Logger) Option {
	return func(r *DataReader) { r.logger = logger }
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string, opts ...Option) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := FileTypeCSV
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = FileTypeXLSX
	}
	r := &DataReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileType reports "csv" or "xlsx"
func (r *DataReader) FileType() string {
	return r.fileType
}

// ReadTable reads the whole file into a Table
func (r *DataReader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case FileTypeCSV:
		rows, err = r.readCSVRows()
	case FileTypeXLSX:
		rows, err = r.readExcelRows()
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported file type: %s", r.fileType))
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.processRows(rows)
}

// readExcelRows reads the selected worksheet
func (r *DataReader) readExcelRows() ([][]string, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()
	r.logger.Debug("[DataReader] Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", sheet)
	}
	r.logger.Debug("[DataReader] %s read in %.2fms (%d rows)", sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return rows, nil
}

// readCSVRows reads CSV rows; ragged rows are allowed and padded later
func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	readStart := time.Now()
	rows, err := readCSV(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	r.logger.Debug("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return rows, nil
}

func readCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// processRows converts raw string rows into a Table
func (r *DataReader) processRows(rows [][]string) (*dataset.Table, error) {
	if len(rows) < 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType)))
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, header := range headerRow {
		h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if seen[h] {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate column %q", h))
		}
		seen[h] = true
		headers[i] = h
	}

	dataRows := make([]dataset.RawRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		rowData := make(dataset.RawRow, len(headers))
		for j, header := range headers {
			if j < len(row) {
				rowData[header] = strings.TrimSpace(row[j])
			} else {
				rowData[header] = ""
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("[DataReader] %s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &dataset.Table{
		Headers: headers,
		Rows:    dataRows,
		Source:  r.filePath,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
