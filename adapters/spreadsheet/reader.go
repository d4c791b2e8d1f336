package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"log"
	"path/filepath"
	"strings"

	"schoolresults/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Reader parses uploaded CSV and Excel files into tabular form.
type Reader struct{}

// NewReader creates a new spreadsheet reader.
func NewReader() *Reader {
	return &Reader{}
}

// Read parses raw file bytes according to the filename extension:
// .csv as a comma-delimited table, .xlsx/.xls as a spreadsheet. Any other
// extension fails with an unsupported-format error.
func (r *Reader) Read(data []byte, filename string) (*TableData, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return r.readCSV(data)
	case ".xlsx", ".xls":
		return r.readExcel(data)
	default:
		return nil, errors.UnsupportedFormat("Unsupported file format. Use CSV or Excel (.xlsx/.xls)")
	}
}

func (r *Reader) readCSV(data []byte) (*TableData, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV file")
	}
	if len(rows) == 0 {
		return nil, errors.ValidationError("file has no header row")
	}

	log.Printf("[Spreadsheet] CSV file read (%d rows)", len(rows))
	return r.processRows(rows), nil
}

func (r *Reader) readExcel(data []byte) (*TableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
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
		return nil, errors.ValidationError("file has no header row")
	}

	log.Printf("[Spreadsheet] Excel sheet %q read (%d rows)", sheets[0], len(rows))
	return r.processRows(rows), nil
}

// processRows converts raw string rows into TableData, trimming headers and
// cells. Cells beyond the header width are dropped.
func (r *Reader) processRows(rows [][]string) *TableData {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	var dataRows []RowData
	for i := 1; i < len(rows); i++ {
		rowData := make(RowData)
		for j, cell := range rows[i] {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &TableData{Headers: headers, Rows: dataRows}
}

// RequireColumns fails with a missing-columns error naming every required
// column the table lacks.
func RequireColumns(table *TableData, required ...string) error {
	var missing []string
	for _, col := range required {
		if !table.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return errors.MissingColumns("Missing columns: " + strings.Join(missing, ", "))
	}
	return nil
}
