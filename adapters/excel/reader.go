package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// RawTable is a parsed sheet: trimmed headers and string records.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// DataReader handles reading Excel and CSV content
type DataReader struct {
	source   string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader for source. The file type follows the
// extension: ".xlsx" selects the workbook parser, anything else is CSV.
func NewDataReader(source string) *DataReader {
	ext := strings.ToLower(filepath.Ext(stripQuery(source)))
	fileType := "csv"
	if ext == ".xlsx" {
		fileType = "xlsx"
	}
	return &DataReader{source: source, fileType: fileType}
}

// FileType returns "csv" or "xlsx".
func (r *DataReader) FileType() string { return r.fileType }

// Parse reads raw bytes into a RawTable.
func (r *DataReader) Parse(data []byte) (*RawTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s content is empty", strings.ToUpper(r.fileType))
	}
	switch r.fileType {
	case "csv":
		return r.parseCSV(data)
	case "xlsx":
		return r.parseExcel(data)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// parseExcel reads the first sheet of a workbook
func (r *DataReader) parseExcel(data []byte) (*RawTable, error) {
	start := time.Now()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel content: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	log.Printf("[DataReader] sheet %s read in %.2fms (%d rows)", sheets[0], float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// parseCSV reads CSV content
func (r *DataReader) parseCSV(data []byte) (*RawTable, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	start := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	log.Printf("[DataReader] CSV parsed in %.2fms (%d rows)", float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return r.processRows(rows)
}

// processRows splits the header from the records
func (r *DataReader) processRows(rows [][]string) (*RawTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s content has no header row", strings.ToUpper(r.fileType))
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		records = append(records, row)
	}

	log.Printf("[DataReader] %s content processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(records))

	return &RawTable{Headers: headers, Rows: records}, nil
}

// LooksLikeIdentifier reports whether a column holds unique, non-empty
// values, the shape of a row identifier.
func LooksLikeIdentifier(t *RawTable, col int) bool {
	if col < 0 || col >= len(t.Headers) || len(t.Rows) == 0 {
		return false
	}
	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		if col >= len(row) {
			return false
		}
		v := strings.TrimSpace(row[col])
		if v == "" {
			return false
		}
		if _, dup := seen[v]; dup {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}

func stripQuery(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		return source[:i]
	}
	return source
}
