// Package ingest turns uploaded spreadsheets into expenses.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"expense_tracker/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Row is one data row keyed by lower-cased header
type Row struct {
	Line   int // 1-based sheet row, the header is line 1
	Fields map[string]string
}

// Get returns the trimmed value of column, or ""
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// Table is a parsed upload
type Table struct {
	Columns []string
	Rows    []Row
}

// Has reports whether column is in the header
func (t *Table) Has(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// ReadTable parses a .csv or .xlsx file; the extension of filename decides
// which. For workbooks only the first sheet is read. Blank rows are dropped
// but keep their place in line numbering.
func ReadTable(filename string, r io.Reader) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, domain.Validation("unsupported file type %q, expected .csv or .xlsx", ext)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.Validation("file is empty")
	}
	return newTable(records), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, domain.Validation("malformed csv at line %d: %v", perr.Line, perr.Err)
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.Validation("unreadable workbook: %v", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func newTable(records [][]string) *Table {
	header := records[0]
	t := &Table{Columns: make([]string, len(header))}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		t.Columns[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		fields := make(map[string]string, len(t.Columns))
		for j, col := range t.Columns {
			if j < len(rec) && col != "" {
				fields[col] = rec[j]
			}
		}
		t.Rows = append(t.Rows, Row{Line: i + 2, Fields: fields})
	}
	return t
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
