package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// DefaultTextSeparator is the field separator of CDE text exports
const DefaultTextSeparator = '\t'

// LoadCDEText reads a delimited CDE text export. The files are Latin-1
// encoded; quoting is lenient and rows may have any width. The first
// record becomes the header.
func LoadCDEText(r io.Reader, sep rune) (Table, error) {
	if sep == 0 {
		sep = DefaultTextSeparator
	}
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = sep
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var t Table
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read text export: %w", err)
		}
		if first {
			t.Header = record
			first = false
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// LoadCDETextFile opens path and reads it with LoadCDEText
func LoadCDETextFile(path string, sep rune) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return LoadCDEText(f, sep)
}

// LoadExcel reads one worksheet of an xlsx export. An empty sheet name
// selects the first sheet.
func LoadExcel(r io.Reader, sheet string) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

// LoadExcelFile opens path and reads it with LoadExcel
func LoadExcelFile(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (Table, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Table{}, nil
	}
	return Table{Header: rows[0], Rows: rows[1:]}, nil
}

// Lines returns the header followed by the data rows, for exports where
// the first record carries no column labels
func (t Table) Lines() []RawRow {
	out := make([]RawRow, 0, len(t.Rows)+1)
	if t.Header != nil {
		out = append(out, RawRow(t.Header))
	}
	for _, row := range t.Rows {
		out = append(out, RawRow(row))
	}
	return out
}
