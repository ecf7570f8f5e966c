package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// GradeExportLines is a small grade-stratified safety export. The first
// line is a title, as in the CDE downloads.
var GradeExportLines = []string{
	"Perceived Safety at School by Grade, 2017-2019",
	"Alameda County Percent",
	"Grade Level\tVery Safe\tSafe\tNeither\tUnsafe\tVery Unsafe",
	"Grade 9\t10%\t20%\t30%\t25%\t15%",
	"Grade 11\t5%\t15%\t40%\t30%\t10%",
	"California Percent",
	"Grade 9\t12%\t22%\t28%\t24%\t14%",
	"Grade 11\tS\tS\tS\tS\tS",
	"Note: S = suppressed",
}

// GradeExportText returns GradeExportLines joined as a text export
func GradeExportText() string {
	return strings.Join(GradeExportLines, "\n") + "\n"
}

// Latin1 encodes s the way CDE text exports are stored
func Latin1(t testing.TB, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("latin-1 encode: %v", err)
	}
	return b
}

// WriteGradeExport writes the Latin-1 grade export into dir
func WriteGradeExport(t testing.TB, dir, name string) string {
	t.Helper()
	return writeFile(t, dir, name, Latin1(t, GradeExportText()))
}

// ConnectednessLabels is the column label row of a connectedness block
var ConnectednessLabels = []string{
	"Level of School\nConnectedness", "Very Safe", "Safe", "Neither Safe nor Unsafe", "Unsafe", "Very Unsafe",
}

// ConnectednessRegions maps region labels to High, Medium and Low rows
var ConnectednessRegions = []struct {
	Label string
	Rows  [3][5]string
}{
	{"California", [3][5]string{
		{"40", "30", "15", "10", "5"},
		{"25", "30", "25", "12", "8"},
		{"10", "20", "30", "25", "15"},
	}},
	{"Fresno County", [3][5]string{
		{"38", "31", "16", "10", "5"},
		{"24", "29", "26", "13", "8"},
		{"9", "S", "31", "26", "15"},
	}},
}

// connectednessRows lays out the connectedness export, one slice per row.
// Each block is followed by a blank row and the seventh column is empty.
func connectednessRows() [][]string {
	rows := [][]string{{"School Connectedness by Perceived Safety"}}
	for _, region := range ConnectednessRegions {
		rows = append(rows, []string{region.Label})
		rows = append(rows, append(append([]string{}, ConnectednessLabels...), "", "Percent"))
		for i, level := range []string{"High", "Medium", "Low"} {
			rows = append(rows, append([]string{level}, region.Rows[i][:]...))
		}
		rows = append(rows, nil)
	}
	return rows
}

// ConnectednessExportText renders the connectedness export as tab
// separated text. Embedded newlines in labels become spaces.
func ConnectednessExportText() string {
	var sb strings.Builder
	for _, row := range connectednessRows() {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "\n", " ")
		}
		sb.WriteString(strings.Join(cells, "\t"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// workbook writes rows into the first sheet of a new workbook, skipping
// blank cells
func workbook(t testing.TB, rows [][]string) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, values := range rows {
		for i, v := range values {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	return f
}

func workbookBytes(t testing.TB, f *excelize.File) []byte {
	t.Helper()
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// ConnectednessWorkbook builds an xlsx connectedness export
func ConnectednessWorkbook(t testing.TB) *excelize.File {
	t.Helper()
	return workbook(t, connectednessRows())
}

// ConnectednessWorkbookBytes returns the workbook serialized as xlsx
func ConnectednessWorkbookBytes(t testing.TB) []byte {
	t.Helper()
	return workbookBytes(t, ConnectednessWorkbook(t))
}

// WriteConnectednessWorkbook saves the workbook into dir
func WriteConnectednessWorkbook(t testing.TB, dir, name string) string {
	t.Helper()
	return writeFile(t, dir, name, ConnectednessWorkbookBytes(t))
}

// WriteConnectednessText saves the connectedness export as Latin-1 text
func WriteConnectednessText(t testing.TB, dir, name string) string {
	t.Helper()
	return writeFile(t, dir, name, Latin1(t, ConnectednessExportText()))
}

// GradeWorkbookBytes returns the grade export saved as a workbook, one
// cell per tab separated field
func GradeWorkbookBytes(t testing.TB) []byte {
	t.Helper()
	rows := make([][]string, len(GradeExportLines))
	for i, line := range GradeExportLines {
		rows[i] = strings.Split(line, "\t")
	}
	return workbookBytes(t, workbook(t, rows))
}

// WriteGradeWorkbook saves the grade workbook into dir
func WriteGradeWorkbook(t testing.TB, dir, name string) string {
	t.Helper()
	return writeFile(t, dir, name, GradeWorkbookBytes(t))
}
