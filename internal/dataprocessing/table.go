package dataprocessing

import "strings"

// RawRow is an ordered sequence of cells as read from an export. Absent
// cells are blank strings.
type RawRow []string

// Table is a header row followed by data rows
type Table struct {
	Header []string
	Rows   [][]string
}

// cell returns the trimmed cell at idx, or "" when out of range
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// DropEmpty removes data rows whose cells are all blank, then data columns
// that are blank in every remaining row. The header keeps the surviving
// columns.
func DropEmpty(t Table) Table {
	var rows [][]string
	width := 0
	for _, row := range t.Rows {
		keep := false
		for _, c := range row {
			if !blank(c) {
				keep = true
				break
			}
		}
		if keep {
			rows = append(rows, row)
			if len(row) > width {
				width = len(row)
			}
		}
	}

	used := make([]bool, width)
	for _, row := range rows {
		for j, c := range row {
			if !blank(c) {
				used[j] = true
			}
		}
	}

	project := func(row []string) []string {
		out := make([]string, 0, width)
		for j := 0; j < width; j++ {
			if used[j] {
				out = append(out, cell(row, j))
			}
		}
		return out
	}

	out := Table{Rows: make([][]string, len(rows))}
	if t.Header != nil {
		out.Header = project(t.Header)
	}
	for i, row := range rows {
		out.Rows[i] = project(row)
	}
	return out
}
