package dataprocessing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// NormalizeColumnName replaces newlines with spaces, collapses whitespace
// runs to a single space and trims the ends. It is idempotent.
func NormalizeColumnName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeColumns applies NormalizeColumnName to every header label
func NormalizeColumns(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = NormalizeColumnName(h)
	}
	return out
}

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// SnakeCaseColumn lower-cases a header, turns whitespace runs into
// underscores and strips any remaining non-word characters.
func SnakeCaseColumn(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Join(strings.FieldsFunc(s, unicode.IsSpace), "_")
	return nonWordRe.ReplaceAllString(s, "")
}

// SnakeCaseColumns applies SnakeCaseColumn to every header label
func SnakeCaseColumns(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = SnakeCaseColumn(h)
	}
	return out
}

// FindColumn returns the index of the first option present in header, or -1
func FindColumn(header []string, options ...string) int {
	for _, opt := range options {
		for i, h := range header {
			if h == opt {
				return i
			}
		}
	}
	return -1
}

// BuildCDSCode concatenates the county, district and school codes,
// zero-padded to 2, 5 and 7 digits.
func BuildCDSCode(county, district, school string) string {
	return zfill(county, 2) + zfill(district, 5) + zfill(school, 7)
}

func zfill(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// CDSColumn is the canonical school identifier column
const CDSColumn = "cdscode"

// EnsureCDSCode appends a cdscode column built from the code columns when
// the table does not already carry one. Header labels are expected in
// snake case. It returns the names of the code parts it could not find.
func EnsureCDSCode(t Table) (Table, []string) {
	if FindColumn(t.Header, CDSColumn) >= 0 {
		return t, nil
	}

	county := FindColumn(t.Header, "county_code", "countycode")
	district := FindColumn(t.Header, "district_code", "districtcode")
	school := FindColumn(t.Header, "school_code", "schoolcode")

	var missing []string
	for _, part := range []struct {
		name string
		idx  int
	}{{"county", county}, {"district", district}, {"school", school}} {
		if part.idx < 0 {
			missing = append(missing, part.name)
		}
	}
	if len(missing) > 0 {
		return t, missing
	}

	out := Table{
		Header: append(append([]string{}, t.Header...), CDSColumn),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		code := BuildCDSCode(cell(row, county), cell(row, district), cell(row, school))
		out.Rows[i] = append(append([]string{}, row...), code)
	}
	return out, nil
}

// CountyFromGeography strips the County keyword from a geography label
func CountyFromGeography(label string) string {
	return strings.TrimSpace(strings.ReplaceAll(label, " County", ""))
}

// describeMissing renders missing code parts for log messages
func describeMissing(parts []string) string {
	return fmt.Sprintf("missing %s", strings.Join(parts, ", "))
}
