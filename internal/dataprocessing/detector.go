package dataprocessing

import (
	"regexp"
	"strings"

	"ewscli/pkg/contracts/domain"
)

// RegionMarker identifies the geographic scope rows belong to
type RegionMarker struct {
	Name  string
	Label string
	Type  domain.RegionType
}

// RowClass is the result of classifying one raw row. It is one of
// RegionHeader, StratumDataRow or Ignorable.
type RowClass interface {
	rowClass()
}

// RegionHeader starts a new region
type RegionHeader struct {
	Region RegionMarker
}

// StratumDataRow carries the five metric tokens for one stratum
type StratumDataRow struct {
	Stratum string
	Tokens  [5]string
}

// Ignorable is any row matching neither rule
type Ignorable struct{}

func (RegionHeader) rowClass()   {}
func (StratumDataRow) rowClass() {}
func (Ignorable) rowClass()      {}

const (
	headerSuffix   = "Percent"
	reservedPrefix = "Grade Level"
	countyKeyword  = "County"
	stateName      = "California"
)

var (
	gradeRowRe   = regexp.MustCompile(`^Grade\s+(9|11)\s+(.*)$`)
	tokenSplitRe = regexp.MustCompile(`\t+|\s{2,}`)
)

// joinCells trims the cells, skips blanks and joins the rest with tabs
func joinCells(row RawRow) string {
	values := make([]string, 0, len(row))
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			values = append(values, c)
		}
	}
	return strings.Join(values, "\t")
}

// NewRegionMarker derives the scope and canonical name from a geography label
func NewRegionMarker(label string) RegionMarker {
	label = NormalizeColumnName(label)
	m := RegionMarker{Name: label, Label: label, Type: domain.RegionState}
	if strings.Contains(label, countyKeyword) {
		m.Type = domain.RegionCounty
		m.Name = strings.TrimSpace(strings.TrimSuffix(label, countyKeyword))
		if m.Name == "" {
			m.Name = label
		}
	}
	return m
}

// ClassifyGradeRow applies the grade-stratified safety export rules
func ClassifyGradeRow(row RawRow) RowClass {
	line := joinCells(row)
	if line == "" {
		return Ignorable{}
	}

	if strings.HasSuffix(line, headerSuffix) && !strings.HasPrefix(line, reservedPrefix) {
		label := strings.TrimSpace(strings.TrimSuffix(line, headerSuffix))
		if label == "" {
			return Ignorable{}
		}
		return RegionHeader{Region: NewRegionMarker(label)}
	}

	if !strings.HasPrefix(line, "Grade 9") && !strings.HasPrefix(line, "Grade 11") {
		return Ignorable{}
	}
	m := gradeRowRe.FindStringSubmatch(line)
	if m == nil {
		return Ignorable{}
	}
	return StratumDataRow{Stratum: m[1], Tokens: splitTokens(m[2])}
}

// splitTokens splits the metric part of a data row into exactly five
// tokens, padding with blanks when fewer are present.
func splitTokens(rest string) [5]string {
	parts := tokenSplitRe.Split(rest, -1)
	if len(parts) < 5 {
		parts = strings.Fields(rest)
	}
	var out [5]string
	copy(out[:], parts)
	return out
}

// IsConnectednessRegionRow reports whether the first cell names a region
// in the connectedness export
func IsConnectednessRegionRow(row []string) bool {
	first := cell(row, 0)
	return strings.Contains(first, countyKeyword) || first == stateName
}

// ConnectednessBlock is one region's header row and up to three strata rows
type ConnectednessBlock struct {
	Region RegionMarker
	Header []string
	Rows   [][]string
}

// connectednessBlockSize is the number of strata rows per region
const connectednessBlockSize = 3

// DetectConnectednessBlocks finds region rows and slices out the header
// row that follows and the strata rows after it. Rows are expected to have
// empty rows and columns removed already.
func DetectConnectednessBlocks(rows [][]string) []ConnectednessBlock {
	var blocks []ConnectednessBlock
	for i, row := range rows {
		if !IsConnectednessRegionRow(row) {
			continue
		}
		label := cell(row, 0)
		block := ConnectednessBlock{Region: connectednessMarker(label)}
		if i+1 < len(rows) {
			block.Header = NormalizeColumns(rows[i+1])
		}
		for j := i + 2; j < i+2+connectednessBlockSize && j < len(rows); j++ {
			block.Rows = append(block.Rows, rows[j])
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func connectednessMarker(label string) RegionMarker {
	if label == stateName {
		return RegionMarker{Name: label, Label: label, Type: domain.RegionState}
	}
	return NewRegionMarker(label)
}
