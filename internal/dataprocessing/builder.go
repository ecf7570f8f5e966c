package dataprocessing

import (
	"sort"

	"ewscli/pkg/contracts/domain"
)

// Default labels attached to grade-stratified records
const (
	DefaultYears       = "2017-2019"
	DefaultLevelFilter = "All"
)

// GradeOptions labels records built from a grade-stratified export
type GradeOptions struct {
	Years       string
	LevelFilter string
}

// DefaultGradeOptions returns the labels used by the CalSCHLS 2017-2019 export
func DefaultGradeOptions() GradeOptions {
	return GradeOptions{Years: DefaultYears, LevelFilter: DefaultLevelFilter}
}

// ScanStatistics summarizes a single build pass
type ScanStatistics struct {
	RowsScanned    int
	RegionHeaders  int
	RecordsEmitted int
	DanglingRows   int
	IgnoredRows    int
}

// Dropped is the number of rows that produced no record and no region
func (s ScanStatistics) Dropped() int {
	return s.DanglingRows + s.IgnoredRows
}

// gradeScan is the accumulator threaded through the row fold
type gradeScan struct {
	current *RegionMarker
	records []domain.TidyRecord
	stats   ScanStatistics
}

func (s gradeScan) step(row RawRow, opts GradeOptions) gradeScan {
	s.stats.RowsScanned++
	switch c := ClassifyGradeRow(row).(type) {
	case RegionHeader:
		region := c.Region
		s.current = &region
		s.stats.RegionHeaders++
	case StratumDataRow:
		if s.current == nil {
			s.stats.DanglingRows++
			return s
		}
		s.records = append(s.records, domain.TidyRecord{
			Region:      s.current.Name,
			Geography:   s.current.Label,
			RegionType:  s.current.Type,
			Stratum:     c.Stratum,
			Metrics:     coerceMetrics(c.Tokens),
			Years:       opts.Years,
			LevelFilter: opts.LevelFilter,
		})
		s.stats.RecordsEmitted++
	default:
		s.stats.IgnoredRows++
	}
	return s
}

// BuildGradeRecords turns a grade-stratified safety export into tidy
// records, one per (region, grade). Rows before the first region header
// and rows matching no rule are dropped.
func BuildGradeRecords(rows []RawRow, opts GradeOptions) []domain.TidyRecord {
	records, _ := BuildGradeRecordsWithStats(rows, opts)
	return records
}

// BuildGradeRecordsWithStats is BuildGradeRecords plus scan statistics
func BuildGradeRecordsWithStats(rows []RawRow, opts GradeOptions) ([]domain.TidyRecord, ScanStatistics) {
	var scan gradeScan
	for _, row := range rows {
		scan = scan.step(row, opts)
	}
	SortRecords(scan.records)
	return scan.records, scan.stats
}

// Connectedness export column labels
const (
	columnConnectedness = "Level of School Connectedness"
	columnVerySafe      = "Very Safe"
	columnSafe          = "Safe"
	columnNeither       = "Neither Safe nor Unsafe"
	columnUnsafe        = "Unsafe"
	columnVeryUnsafe    = "Very Unsafe"
)

// BuildConnectednessRecords turns a connectedness-stratified export into
// tidy records, one per (region, connectedness level). The table should
// come straight from the reader; empty rows and columns are removed here.
func BuildConnectednessRecords(t Table) []domain.TidyRecord {
	records, _ := BuildConnectednessRecordsWithStats(t)
	return records
}

// BuildConnectednessRecordsWithStats is BuildConnectednessRecords plus scan statistics
func BuildConnectednessRecordsWithStats(t Table) ([]domain.TidyRecord, ScanStatistics) {
	clean := DropEmpty(t)
	blocks := DetectConnectednessBlocks(clean.Rows)

	stats := ScanStatistics{RowsScanned: len(clean.Rows), RegionHeaders: len(blocks)}
	var records []domain.TidyRecord
	for _, b := range blocks {
		stratumIdx := FindColumn(b.Header, columnConnectedness)
		if stratumIdx < 0 {
			stratumIdx = 0
		}
		idx := [5]int{
			FindColumn(b.Header, columnVerySafe),
			FindColumn(b.Header, columnSafe),
			FindColumn(b.Header, columnNeither),
			FindColumn(b.Header, columnUnsafe),
			FindColumn(b.Header, columnVeryUnsafe),
		}
		for _, row := range b.Rows {
			var tokens [5]string
			for k, j := range idx {
				tokens[k] = cell(row, j)
			}
			metrics := coerceMetrics(tokens)
			records = append(records, domain.TidyRecord{
				Region:         b.Region.Name,
				Geography:      b.Region.Label,
				RegionType:     b.Region.Type,
				Stratum:        cell(row, stratumIdx),
				Metrics:        metrics,
				SafetyPositive: metrics.VerySafe.Add(metrics.Safe),
			})
		}
	}
	stats.RecordsEmitted = len(records)
	stats.IgnoredRows = stats.RowsScanned - stats.RegionHeaders - stats.RecordsEmitted
	if stats.IgnoredRows < 0 {
		stats.IgnoredRows = 0
	}

	SortRecords(records)
	return records, stats
}

// SortRecords orders records by region type (State first), region name
// and stratum
func SortRecords(records []domain.TidyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if ra, rb := a.RegionType.Rank(), b.RegionType.Rank(); ra != rb {
			return ra < rb
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return domain.StratumRank(a.Stratum) < domain.StratumRank(b.Stratum)
	})
}
