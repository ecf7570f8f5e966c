// Package dataprocessing turns CalSCHLS school climate exports into tidy
// records and a region-level composite index.
//
// # Architecture
//
// The package is organized into four layers:
//
// 1. Readers: LoadCDEText and LoadExcel produce a Table from Latin-1 text or xlsx exports
// 2. Detector: ClassifyGradeRow and DetectConnectednessBlocks recognize region and stratum rows
// 3. Builders: BuildGradeRecords and BuildConnectednessRecords emit sorted TidyRecords
// 4. Composite: Aggregate reduces TidyRecords to CompositeIndexRows
//
// The builders are pure. Processor wraps them with a single summary log
// line, a span and pipeline metrics per pass.
//
// # Usage
//
//	t, err := dataprocessing.LoadCDETextFile("safety_by_grade.txt", '\t')
//	if err != nil {
//	    return err
//	}
//	records := dataprocessing.BuildGradeRecords(t.Lines(), dataprocessing.DefaultGradeOptions())
//	index := dataprocessing.Aggregate(records)
//
// # Missing values
//
// "S" (suppressed), "N/A" and blank cells coerce to domain.Missing. Missing
// values never fail a build; they propagate into sums and are skipped by
// means.
//
// # Data Flow
//
//	Export → Reader → Table → Detector → Builder → TidyRecords → Aggregate → CompositeIndexRows
package dataprocessing
