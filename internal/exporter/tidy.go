package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"ewscli/internal/dataprocessing"
	"ewscli/pkg/contracts/domain"
)

// Column layouts of the tidy and composite reports
var (
	GradeColumns = []string{
		"region", "geography", "region_type", "grade",
		domain.MetricVerySafe, domain.MetricSafe, domain.MetricNeither, domain.MetricUnsafe, domain.MetricVeryUnsafe,
		"years", "level_of_safety_filter",
	}
	ConnectednessColumns = []string{
		"region", "region_type", "connectedness",
		"very_safe", "safe", "neither_safe_nor_unsafe", "unsafe", "very_unsafe",
		"safety_positive",
	}
	CompositeColumns = []string{
		"region", "avg_safety_score", "high_conn_share", "low_conn_share", "conn_ratio", "climate_index",
	}
)

// TidyColumns returns the report header for dataset
func TidyColumns(dataset string) ([]string, error) {
	switch dataset {
	case dataprocessing.DatasetGrade:
		return GradeColumns, nil
	case dataprocessing.DatasetConnectedness:
		return ConnectednessColumns, nil
	default:
		return nil, fmt.Errorf("unknown dataset %q", dataset)
	}
}

// TidyRow formats one record in the column order of its dataset
func TidyRow(dataset string, r domain.TidyRecord) []string {
	m := r.Metrics
	if dataset == dataprocessing.DatasetConnectedness {
		return []string{
			r.Region, string(r.RegionType), r.Stratum,
			formatValue(m.VerySafe), formatValue(m.Safe), formatValue(m.Neither), formatValue(m.Unsafe), formatValue(m.VeryUnsafe),
			formatValue(r.SafetyPositive),
		}
	}
	return []string{
		r.Region, r.Geography, string(r.RegionType), r.Stratum,
		formatValue(m.VerySafe), formatValue(m.Safe), formatValue(m.Neither), formatValue(m.Unsafe), formatValue(m.VeryUnsafe),
		r.Years, r.LevelFilter,
	}
}

// CompositeRow formats one composite index row
func CompositeRow(r domain.CompositeIndexRow) []string {
	return []string{
		r.Region,
		formatValue(r.AvgSafetyScore),
		formatFloat(r.HighConnShare),
		formatFloat(r.LowConnShare),
		formatFloat(r.ConnRatio),
		formatValue(r.ClimateIndex),
	}
}

// WriteTidy writes records as CSV to out
func WriteTidy(out io.Writer, dataset string, records []domain.TidyRecord) error {
	headers, err := TidyColumns(dataset)
	if err != nil {
		return err
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = TidyRow(dataset, r)
	}
	return writeRows(out, headers, rows)
}

// WriteComposite writes composite rows as CSV to out
func WriteComposite(out io.Writer, rows []domain.CompositeIndexRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = CompositeRow(r)
	}
	return writeRows(out, CompositeColumns, records)
}

// ExportTidy streams records to filePath
func (w *CSVWriter) ExportTidy(filePath, dataset string, records []domain.TidyRecord) error {
	headers, err := TidyColumns(dataset)
	if err != nil {
		return err
	}

	sw, err := w.CreateStreamWriter(filePath, headers)
	if err != nil {
		return err
	}
	for i, r := range records {
		if err := sw.WriteRecord(TidyRow(dataset, r)); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", sw.Path(), err)
	}

	w.logger.Info("Tidy records exported",
		slog.String("dataset", dataset),
		slog.String("file_path", sw.Path()),
		slog.Int("record_count", sw.Count()))
	return nil
}

// ExportComposite writes the composite index to filePath
func (w *CSVWriter) ExportComposite(filePath string, rows []domain.CompositeIndexRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = CompositeRow(r)
	}
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   CompositeColumns,
		Records:   records,
		BOMPrefix: true,
	})
}
