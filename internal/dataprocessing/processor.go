package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ewscli/internal/infrastructure"
	"ewscli/pkg/contracts/domain"
)

// Dataset names used in logs, metrics and the store
const (
	DatasetGrade         = "grade"
	DatasetConnectedness = "connectedness"
	DatasetComposite     = "composite"
)

// Processor runs the pure builders with logging, tracing and metrics
// around them. The builders never log per row; one summary is emitted
// per pass.
type Processor struct {
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
	tracer  trace.Tracer
	grade   GradeOptions
}

// NewProcessor creates a processor. metrics may be nil.
func NewProcessor(logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Processor {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Processor{
		logger:  infrastructure.WithComponent(logger, "dataprocessing"),
		metrics: metrics,
		tracer:  otel.Tracer("ewscli/dataprocessing"),
		grade:   DefaultGradeOptions(),
	}
}

// WithGradeOptions overrides the labels attached to grade records
func (p *Processor) WithGradeOptions(opts GradeOptions) *Processor {
	cp := *p
	if opts.Years == "" {
		opts.Years = DefaultYears
	}
	if opts.LevelFilter == "" {
		opts.LevelFilter = DefaultLevelFilter
	}
	cp.grade = opts
	return &cp
}

// GradeRecords builds tidy records from a grade-stratified export. The
// header row is scanned too since these exports carry no column labels.
func (p *Processor) GradeRecords(ctx context.Context, t Table) []domain.TidyRecord {
	ctx, span := p.tracer.Start(ctx, "dataprocessing.GradeRecords")
	defer span.End()

	start := time.Now()
	records, stats := BuildGradeRecordsWithStats(t.Lines(), p.grade)
	p.summarize(ctx, span, DatasetGrade, stats, time.Since(start))
	return records
}

// ConnectednessRecords builds tidy records from a connectedness export
func (p *Processor) ConnectednessRecords(ctx context.Context, t Table) []domain.TidyRecord {
	ctx, span := p.tracer.Start(ctx, "dataprocessing.ConnectednessRecords")
	defer span.End()

	start := time.Now()
	records, stats := BuildConnectednessRecordsWithStats(t)
	p.summarize(ctx, span, DatasetConnectedness, stats, time.Since(start))
	return records
}

// Composite aggregates tidy records into the region-level index
func (p *Processor) Composite(ctx context.Context, records []domain.TidyRecord) []domain.CompositeIndexRow {
	ctx, span := p.tracer.Start(ctx, "dataprocessing.Composite")
	defer span.End()

	start := time.Now()
	rows := Aggregate(records)
	elapsed := time.Since(start)

	missing := 0
	for _, r := range rows {
		if r.ClimateIndex.IsMissing() {
			missing++
		}
	}
	span.SetAttributes(
		attribute.Int("records.in", len(records)),
		attribute.Int("regions", len(rows)),
	)
	p.metrics.RecordParse(ctx, DatasetComposite, len(rows), 0, elapsed)
	p.logger.InfoContext(ctx, "Composite index computed",
		slog.Int("records", len(records)),
		slog.Int("regions", len(rows)),
		slog.Int("missing_climate_index", missing),
		slog.Duration("duration", elapsed))
	return rows
}

func (p *Processor) summarize(ctx context.Context, span trace.Span, dataset string, stats ScanStatistics, elapsed time.Duration) {
	span.SetAttributes(
		attribute.String("dataset", dataset),
		attribute.Int("rows.scanned", stats.RowsScanned),
		attribute.Int("regions", stats.RegionHeaders),
		attribute.Int("records.emitted", stats.RecordsEmitted),
		attribute.Int("rows.dropped", stats.Dropped()),
	)
	p.metrics.RecordParse(ctx, dataset, stats.RecordsEmitted, stats.Dropped(), elapsed)

	level := slog.LevelInfo
	if stats.RecordsEmitted == 0 {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, "Export parsed",
		slog.String("dataset", dataset),
		slog.Int("rows_scanned", stats.RowsScanned),
		slog.Int("region_headers", stats.RegionHeaders),
		slog.Int("records_emitted", stats.RecordsEmitted),
		slog.Int("dangling_rows", stats.DanglingRows),
		slog.Int("ignored_rows", stats.IgnoredRows),
		slog.Duration("duration", elapsed))
}

// PrepareSchoolTable snake-cases the header of a school-level export and
// adds the cdscode column when the code parts are present
func (p *Processor) PrepareSchoolTable(ctx context.Context, t Table) Table {
	t.Header = SnakeCaseColumns(t.Header)
	out, missing := EnsureCDSCode(t)
	if len(missing) > 0 {
		p.logger.WarnContext(ctx, "cdscode not built",
			slog.String("reason", describeMissing(missing)),
			slog.Int("rows", len(t.Rows)))
	}
	return out
}
