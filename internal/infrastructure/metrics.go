package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the application metrics. A nil *PipelineMetrics
// is valid and records nothing.
type PipelineMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Pipeline metrics
	RecordsEmitted metric.Int64Counter
	RowsDropped    metric.Int64Counter
	ParseDuration  metric.Float64Histogram
	ExportsFailed  metric.Int64Counter

	// Predictor metrics
	PredictionsTotal   metric.Int64Counter
	PredictionDuration metric.Float64Histogram
	PredictionErrors   metric.Int64Counter
}

// CreatePipelineMetrics registers the application instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.RecordsEmitted, err = meter.Int64Counter(
		"pipeline_records_emitted_total",
		metric.WithDescription("Tidy or composite records produced"),
	); err != nil {
		return nil, err
	}
	if m.RowsDropped, err = meter.Int64Counter(
		"pipeline_rows_dropped_total",
		metric.WithDescription("Export rows that produced no record"),
	); err != nil {
		return nil, err
	}
	if m.ParseDuration, err = meter.Float64Histogram(
		"pipeline_parse_duration_seconds",
		metric.WithDescription("Time spent building records from one export"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.ExportsFailed, err = meter.Int64Counter(
		"pipeline_exports_failed_total",
		metric.WithDescription("Exports that could not be read or written"),
	); err != nil {
		return nil, err
	}

	if m.PredictionsTotal, err = meter.Int64Counter(
		"predictions_total",
		metric.WithDescription("Classifier predictions served"),
	); err != nil {
		return nil, err
	}
	if m.PredictionDuration, err = meter.Float64Histogram(
		"prediction_duration_seconds",
		metric.WithDescription("Classifier round-trip time"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if m.PredictionErrors, err = meter.Int64Counter(
		"prediction_errors_total",
		metric.WithDescription("Classifier calls that failed"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordParse records the outcome of one build pass
func (m *PipelineMetrics) RecordParse(ctx context.Context, dataset string, emitted, dropped int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("dataset", dataset))
	m.RecordsEmitted.Add(ctx, int64(emitted), attrs)
	m.RowsDropped.Add(ctx, int64(dropped), attrs)
	m.ParseDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordExportFailure counts an export that failed at an I/O edge
func (m *PipelineMetrics) RecordExportFailure(ctx context.Context, dataset, stage string) {
	if m == nil {
		return
	}
	m.ExportsFailed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("dataset", dataset),
		attribute.String("stage", stage),
	))
}

// RecordPrediction records one classifier call
func (m *PipelineMetrics) RecordPrediction(ctx context.Context, label string, d time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PredictionErrors.Add(ctx, 1)
		return
	}
	m.PredictionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("label", label)))
	m.PredictionDuration.Record(ctx, d.Seconds())
}

// RecordHTTPRequest records a finished HTTP request
func (m *PipelineMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// TrackActiveRequest adjusts the in-flight request gauge by delta
func (m *PipelineMetrics) TrackActiveRequest(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.HTTPActiveRequests.Add(ctx, delta)
}
