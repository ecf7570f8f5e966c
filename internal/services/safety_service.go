package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"ewscli/internal/config"
	"ewscli/internal/dataprocessing"
	apierrors "ewscli/internal/errors"
	"ewscli/internal/exporter"
	"ewscli/internal/files"
	"ewscli/internal/infrastructure"
	"ewscli/internal/store"
	"ewscli/pkg/contracts/domain"
)

// ResultStore persists pipeline runs. *store.Store implements it.
type ResultStore interface {
	SaveTidyRecords(ctx context.Context, dataset, source string, records []domain.TidyRecord) (string, error)
	SaveCompositeIndex(ctx context.Context, runID string, rows []domain.CompositeIndexRow) error
	Run(ctx context.Context, runID string) (store.Run, error)
	LatestRun(ctx context.Context, dataset string) (store.Run, error)
	Runs(ctx context.Context, limit int) ([]store.Run, error)
	TidyRecords(ctx context.Context, runID string) ([]domain.TidyRecord, error)
	CompositeIndex(ctx context.Context, runID string) ([]domain.CompositeIndexRow, error)
	Ping(ctx context.Context) error
}

// ProcessOptions controls a single export run
type ProcessOptions struct {
	// Dataset selects the builder; empty falls back to DefaultDataset of
	// the export kind
	Dataset string
	Grade   dataprocessing.GradeOptions
	Sheet   string
	// Export writes tidy and composite CSVs to the reports directory
	Export bool
	// Persist saves the run when a store is configured
	Persist bool
	// Pattern restricts batch runs to export names matching a glob
	Pattern string
}

// Result is the outcome of processing one export
type Result struct {
	Dataset       string                     `json:"dataset"`
	Source        string                     `json:"source"`
	Records       []domain.TidyRecord        `json:"records"`
	Composite     []domain.CompositeIndexRow `json:"composite,omitempty"`
	RunID         string                     `json:"run_id,omitempty"`
	TidyPath      string                     `json:"tidy_path,omitempty"`
	CompositePath string                     `json:"composite_path,omitempty"`
}

// ExportFormat selects the reader for an export body. Kind is one of the
// files kinds; Sheet only applies to workbooks and defaults to the first.
type ExportFormat struct {
	Kind  string
	Sheet string
}

// DefaultDataset is the dataset assumed for an export kind when none is
// named: text exports are grade-stratified, workbooks connectedness.
func DefaultDataset(kind string) string {
	if kind == files.KindWorkbook {
		return dataprocessing.DatasetConnectedness
	}
	return dataprocessing.DatasetGrade
}

// ValidDataset reports whether name is a dataset an export can be built as
func ValidDataset(name string) bool {
	return name == dataprocessing.DatasetGrade || name == dataprocessing.DatasetConnectedness
}

// SafetyService runs the safety export pipeline for the CLI and the API
type SafetyService struct {
	processor *dataprocessing.Processor
	writer    *exporter.CSVWriter
	paths     *config.Paths
	store     ResultStore
	metrics   *infrastructure.PipelineMetrics
	pipeline  config.PipelineConfig
	logger    *slog.Logger
}

// NewSafetyService creates the service. rs and metrics may be nil.
func NewSafetyService(cfg config.PipelineConfig, paths *config.Paths, rs ResultStore, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *SafetyService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	processor := dataprocessing.NewProcessor(logger, metrics).WithGradeOptions(dataprocessing.GradeOptions{
		Years:       cfg.Years,
		LevelFilter: cfg.LevelFilter,
	})

	return &SafetyService{
		processor: processor,
		writer:    exporter.NewCSVWriter(paths, logger),
		paths:     paths,
		store:     rs,
		metrics:   metrics,
		pipeline:  cfg,
		logger:    infrastructure.WithComponent(logger, "safety_service"),
	}
}

// HasStore reports whether runs can be persisted and queried
func (s *SafetyService) HasStore() bool {
	return s.store != nil
}

// GradeOptions fills blank labels from the pipeline configuration
func (s *SafetyService) GradeOptions(years, level string) dataprocessing.GradeOptions {
	if years == "" {
		years = s.pipeline.Years
	}
	if level == "" {
		level = s.pipeline.LevelFilter
	}
	return dataprocessing.GradeOptions{Years: years, LevelFilter: level}
}

// ParseGrade reads a grade-stratified export into tidy records
func (s *SafetyService) ParseGrade(ctx context.Context, r io.Reader, format ExportFormat, opts dataprocessing.GradeOptions) ([]domain.TidyRecord, error) {
	t, err := s.load(r, format)
	if err != nil {
		return nil, apierrors.NewParsingError("grade export", err)
	}
	return s.processor.WithGradeOptions(opts).GradeRecords(ctx, t), nil
}

// ParseConnectedness reads a connectedness-stratified export into tidy records
func (s *SafetyService) ParseConnectedness(ctx context.Context, r io.Reader, format ExportFormat) ([]domain.TidyRecord, error) {
	t, err := s.load(r, format)
	if err != nil {
		return nil, apierrors.NewParsingError("connectedness export", err)
	}
	return s.processor.ConnectednessRecords(ctx, t), nil
}

func (s *SafetyService) load(r io.Reader, format ExportFormat) (dataprocessing.Table, error) {
	switch format.Kind {
	case files.KindText:
		return dataprocessing.LoadCDEText(r, s.pipeline.Separator())
	case files.KindWorkbook:
		return dataprocessing.LoadExcel(r, format.Sheet)
	default:
		return dataprocessing.Table{}, fmt.Errorf("unsupported export kind %q", format.Kind)
	}
}

// Composite aggregates tidy records into the region-level index
func (s *SafetyService) Composite(ctx context.Context, records []domain.TidyRecord) []domain.CompositeIndexRow {
	return s.processor.Composite(ctx, records)
}

// ProcessFile runs the pipeline on one export on disk. The extension picks
// the reader and opts.Dataset the builder; connectedness runs also produce
// the composite index.
func (s *SafetyService) ProcessFile(ctx context.Context, path string, opts ProcessOptions) (*Result, error) {
	path = s.paths.Resolve(path)
	start := time.Now()

	kind := files.KindOf(path)
	if kind == "" {
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("unsupported export %s", filepath.Base(path)))
	}
	dataset := opts.Dataset
	if dataset == "" {
		dataset = DefaultDataset(kind)
	}
	if !ValidDataset(dataset) {
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("unknown dataset %q", dataset))
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.NewNotFoundError("export")
		}
		return nil, apierrors.NewParsingError("open export", err)
	}
	defer f.Close()

	res := &Result{Dataset: dataset, Source: filepath.Base(path)}
	format := ExportFormat{Kind: kind, Sheet: opts.Sheet}
	switch dataset {
	case dataprocessing.DatasetGrade:
		if res.Records, err = s.ParseGrade(ctx, f, format, opts.Grade); err != nil {
			return nil, err
		}
	case dataprocessing.DatasetConnectedness:
		if res.Records, err = s.ParseConnectedness(ctx, f, format); err != nil {
			return nil, err
		}
		res.Composite = s.Composite(ctx, res.Records)
	}

	if opts.Export {
		if err := s.export(ctx, res); err != nil {
			return nil, err
		}
	}
	if opts.Persist && s.store != nil {
		if res.RunID, err = s.Persist(ctx, res.Dataset, res.Source, res.Records, res.Composite); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "Export processed",
		slog.String("dataset", res.Dataset),
		slog.String("source", res.Source),
		slog.Int("records", len(res.Records)),
		slog.Int("regions", len(res.Composite)),
		slog.String("run_id", res.RunID),
		slog.Duration("duration", time.Since(start)))
	return res, nil
}

// ProcessBatch processes every export in dir (or those matching
// opts.Pattern) with up to Workers files in flight. Results keep the
// directory order; the first failure cancels the remaining files.
func (s *SafetyService) ProcessBatch(ctx context.Context, dir string, opts ProcessOptions) ([]*Result, error) {
	discovery := files.NewDiscovery(s.paths.BaseDir)
	var exports []files.FileInfo
	var err error
	if opts.Pattern != "" {
		exports, err = discovery.FindExportsByPattern(dir, opts.Pattern)
	} else {
		exports, err = discovery.FindExports(dir)
	}
	if err != nil {
		return nil, apierrors.NewParsingError("discover exports", err)
	}
	if len(exports) == 0 {
		s.logger.WarnContext(ctx, "No exports found", slog.String("dir", dir))
		return nil, nil
	}

	results := make([]*Result, len(exports))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.pipeline.Workers)
	for i, e := range exports {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.ProcessFile(gctx, e.Path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", e.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Batch completed",
		slog.String("dir", dir),
		slog.Int("files", len(results)),
		slog.Int("workers", s.pipeline.Workers))
	return results, nil
}

// Persist saves tidy records and, when present, the composite index as one run
func (s *SafetyService) Persist(ctx context.Context, dataset, source string, records []domain.TidyRecord, rows []domain.CompositeIndexRow) (string, error) {
	if s.store == nil {
		return "", apierrors.NewConfigError("result store is not configured", nil)
	}
	runID, err := s.store.SaveTidyRecords(ctx, dataset, source, records)
	if err != nil {
		s.metrics.RecordExportFailure(ctx, dataset, "store")
		return "", err
	}
	if len(rows) > 0 {
		if err := s.store.SaveCompositeIndex(ctx, runID, rows); err != nil {
			s.metrics.RecordExportFailure(ctx, dataset, "store")
			return "", err
		}
	}
	return runID, nil
}

func (s *SafetyService) export(ctx context.Context, res *Result) error {
	res.TidyPath = s.paths.TidyCSVPath(res.Dataset, res.Source)
	if err := s.writer.ExportTidy(res.TidyPath, res.Dataset, res.Records); err != nil {
		s.metrics.RecordExportFailure(ctx, res.Dataset, "csv")
		return apierrors.NewStorageError("export tidy csv", err)
	}
	if len(res.Composite) == 0 {
		return nil
	}
	res.CompositePath = s.paths.CompositeCSVPath(res.Source)
	if err := s.writer.ExportComposite(res.CompositePath, res.Composite); err != nil {
		s.metrics.RecordExportFailure(ctx, dataprocessing.DatasetComposite, "csv")
		return apierrors.NewStorageError("export composite csv", err)
	}
	return nil
}

// Runs lists persisted runs, newest first
func (s *SafetyService) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if s.store == nil {
		return nil, apierrors.NewConfigError("result store is not configured", nil)
	}
	return s.store.Runs(ctx, limit)
}

// RunDetail is a persisted run with its records
type RunDetail struct {
	Run       store.Run                  `json:"run"`
	Records   []domain.TidyRecord        `json:"records"`
	Composite []domain.CompositeIndexRow `json:"composite,omitempty"`
}

// Run loads one persisted run. "latest" is accepted together with a dataset.
func (s *SafetyService) Run(ctx context.Context, runID, dataset string) (*RunDetail, error) {
	if s.store == nil {
		return nil, apierrors.NewConfigError("result store is not configured", nil)
	}

	var run store.Run
	var err error
	if runID == "latest" {
		run, err = s.store.LatestRun(ctx, dataset)
	} else {
		run, err = s.store.Run(ctx, runID)
	}
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{Run: run}
	if detail.Records, err = s.store.TidyRecords(ctx, run.ID); err != nil {
		return nil, err
	}
	if detail.Composite, err = s.store.CompositeIndex(ctx, run.ID); err != nil {
		return nil, err
	}
	return detail, nil
}
