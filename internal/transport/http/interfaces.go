package http

import (
	"context"
	"io"
	"math/rand/v2"

	"ewscli/internal/dataprocessing"
	"ewscli/internal/predictor"
	"ewscli/internal/services"
	"ewscli/internal/store"
	"ewscli/pkg/contracts/domain"
)

// SafetyServiceInterface defines the safety pipeline operations
type SafetyServiceInterface interface {
	HasStore() bool
	GradeOptions(years, level string) dataprocessing.GradeOptions
	ParseGrade(ctx context.Context, r io.Reader, format services.ExportFormat, opts dataprocessing.GradeOptions) ([]domain.TidyRecord, error)
	ParseConnectedness(ctx context.Context, r io.Reader, format services.ExportFormat) ([]domain.TidyRecord, error)
	Composite(ctx context.Context, records []domain.TidyRecord) []domain.CompositeIndexRow
	Persist(ctx context.Context, dataset, source string, records []domain.TidyRecord, rows []domain.CompositeIndexRow) (string, error)
	Runs(ctx context.Context, limit int) ([]store.Run, error)
	Run(ctx context.Context, runID, dataset string) (*services.RunDetail, error)
}

// PredictionServiceInterface defines the classifier operations
type PredictionServiceInterface interface {
	Groups() []predictor.Group
	Features() []services.FeatureDescriptor
	Defaults() map[string]float64
	Randomize(rng *rand.Rand) map[string]float64
	Predict(ctx context.Context, inputs map[string]float64) (domain.Prediction, error)
}
