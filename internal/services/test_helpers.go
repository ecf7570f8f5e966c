package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ewscli/internal/store"
	"ewscli/pkg/contracts/domain"
)

// MockClassifier is a mock for predictor.Classifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Predict(ctx context.Context, row domain.FeatureRow) (int, error) {
	args := m.Called(ctx, row)
	return args.Int(0), args.Error(1)
}

func (m *MockClassifier) PredictProba(ctx context.Context, row domain.FeatureRow) ([2]float64, error) {
	args := m.Called(ctx, row)
	return args.Get(0).([2]float64), args.Error(1)
}

// MockResultStore is a mock for ResultStore
type MockResultStore struct {
	mock.Mock
}

func (m *MockResultStore) SaveTidyRecords(ctx context.Context, dataset, source string, records []domain.TidyRecord) (string, error) {
	args := m.Called(ctx, dataset, source, records)
	return args.String(0), args.Error(1)
}

func (m *MockResultStore) SaveCompositeIndex(ctx context.Context, runID string, rows []domain.CompositeIndexRow) error {
	return m.Called(ctx, runID, rows).Error(0)
}

func (m *MockResultStore) Run(ctx context.Context, runID string) (store.Run, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).(store.Run), args.Error(1)
}

func (m *MockResultStore) LatestRun(ctx context.Context, dataset string) (store.Run, error) {
	args := m.Called(ctx, dataset)
	return args.Get(0).(store.Run), args.Error(1)
}

func (m *MockResultStore) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]store.Run), args.Error(1)
}

func (m *MockResultStore) TidyRecords(ctx context.Context, runID string) ([]domain.TidyRecord, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).([]domain.TidyRecord), args.Error(1)
}

func (m *MockResultStore) CompositeIndex(ctx context.Context, runID string) ([]domain.CompositeIndexRow, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).([]domain.CompositeIndexRow), args.Error(1)
}

func (m *MockResultStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
