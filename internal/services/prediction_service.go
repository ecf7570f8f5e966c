package services

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"ewscli/internal/infrastructure"
	"ewscli/internal/predictor"
	"ewscli/pkg/contracts/domain"
)

// FeatureDescriptor describes one model input for clients building sliders
type FeatureDescriptor struct {
	Name        string  `json:"name"`
	Group       string  `json:"group"`
	Label       string  `json:"label"`
	DisplayName string  `json:"display_name"`
	Description string  `json:"description"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Default     float64 `json:"default"`
	Step        float64 `json:"step"`
	Integer     bool    `json:"integer"`
}

// PredictionService builds feature rows and asks the classifier for a risk
// label
type PredictionService struct {
	classifier predictor.Classifier
	order      []string
	settings   predictor.Settings
	metrics    *infrastructure.PipelineMetrics
	logger     *slog.Logger
}

// NewPredictionService creates the service. order is filtered to the
// features that have a setting; an empty order falls back to the ABC(S)
// groups.
func NewPredictionService(classifier predictor.Classifier, order []string, settings predictor.Settings, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *PredictionService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if settings == nil {
		settings = predictor.DefaultSettings()
	}
	ordered := predictor.OrderedFeatures(order, settings)
	if len(ordered) == 0 {
		ordered = predictor.OrderedFeatures(predictor.AllFeatures(), settings)
	}

	return &PredictionService{
		classifier: classifier,
		order:      ordered,
		settings:   settings,
		metrics:    metrics,
		logger:     infrastructure.WithComponent(logger, "prediction_service"),
	}
}

// FeatureOrder returns the model's input order
func (s *PredictionService) FeatureOrder() []string {
	return append([]string(nil), s.order...)
}

// Groups returns the ABC(S) groups
func (s *PredictionService) Groups() []predictor.Group {
	return predictor.Groups()
}

// Features describes every model input in order
func (s *PredictionService) Features() []FeatureDescriptor {
	out := make([]FeatureDescriptor, 0, len(s.order))
	for _, name := range s.order {
		setting := s.settings[name]
		out = append(out, FeatureDescriptor{
			Name:        name,
			Group:       predictor.GroupOf(name),
			Label:       setting.Label,
			DisplayName: predictor.PrettyName(name),
			Description: setting.Description,
			Min:         setting.Min,
			Max:         setting.Max,
			Default:     setting.Default,
			Step:        setting.Step(),
			Integer:     setting.Integer,
		})
	}
	return out
}

// Defaults returns the default input of every feature
func (s *PredictionService) Defaults() map[string]float64 {
	return predictor.Defaults(s.order, s.settings)
}

// Randomize draws random inputs for every feature. A nil rng is seeded
// randomly.
func (s *PredictionService) Randomize(rng *rand.Rand) map[string]float64 {
	return predictor.Randomize(s.order, s.settings, rng)
}

// Predict classifies one set of inputs. Absent inputs take their default;
// unknown names are a validation error.
func (s *PredictionService) Predict(ctx context.Context, inputs map[string]float64) (domain.Prediction, error) {
	start := time.Now()

	row, err := predictor.BuildFeatureRow(inputs, s.order, s.settings)
	if err != nil {
		return domain.Prediction{}, err
	}

	class, err := s.classifier.Predict(ctx, row)
	if err != nil {
		s.fail(ctx, start, err)
		return domain.Prediction{}, err
	}
	proba, err := s.classifier.PredictProba(ctx, row)
	if err != nil {
		s.fail(ctx, start, err)
		return domain.Prediction{}, err
	}

	prediction := predictor.NewPrediction(class, proba, row)
	elapsed := time.Since(start)
	s.metrics.RecordPrediction(ctx, prediction.Label, elapsed, nil)
	s.logger.InfoContext(ctx, "Prediction completed",
		slog.String("label", prediction.Label),
		slog.Float64("risk_percent", prediction.RiskPercent),
		slog.Int("features", len(row.Names)),
		slog.Duration("duration", elapsed))
	return prediction, nil
}

func (s *PredictionService) fail(ctx context.Context, start time.Time, err error) {
	elapsed := time.Since(start)
	s.metrics.RecordPrediction(ctx, "", elapsed, err)
	s.logger.ErrorContext(ctx, "Prediction failed",
		slog.String("error", err.Error()),
		slog.Duration("duration", elapsed))
}
