package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"ewscli/internal/config"
	apierrors "ewscli/internal/errors"
	"ewscli/internal/infrastructure"
	"ewscli/pkg/contracts/domain"
)

// Classifier is the pre-trained model. Implementations must treat the
// row's names as the column order the model was trained with.
type Classifier interface {
	Predict(ctx context.Context, row domain.FeatureRow) (int, error)
	PredictProba(ctx context.Context, row domain.FeatureRow) ([2]float64, error)
}

// modelRequest is the wire body of both model endpoints
type modelRequest struct {
	FeatureNames []string    `json:"feature_names"`
	Rows         [][]float64 `json:"rows"`
}

type predictResponse struct {
	Predictions []int `json:"predictions"`
}

type probaResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

// HTTPClassifier calls a model server exposing POST /predict and
// POST /predict_proba
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHTTPClassifier creates a client for the model server in cfg
func NewHTTPClassifier(cfg config.ModelConfig, logger *slog.Logger) *HTTPClassifier {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	rps := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		rps = rate.Inf
	}
	burst := int(cfg.RPS)
	if burst < 1 {
		burst = 1
	}

	return &HTTPClassifier{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rps, burst),
		logger:  infrastructure.WithComponent(logger, "classifier"),
		tracer:  otel.Tracer("ewscli/predictor"),
	}
}

// Predict returns the class label of row
func (c *HTTPClassifier) Predict(ctx context.Context, row domain.FeatureRow) (int, error) {
	var resp predictResponse
	if err := c.call(ctx, "/predict", row, &resp); err != nil {
		return 0, err
	}
	if len(resp.Predictions) != 1 {
		return 0, apierrors.NewModelError("predict", fmt.Errorf("expected 1 prediction, got %d", len(resp.Predictions)))
	}
	return resp.Predictions[0], nil
}

// PredictProba returns [p(class 0), p(class 1)] for row
func (c *HTTPClassifier) PredictProba(ctx context.Context, row domain.FeatureRow) ([2]float64, error) {
	var resp probaResponse
	if err := c.call(ctx, "/predict_proba", row, &resp); err != nil {
		return [2]float64{}, err
	}
	if len(resp.Probabilities) != 1 || len(resp.Probabilities[0]) != 2 {
		return [2]float64{}, apierrors.NewModelError("predict_proba", fmt.Errorf("expected one pair of probabilities"))
	}
	return [2]float64{resp.Probabilities[0][0], resp.Probabilities[0][1]}, nil
}

func (c *HTTPClassifier) call(ctx context.Context, endpoint string, row domain.FeatureRow, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "classifier"+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("features", len(row.Names))))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return apierrors.NewModelError("rate limit wait", err)
	}

	body, err := json.Marshal(modelRequest{FeatureNames: row.Names, Rows: [][]float64{row.Values}})
	if err != nil {
		return apierrors.NewModelError("encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return apierrors.NewModelError("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		req.Header.Set("X-Request-ID", traceID)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return apierrors.NewModelError("call "+endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.WarnContext(ctx, "classifier returned an error",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("body", strings.TrimSpace(string(snippet))))
		return apierrors.NewModelError("call "+endpoint, fmt.Errorf("status %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierrors.NewModelError("decode "+endpoint, err)
	}

	c.logger.DebugContext(ctx, "classifier call completed",
		slog.String("endpoint", endpoint),
		slog.Duration("duration", time.Since(start)))
	return nil
}
