package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "ewscli/internal/errors"
	ewsmw "ewscli/internal/middleware"
	"ewscli/internal/predictor"
	"ewscli/internal/services"
)

// PredictionHandler handles the classifier endpoints
type PredictionHandler struct {
	service      PredictionServiceInterface
	validator    *ewsmw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// PredictRequest is the body of POST /api/predict. Absent features take
// their default value.
type PredictRequest struct {
	Inputs map[string]float64 `json:"inputs"`
}

// FeaturesResponse lists the model inputs and their groups
type FeaturesResponse struct {
	Groups   []predictor.Group            `json:"groups"`
	Features []services.FeatureDescriptor `json:"features"`
	Defaults map[string]float64           `json:"defaults"`
}

// NewPredictionHandler creates a new prediction handler. service may be nil
// when no classifier is configured; every route then answers 502.
func NewPredictionHandler(service PredictionServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PredictionHandler {
	return &PredictionHandler{
		service:      service,
		validator:    ewsmw.NewValidator(logger),
		logger:       logger.With(slog.String("component", "prediction_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/predict routes
func (h *PredictionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(h.requireService)

	r.Get("/features", h.Features)
	r.With(ewsmw.ContentTypeValidator(h.errorHandler, "application/json")).Post("/", h.Predict)
	r.Post("/randomize", h.Randomize)
	return r
}

func (h *PredictionHandler) requireService(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.service == nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrModelUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Features handles GET /api/predict/features
func (h *PredictionHandler) Features(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, FeaturesResponse{
		Groups:   h.service.Groups(),
		Features: h.service.Features(),
		Defaults: h.service.Defaults(),
	})
}

// Predict handles POST /api/predict
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	prediction, err := h.service.Predict(r.Context(), req.Inputs)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, prediction)
}

// Randomize handles POST /api/predict/randomize
func (h *PredictionHandler) Randomize(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"inputs": h.service.Randomize(nil),
	})
}
