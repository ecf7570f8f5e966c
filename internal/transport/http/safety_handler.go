package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"ewscli/internal/dataprocessing"
	apierrors "ewscli/internal/errors"
	"ewscli/internal/exporter"
	ewsmw "ewscli/internal/middleware"
	"ewscli/internal/services"
	"ewscli/pkg/contracts/domain"
)

// SafetyHandler handles the safety export endpoints
type SafetyHandler struct {
	service      SafetyServiceInterface
	validator    *ewsmw.Validator
	query        *ewsmw.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// CompositeRequest is the body of POST /api/safety/composite
type CompositeRequest struct {
	Records []domain.TidyRecord `json:"records" validate:"required,min=1,dive"`
}

// CompositeResponse carries the computed index
type CompositeResponse struct {
	Composite []domain.CompositeIndexRow `json:"composite"`
	Count     int                        `json:"count"`
}

// NewSafetyHandler creates a new safety handler
func NewSafetyHandler(service SafetyServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SafetyHandler {
	return &SafetyHandler{
		service:      service,
		validator:    ewsmw.NewValidator(logger),
		query:        ewsmw.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "safety_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/safety routes
func (h *SafetyHandler) Routes() chi.Router {
	r := chi.NewRouter()

	upload := ewsmw.ContentTypeValidator(h.errorHandler, exportContentTypes...)
	r.With(upload).Post("/grade", h.Grade)
	r.With(upload).Post("/connectedness", h.Connectedness)

	r.With(ewsmw.ContentTypeValidator(h.errorHandler, "application/json")).Post("/composite", h.Composite)
	return r
}

// RunRoutes returns the /api/runs routes. Mount only when a store is configured.
func (h *SafetyHandler) RunRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListRuns)
	r.Route("/{runID}", func(r chi.Router) {
		r.Get("/", h.GetRun)
		r.Get("/composite", h.GetRunComposite)
	})
	return r
}

// Grade handles POST /api/safety/grade. The export may be text or a
// workbook; ?sheet= picks the worksheet of a workbook.
func (h *SafetyHandler) Grade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	exp, err := readExport(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer exp.body.Close()

	opts := h.service.GradeOptions(r.URL.Query().Get("years"), r.URL.Query().Get("level"))
	records, err := h.service.ParseGrade(ctx, exp.body, exp.format(r), opts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.respond(w, r, &services.Result{
		Dataset: dataprocessing.DatasetGrade,
		Source:  exp.name,
		Records: records,
	})
}

// Connectedness handles POST /api/safety/connectedness. The response
// carries the composite index alongside the tidy records.
func (h *SafetyHandler) Connectedness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	exp, err := readExport(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer exp.body.Close()

	records, err := h.service.ParseConnectedness(ctx, exp.body, exp.format(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.respond(w, r, &services.Result{
		Dataset:   dataprocessing.DatasetConnectedness,
		Source:    exp.name,
		Records:   records,
		Composite: h.service.Composite(ctx, records),
	})
}

// Composite handles POST /api/safety/composite
func (h *SafetyHandler) Composite(w http.ResponseWriter, r *http.Request) {
	var req CompositeRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows := h.service.Composite(r.Context(), req.Records)

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := exporter.WriteComposite(w, rows); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write composite csv", slog.String("error", err.Error()))
		}
		return
	}
	render.JSON(w, r, CompositeResponse{Composite: rows, Count: len(rows)})
}

// respond persists the result when ?persist=true and writes it as JSON or
// as the tidy CSV
func (h *SafetyHandler) respond(w http.ResponseWriter, r *http.Request, res *services.Result) {
	ctx := r.Context()

	if persist, _ := strconv.ParseBool(r.URL.Query().Get("persist")); persist {
		if !h.service.HasStore() {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("persist", "result store is not configured"))
			return
		}
		runID, err := h.service.Persist(ctx, res.Dataset, res.Source, res.Records, res.Composite)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		res.RunID = runID
	}

	h.logger.InfoContext(ctx, "export parsed",
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("dataset", res.Dataset),
		slog.String("source", res.Source),
		slog.Int("records", len(res.Records)),
		slog.String("run_id", res.RunID))

	if wantsCSV(r) {
		h.writeTidyCSV(ctx, w, res.Dataset, res.Records)
		return
	}
	render.JSON(w, r, res)
}

func (h *SafetyHandler) writeTidyCSV(ctx context.Context, w http.ResponseWriter, dataset string, records []domain.TidyRecord) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dataset+"_tidy.csv"))
	if err := exporter.WriteTidy(w, dataset, records); err != nil {
		h.logger.ErrorContext(ctx, "failed to write tidy csv", slog.String("error", err.Error()))
	}
}

// ListRuns handles GET /api/runs
func (h *SafetyHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, 500, 50)
	if !ok {
		return
	}

	runs, err := h.service.Runs(r.Context(), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/runs/{runID}. "latest" requires ?dataset=.
func (h *SafetyHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	if wantsCSV(r) {
		h.writeTidyCSV(r.Context(), w, detail.Run.Dataset, detail.Records)
		return
	}
	render.JSON(w, r, detail)
}

// GetRunComposite handles GET /api/runs/{runID}/composite
func (h *SafetyHandler) GetRunComposite(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := exporter.WriteComposite(w, detail.Composite); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write composite csv", slog.String("error", err.Error()))
		}
		return
	}
	render.JSON(w, r, CompositeResponse{Composite: detail.Composite, Count: len(detail.Composite)})
}

func (h *SafetyHandler) loadRun(w http.ResponseWriter, r *http.Request) (*services.RunDetail, bool) {
	runID := chi.URLParam(r, "runID")
	dataset := ""
	if runID == "latest" {
		var ok bool
		dataset, ok = h.query.ValidateEnum(w, r, "dataset",
			[]string{dataprocessing.DatasetGrade, dataprocessing.DatasetConnectedness}, dataprocessing.DatasetConnectedness)
		if !ok {
			return nil, false
		}
	}

	detail, err := h.service.Run(r.Context(), runID, dataset)
	if err != nil {
		if apierrors.IsType(err, apierrors.ErrTypeNotFound) {
			err = apierrors.ErrRunNotFound
		}
		h.errorHandler.HandleError(w, r, err)
		return nil, false
	}
	return detail, true
}
