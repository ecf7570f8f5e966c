package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"ewscli/internal/config"
	apierrors "ewscli/internal/errors"
	"ewscli/internal/infrastructure"
	ewsmw "ewscli/internal/middleware"
	"ewscli/internal/predictor"
	"ewscli/internal/services"
	"ewscli/internal/store"
	handlers "ewscli/internal/transport/http"
	"ewscli/pkg/contracts"
)

const (
	VERSION = contracts.Version
	AppName = "EWS School Climate"
)

// Application represents the main application container
type Application struct {
	Config            *config.Config
	Paths             *config.Paths
	Router            *chi.Mux
	Server            *http.Server
	Logger            *slog.Logger
	OTelProviders     *infrastructure.OTelProviders
	Metrics           *infrastructure.PipelineMetrics
	Store             *store.Store
	SafetyService     *services.SafetyService
	PredictionService *services.PredictionService
	HealthService     *services.HealthService
}

// NewApplication wires every component from cfg. The caller owns the
// returned application and must call Stop (or Run) to release the store
// and telemetry providers.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreatePipelineMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(ctx); err != nil {
		app.release(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices opens the store and builds the services
func (a *Application) initializeServices(ctx context.Context) error {
	var rs services.ResultStore
	var pinger services.Pinger
	if a.Config.Store.Enabled {
		st, err := OpenStore(ctx, a.Config.Store, a.Paths, a.Logger)
		if err != nil {
			return err
		}
		a.Store = st
		rs, pinger = st, st
	} else {
		a.Logger.Info("Result store disabled")
	}

	a.SafetyService = services.NewSafetyService(a.Config.Pipeline, a.Paths, rs, a.Metrics, a.Logger)

	if a.Config.Model.URL != "" {
		order := a.featureOrder()
		classifier := predictor.NewHTTPClassifier(a.Config.Model, a.Logger)
		a.PredictionService = services.NewPredictionService(classifier, order, nil, a.Metrics, a.Logger)
	} else {
		a.Logger.Warn("Model URL not configured, prediction endpoints disabled")
	}

	a.HealthService = services.NewHealthService(VERSION, contracts.BuildTime, a.Paths, pinger, a.Config.Model.URL, a.Logger)
	return nil
}

// featureOrder reads the model's feature order file. A missing or broken
// file falls back to the built-in order.
func (a *Application) featureOrder() []string {
	path := a.Paths.Resolve(a.Config.Model.FeaturesFile)
	order, err := predictor.LoadFeatureOrder(path)
	if err != nil {
		a.Logger.Warn("Feature order not loaded, using built-in order",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return predictor.AllFeatures()
	}
	return order
}

// OpenStore opens and migrates the result store. Relative sqlite DSNs
// resolve against the base directory.
func OpenStore(ctx context.Context, cfg config.StoreConfig, paths *config.Paths, logger *slog.Logger) (*store.Store, error) {
	if cfg.Driver == config.DriverSQLite {
		cfg.DSN = paths.Resolve(cfg.DSN)
	}
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// setupRouter builds the chi router. Middleware order: RequestID, RealIP,
// OTel, Logger, Recoverer, then the request guards.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	eh := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(ewsmw.RequestID)
	r.Use(ewsmw.RealIP)
	r.Use(ewsmw.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(ewsmw.StructuredLogger(a.Logger))
	r.Use(ewsmw.Recoverer(eh))
	r.Use(ewsmw.SecurityHeaders)
	r.Use(ewsmw.CORS(a.corsConfig()))

	if a.Config.Security.RateLimit.Enabled {
		r.Use(ewsmw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(eh.NotFound)
	r.MethodNotAllowed(eh.MethodNotAllowed)

	a.setupAPIRoutes(r, eh)

	// outside the request guards so scrapes never hit the rate limit or timeout
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, eh))

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, eh *apierrors.ErrorHandler) {
	r.Route("/api", func(r chi.Router) {
		r.Use(ewsmw.Timeout(a.Config.Server.WriteTimeout))
		r.Use(ewsmw.MaxBodySize(a.Config.Server.MaxUploadBytes))

		health := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Mount("/health", health.Routes())
		r.Get("/version", health.Version)

		safety := handlers.NewSafetyHandler(a.SafetyService, a.Logger, eh)
		r.Mount("/safety", safety.Routes())
		if a.SafetyService.HasStore() {
			r.Mount("/runs", safety.RunRoutes())
		}

		// a nil *PredictionService must reach the handler as a nil interface
		var predictions handlers.PredictionServiceInterface
		if a.PredictionService != nil {
			predictions = a.PredictionService
		}
		r.Mount("/predict", handlers.NewPredictionHandler(predictions, a.Logger, eh).Routes())
	})
}

func (a *Application) corsConfig() ewsmw.CORSConfig {
	origin := fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
	return ewsmw.CORSConfig{
		AllowedOrigins: []string{
			origin,
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
		},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. A listener failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.Bool("store_enabled", a.Store != nil),
		slog.Bool("model_enabled", a.PredictionService != nil))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}
	a.release(shutdownCtx)

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return shutdownErr
}

// release closes the store and flushes telemetry
func (a *Application) release(ctx context.Context) {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing store", slog.String("error", err.Error()))
		}
		a.Store = nil
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
		a.OTelProviders = nil
	}
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(context.Background(), "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
