package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ewscli/internal/config"
	apierrors "ewscli/internal/errors"
	"ewscli/internal/services"
	"ewscli/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	paths := config.NewPaths(t.TempDir(), config.PathsConfig{})
	require.NoError(t, os.MkdirAll(paths.ReportsDir, 0o755))

	hs := services.NewHealthService("v1.0.0-test", "", paths, nil, "", logger)
	h := NewHealthHandler(hs, logger)
	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	r.Get("/api/version", h.Version)

	tests := []struct {
		name       string
		endpoint   string
		wantStatus string
	}{
		{"health", "/api/health", "ok"},
		{"ready", "/api/health/ready", "ready"},
		{"live", "/api/health/live", "alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, tt.endpoint, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var status services.HealthStatus
			decode(t, rec, &status)
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "v1.0.0-test", status.Version)
		})
	}

	rec := do(t, r, http.MethodGet, "/api/version", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "v1.0.0-test")
}

func TestHealthHandler_NotReady(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	paths := config.NewPaths(t.TempDir(), config.PathsConfig{})

	h := NewHealthHandler(services.NewHealthService("dev", "", paths, nil, "", logger), logger)
	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	eh := apierrors.NewErrorHandler(logger, false)

	disabled := NewMetricsHandler(nil, eh)
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	enabled := NewMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# HELP up\n"))
	}), eh)
	rec = httptest.NewRecorder()
	enabled.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP up")
}
