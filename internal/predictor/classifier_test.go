package predictor

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ewscli/internal/config"
	apierrors "ewscli/internal/errors"
	"ewscli/internal/shared/testutil"
	"ewscli/pkg/contracts/domain"
)

func newModelServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testRow() domain.FeatureRow {
	return domain.FeatureRow{
		Names:  []string{"cohortstudents", "stu_tch_ratio"},
		Values: []float64{400, 22},
	}
}

func TestHTTPClassifier_Success(t *testing.T) {
	var got modelRequest
	srv := newModelServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/predict":
			w.Write([]byte(`{"predictions":[1]}`))
		case "/predict_proba":
			w.Write([]byte(`{"probabilities":[[0.3,0.7]]}`))
		default:
			http.NotFound(w, r)
		}
	})

	c := NewHTTPClassifier(config.ModelConfig{URL: srv.URL + "/", Timeout: time.Second}, nil)

	class, err := c.Predict(context.Background(), testRow())
	require.NoError(t, err)
	assert.Equal(t, 1, class)
	assert.Equal(t, []string{"cohortstudents", "stu_tch_ratio"}, got.FeatureNames)
	assert.Equal(t, [][]float64{{400, 22}}, got.Rows)

	proba, err := c.PredictProba(context.Background(), testRow())
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.3, 0.7}, proba)
}

func TestHTTPClassifier_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"predictions":`))
			},
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"predictions":[],"probabilities":[[1]]}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newModelServer(t, tt.handler)
			c := NewHTTPClassifier(config.ModelConfig{URL: srv.URL, Timeout: time.Second}, nil)

			_, err := c.Predict(context.Background(), testRow())
			assert.True(t, apierrors.IsType(err, apierrors.ErrTypeModel), "got %v", err)

			_, err = c.PredictProba(context.Background(), testRow())
			assert.True(t, apierrors.IsType(err, apierrors.ErrTypeModel), "got %v", err)
		})
	}
}

func TestHTTPClassifier_LogsErrorStatus(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	srv := newModelServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	c := NewHTTPClassifier(config.ModelConfig{URL: srv.URL, Timeout: time.Second}, logger)
	_, err := c.Predict(context.Background(), testRow())
	require.Error(t, err)

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "classifier returned an error")
	rec, ok := handler.FindRecord("classifier returned an error")
	require.True(t, ok)
	status, _ := rec.Int("status")
	assert.Equal(t, int64(http.StatusServiceUnavailable), status)
	assert.Equal(t, "classifier", rec.Attrs["component"])
}

func TestHTTPClassifier_ContextCanceled(t *testing.T) {
	srv := newModelServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions":[0]}`))
	})
	c := NewHTTPClassifier(config.ModelConfig{URL: srv.URL, Timeout: time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Predict(ctx, testRow())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPClassifier_Unreachable(t *testing.T) {
	c := NewHTTPClassifier(config.ModelConfig{URL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond}, nil)

	_, err := c.Predict(context.Background(), testRow())
	assert.True(t, apierrors.IsType(err, apierrors.ErrTypeModel))
}
