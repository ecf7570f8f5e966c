package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ewscli/internal/config"
	"ewscli/internal/dataprocessing"
	apierrors "ewscli/internal/errors"
	"ewscli/internal/services"
	"ewscli/internal/shared/testutil"
	"ewscli/internal/store"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func newSafetyRouter(t *testing.T, withStore bool) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	paths := config.NewPaths(t.TempDir(), config.PathsConfig{})

	var rs services.ResultStore
	if withStore {
		st, err := store.Open(context.Background(), config.StoreConfig{
			Driver: config.DriverSQLite,
			DSN:    filepath.Join(t.TempDir(), "ews.db"),
		}, logger)
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		require.NoError(t, st.Migrate(context.Background()))
		rs = st
	}

	svc := services.NewSafetyService(config.PipelineConfig{Workers: 1}, paths, rs, nil, logger)
	eh := apierrors.NewErrorHandler(logger, false)
	h := NewSafetyHandler(svc, logger, eh)

	r := chi.NewRouter()
	r.NotFound(eh.NotFound)
	r.Mount("/api/safety", h.Routes())
	if withStore {
		r.Mount("/api/runs", h.RunRoutes())
	}
	return r
}

func do(t *testing.T, h http.Handler, method, target, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func multipartBody(t *testing.T, filename string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func TestSafetyHandler_Grade(t *testing.T) {
	router := newSafetyRouter(t, false)
	body := testutil.Latin1(t, testutil.GradeExportText())

	rec := do(t, router, http.MethodPost, "/api/safety/grade?years=2019-2021&level=High", "text/plain", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res services.Result
	decode(t, rec, &res)
	assert.Equal(t, dataprocessing.DatasetGrade, res.Dataset)
	assert.Equal(t, "upload.txt", res.Source)
	require.Len(t, res.Records, 4)
	assert.Equal(t, "2019-2021", res.Records[0].Years)
	assert.Equal(t, "High", res.Records[0].LevelFilter)
	assert.Empty(t, res.Composite)
}

func TestSafetyHandler_GradeCSV(t *testing.T) {
	router := newSafetyRouter(t, false)
	body := testutil.Latin1(t, testutil.GradeExportText())

	rec := do(t, router, http.MethodPost, "/api/safety/grade?format=csv", "text/plain", body)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "region,geography,region_type,grade"))
}

func TestSafetyHandler_GradeMultipart(t *testing.T) {
	router := newSafetyRouter(t, false)

	body, ct := multipartBody(t, "Safety 2019.txt", testutil.Latin1(t, testutil.GradeExportText()))
	rec := do(t, router, http.MethodPost, "/api/safety/grade", ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res services.Result
	decode(t, rec, &res)
	assert.Equal(t, "Safety 2019.txt", res.Source)
	assert.Len(t, res.Records, 4)
}

func TestSafetyHandler_Connectedness(t *testing.T) {
	router := newSafetyRouter(t, true)

	rec := do(t, router, http.MethodPost, "/api/safety/connectedness?persist=true", xlsxType, testutil.ConnectednessWorkbookBytes(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res services.Result
	decode(t, rec, &res)
	assert.Equal(t, dataprocessing.DatasetConnectedness, res.Dataset)
	assert.Len(t, res.Records, 6)
	require.Len(t, res.Composite, 2)
	assert.Equal(t, "California", res.Composite[0].Region)
	require.NotEmpty(t, res.RunID)

	rec = do(t, router, http.MethodGet, "/api/runs/"+res.RunID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var detail services.RunDetail
	decode(t, rec, &detail)
	assert.Equal(t, res.RunID, detail.Run.ID)
	assert.Len(t, detail.Records, 6)

	rec = do(t, router, http.MethodGet, "/api/runs/latest/composite?dataset=connectedness", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var comp CompositeResponse
	decode(t, rec, &comp)
	assert.Equal(t, 2, comp.Count)

	rec = do(t, router, http.MethodGet, "/api/runs/"+res.RunID+"/composite?format=csv", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "region,avg_safety_score")

	rec = do(t, router, http.MethodGet, "/api/runs?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Count)
}

func TestSafetyHandler_Composite(t *testing.T) {
	router := newSafetyRouter(t, false)

	body := `{"records":[
		{"region":"Fresno","region_type":"County","stratum":"High",
		 "metrics":{"very_safe_pct":40,"safe_pct":30,"neither_pct":15,"unsafe_pct":10,"very_unsafe_pct":5}},
		{"region":"Fresno","region_type":"County","stratum":"Low",
		 "metrics":{"very_safe_pct":10,"safe_pct":20,"neither_pct":30,"unsafe_pct":25,"very_unsafe_pct":15}}
	]}`
	rec := do(t, router, http.MethodPost, "/api/safety/composite", "application/json", []byte(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res CompositeResponse
	decode(t, rec, &res)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "Fresno", res.Composite[0].Region)
	assert.InDelta(t, 0.5, res.Composite[0].HighConnShare, 1e-9)
}

func TestSafetyHandler_Errors(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		contentType string
		body        []byte
		wantStatus  int
		wantCode    string
	}{
		{"missing content type", "/api/safety/grade", "", []byte("x"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"wrong content type", "/api/safety/connectedness", "application/json", []byte("{}"), http.StatusUnsupportedMediaType, "UNSUPPORTED_EXPORT"},
		{"unreadable workbook", "/api/safety/connectedness", xlsxType, []byte("not a workbook"), http.StatusUnprocessableEntity, ""},
		{"empty composite body", "/api/safety/composite", "application/json", nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"no records", "/api/safety/composite", "application/json", []byte(`{"records":[]}`), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad region type", "/api/safety/composite", "application/json",
			[]byte(`{"records":[{"region":"X","region_type":"City","stratum":"High"}]}`), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"blank region", "/api/safety/composite", "application/json",
			[]byte(`{"records":[{"region":"  ","region_type":"County","stratum":"High"}]}`), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"percent out of range", "/api/safety/composite", "application/json",
			[]byte(`{"records":[{"region":"Fresno","region_type":"County","stratum":"High","metrics":{"safe_pct":140}}]}`), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"persist without store", "/api/safety/grade?persist=true", "text/plain", []byte("a\n"), http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	router := newSafetyRouter(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.target, tt.contentType, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "json")

			var problem map[string]interface{}
			decode(t, rec, &problem)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, problem["error_code"])
			}
		})
	}
}

func TestSafetyHandler_MultipartUnsupportedExtension(t *testing.T) {
	router := newSafetyRouter(t, false)

	body, ct := multipartBody(t, "report.pdf", []byte("%PDF"))
	rec := do(t, router, http.MethodPost, "/api/safety/grade", ct, body)
	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	var problem map[string]interface{}
	decode(t, rec, &problem)
	assert.Equal(t, "UNSUPPORTED_EXPORT", problem["error_code"])
}

func TestSafetyHandler_DatasetFollowsRoute(t *testing.T) {
	gradeWorkbook := testutil.GradeWorkbookBytes(t)
	connText := testutil.Latin1(t, testutil.ConnectednessExportText())

	tests := []struct {
		name          string
		target        string
		contentType   string
		filename      string
		body          []byte
		wantDataset   string
		wantSource    string
		wantRecords   int
		wantComposite int
	}{
		{"grade workbook", "/api/safety/grade", xlsxType, "", gradeWorkbook,
			dataprocessing.DatasetGrade, "upload.xlsx", 4, 0},
		{"grade workbook as octet-stream", "/api/safety/grade", "application/octet-stream", "", gradeWorkbook,
			dataprocessing.DatasetGrade, "upload.xlsx", 4, 0},
		{"grade workbook multipart", "/api/safety/grade", "", "Grade.xlsx", gradeWorkbook,
			dataprocessing.DatasetGrade, "Grade.xlsx", 4, 0},
		{"connectedness text", "/api/safety/connectedness", "text/tab-separated-values", "", connText,
			dataprocessing.DatasetConnectedness, "upload.txt", 6, 2},
		{"connectedness text multipart", "/api/safety/connectedness", "", "Conn.txt", connText,
			dataprocessing.DatasetConnectedness, "Conn.txt", 6, 2},
		{"connectedness workbook as octet-stream", "/api/safety/connectedness", "application/octet-stream", "",
			testutil.ConnectednessWorkbookBytes(t), dataprocessing.DatasetConnectedness, "upload.xlsx", 6, 2},
	}

	router := newSafetyRouter(t, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := tt.body, tt.contentType
			if tt.filename != "" {
				body, ct = multipartBody(t, tt.filename, tt.body)
			}
			rec := do(t, router, http.MethodPost, tt.target, ct, body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var res services.Result
			decode(t, rec, &res)
			assert.Equal(t, tt.wantDataset, res.Dataset)
			assert.Equal(t, tt.wantSource, res.Source)
			assert.Len(t, res.Records, tt.wantRecords)
			assert.Len(t, res.Composite, tt.wantComposite)
		})
	}
}

func TestSafetyHandler_InfiniteCellIsMissing(t *testing.T) {
	body := []byte("Alameda County Percent\nGrade 9\tinf%\t20%\t30%\t25%\t15%\nGrade 11\t1e400\t20%\t30%\t25%\t15%\n")

	for _, target := range []string{"/api/safety/grade", "/api/safety/grade?persist=true"} {
		t.Run(target, func(t *testing.T) {
			router := newSafetyRouter(t, true)

			rec := do(t, router, http.MethodPost, target, "text/plain", body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "json")

			var res struct {
				Records []struct {
					Stratum string                 `json:"stratum"`
					Metrics map[string]interface{} `json:"metrics"`
				} `json:"records"`
			}
			decode(t, rec, &res)
			require.Len(t, res.Records, 2)
			for _, r := range res.Records {
				v, ok := r.Metrics["very_safe_pct"]
				assert.True(t, ok, r.Stratum)
				assert.Nil(t, v, r.Stratum)
				assert.Equal(t, 20.0, r.Metrics["safe_pct"])
			}
		})
	}
}

func TestSafetyHandler_RunNotFound(t *testing.T) {
	router := newSafetyRouter(t, true)

	rec := do(t, router, http.MethodGet, "/api/runs/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var problem map[string]interface{}
	decode(t, rec, &problem)
	assert.Equal(t, "RUN_NOT_FOUND", problem["error_code"])

	rec = do(t, router, http.MethodGet, "/api/runs/latest?dataset=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSafetyHandler_RunsNotMountedWithoutStore(t *testing.T) {
	router := newSafetyRouter(t, false)

	rec := do(t, router, http.MethodGet, "/api/runs", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
