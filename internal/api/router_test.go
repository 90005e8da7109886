package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/popquery-backend-go/internal/census"
	"github.com/jengzang/popquery-backend-go/internal/config"
	"github.com/jengzang/popquery-backend-go/internal/database"
	"github.com/jengzang/popquery-backend-go/internal/engine"
	"github.com/jengzang/popquery-backend-go/internal/metrics"
	"github.com/jengzang/popquery-backend-go/internal/middleware"
	"github.com/jengzang/popquery-backend-go/internal/models"
	"github.com/jengzang/popquery-backend-go/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var example = []models.CensusRecord{
	{Population: 100, Latitude: 10, Longitude: 20},
	{Population: 50, Latitude: 10, Longitude: 40},
	{Population: 200, Latitude: 30, Longitude: 20},
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router *gin.Engine
	engine *engine.Engine
}

func newTestServer(t *testing.T, secret string, repo *repository.CensusRepository) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := prometheus.NewRegistry()
	eng := engine.New(census.NewStore(example), engine.WithMetrics(metrics.New(reg)), engine.WithCacheSize(16))
	cfg := &config.Config{JWTSecret: secret, RateLimit: 0}
	return &testServer{
		router: SetupRouter(ctx, Deps{Config: cfg, Engine: eng, Gatherer: reg, Repo: repo}),
		engine: eng,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, header ...string) (int, envelope) {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		r.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (s *testServer) preprocess(t *testing.T, rows, cols int, variant string) {
	t.Helper()
	require.NoError(t, s.engine.Preprocess(context.Background(), rows, cols, engine.Variant(variant)))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestQueryBeforePreprocess(t *testing.T) {
	s := newTestServer(t, "", nil)
	code, env := s.do(t, http.MethodGet, "/api/v1/population?west=1&south=1&east=1&north=1", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, http.StatusConflict, env.Code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/grid", "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestPreprocessAndQuery(t *testing.T) {
	s := newTestServer(t, "", nil)

	code, env := s.do(t, http.MethodPost, "/api/v1/grid/preprocess", `{"rows":2,"cols":2,"variant":"v3"}`)
	require.Equal(t, http.StatusOK, code, env.Error)
	var info models.GridInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, "v3", info.Variant)
	assert.Equal(t, int64(350), info.TotalPopulation)

	code, env = s.do(t, http.MethodGet, "/api/v1/population?west=1&south=1&east=1&north=1", "")
	require.Equal(t, http.StatusOK, code)
	var res models.QueryResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, int64(100), res.Population)
	assert.InDelta(t, 28.57, res.Percentage, 0.005)

	code, env = s.do(t, http.MethodGet, "/api/v1/population?west=1&south=1&east=2&north=2", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, models.QueryResult{Population: 350, Percentage: 100}, res)
}

func TestInvalidQueries(t *testing.T) {
	s := newTestServer(t, "", nil)
	s.preprocess(t, 2, 2, "v4")

	for _, path := range []string{
		"/api/v1/population?west=2&south=1&east=1&north=1",
		"/api/v1/population?west=1&south=1&east=3&north=1",
		"/api/v1/population?west=0&south=1&east=1&north=1",
		"/api/v1/population?west=a&south=1&east=1&north=1",
		"/api/v1/population?west=1",
	} {
		code, env := s.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.NotEmpty(t, env.Error, path)
	}
}

func TestPreprocessValidation(t *testing.T) {
	s := newTestServer(t, "", nil)
	for _, body := range []string{
		`{"rows":0,"cols":2}`,
		`{"rows":2,"cols":2,"variant":"v9"}`,
		`not json`,
	} {
		code, _ := s.do(t, http.MethodPost, "/api/v1/grid/preprocess", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
	}
}

func TestPreprocessRequiresToken(t *testing.T) {
	s := newTestServer(t, "s3cret", nil)
	body := `{"rows":2,"cols":2}`

	code, _ := s.do(t, http.MethodPost, "/api/v1/grid/preprocess", body)
	assert.Equal(t, http.StatusUnauthorized, code)

	token, err := middleware.IssueToken("s3cret", "admin", time.Hour)
	require.NoError(t, err)
	code, env := s.do(t, http.MethodPost, "/api/v1/grid/preprocess", body, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, code)
	var info models.GridInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, string(engine.DefaultVariant), info.Variant)

	// Queries stay public.
	code, _ = s.do(t, http.MethodGet, "/api/v1/population?west=1&south=1&east=2&north=2", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestCell(t *testing.T) {
	s := newTestServer(t, "", nil)
	s.preprocess(t, 2, 2, "v1")

	code, env := s.do(t, http.MethodGet, "/api/v1/grid/cells/2/1", "")
	require.Equal(t, http.StatusOK, code)
	var cell models.GridCell
	require.NoError(t, json.Unmarshal(env.Data, &cell))
	assert.Equal(t, 2, cell.Row)
	assert.Equal(t, 1, cell.Col)
	assert.Equal(t, models.Rectangle{Left: 20, Right: 30, Top: 30, Bottom: 20, Population: 200}, cell.Bounds)
	assert.Greater(t, cell.AreaKm2, 0.0)
	assert.InDelta(t, 200/cell.AreaKm2, cell.DensityPerKm, 1e-12)
	assert.InDelta(t, 57.14, cell.Percentage, 0.005)

	code, _ = s.do(t, http.MethodGet, "/api/v1/grid/cells/3/1", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/api/v1/grid/cells/x/1", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCells(t *testing.T) {
	s := newTestServer(t, "", nil)
	s.preprocess(t, 2, 2, "v5")

	code, env := s.do(t, http.MethodGet, "/api/v1/grid/cells", "")
	require.Equal(t, http.StatusOK, code)
	var body struct {
		Data  []models.GridCell `json:"data"`
		Count int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 4, body.Count)
	var total int64
	for _, c := range body.Data {
		total += c.Bounds.Population
	}
	assert.Equal(t, int64(350), total)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "", nil)
	s.preprocess(t, 2, 2, "v4")
	s.do(t, http.MethodGet, "/api/v1/population?west=1&south=1&east=1&north=1", "")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "popquery_queries_total")
	assert.Contains(t, w.Body.String(), "popquery_preprocess_duration_seconds")
}

func TestDatasets(t *testing.T) {
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.NewMigrationManager(db, nil).Migrate())
	repo := repository.NewCensusRepository(db)
	require.NoError(t, repo.Import(context.Background(), "example", example))

	s := newTestServer(t, "", repo)
	code, env := s.do(t, http.MethodGet, "/api/v1/datasets", "")
	require.Equal(t, http.StatusOK, code)
	var body struct {
		Data  []models.CensusDataset `json:"data"`
		Count int                    `json:"count"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(env.Data)).Decode(&body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "example", body.Data[0].Name)
	assert.Equal(t, int64(350), body.Data[0].TotalPopulation)

	code, env = s.do(t, http.MethodGet, "/api/v1/datasets/example", "")
	require.Equal(t, http.StatusOK, code, env.Error)
	var one models.CensusDataset
	require.NoError(t, json.Unmarshal(env.Data, &one))
	assert.Equal(t, int64(3), one.RecordCount)
	assert.Equal(t, int64(350), one.TotalPopulation)

	code, env = s.do(t, http.MethodGet, "/api/v1/datasets/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, http.StatusNotFound, env.Code)
	assert.Contains(t, env.Message, "missing")

	// Without a repository the route does not exist.
	code, _ = newTestServer(t, "", nil).do(t, http.MethodGet, "/api/v1/datasets", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, "", nil)
	s.preprocess(t, 2, 2, "v2")

	code, env := s.do(t, http.MethodGet, "/api/v1/grid/summary", "")
	require.Equal(t, http.StatusOK, code, env.Error)
	var summary models.GridSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 4, summary.Distribution.Count)
	assert.Equal(t, 3, summary.Distribution.NonZero)
	assert.Equal(t, 200.0, summary.Distribution.Max)
	require.NotNil(t, summary.Densest)
	assert.Equal(t, int64(200), summary.Densest.Bounds.Population)
}

func TestGridTooLargeToList(t *testing.T) {
	s := newTestServer(t, "", nil)
	s.preprocess(t, 101, 100, "v4")

	code, env := s.do(t, http.MethodGet, "/api/v1/grid/cells", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "too many cells")
	code, _ = s.do(t, http.MethodGet, "/api/v1/grid/summary", "")
	assert.Equal(t, http.StatusBadRequest, code)

	s.preprocess(t, 100, 100, "v4")
	code, env = s.do(t, http.MethodGet, "/api/v1/grid/summary", "")
	require.Equal(t, http.StatusOK, code, env.Error)
}
