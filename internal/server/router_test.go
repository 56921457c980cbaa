package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/dmaldonado1992/MedVerify/docs/swagger"
	"github.com/dmaldonado1992/MedVerify/internal/config"
	"github.com/dmaldonado1992/MedVerify/internal/logger"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }


func testDeps() Dependencies {
	cfg := config.Config{}
	cfg.Metrics.PrometheusPath = "/metrics"
	cfg.CORS.AllowedOrigins = []string{"https://medverifyfront.onrender.com"}
	return Dependencies{Config: cfg, DB: fakePinger{}, ObjectStore: fakePinger{}}
}

func do(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := NewRouter(testDeps())
	rr := do(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	deps := testDeps()
	deps.DB = fakePinger{err: errors.New("connection refused")}
	rr = do(NewRouter(deps), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "postgres")

	deps = testDeps()
	deps.ObjectStore = fakePinger{err: errors.New("access denied")}
	rr = do(NewRouter(deps), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "object_storage")
}

func TestRootRedirectsToSwagger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testDeps())

	rr := do(router, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/swagger/index.html", rr.Header().Get("Location"))

	rr = do(router, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/videos/upload")
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testDeps())

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(logger.CorrelationIDHeader, "req-123")
	rr := do(router, req)
	assert.Equal(t, "req-123", rr.Header().Get(logger.CorrelationIDHeader))

	rr = do(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.NotEmpty(t, rr.Header().Get(logger.CorrelationIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(testDeps())

	req := httptest.NewRequest(http.MethodOptions, "/api/videos/list", nil)
	req.Header.Set("Origin", "https://medverifyfront.onrender.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := do(handler, req)
	assert.Equal(t, "https://medverifyfront.onrender.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/videos/list", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr = do(handler, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(testDeps())

	do(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	rr := do(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "go_goroutines"))
}
