package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"heartpet-recommender/internal/api/handlers"
	"heartpet-recommender/internal/config"
	"heartpet-recommender/internal/weather"
)

func testRouter() *Router {
	cfg := config.DefaultConfig()
	return NewRouter(cfg, &Deps{
		Weather:  weather.NewClient(""),
		Checkers: map[string]handlers.HealthChecker{},
	})
}

func TestRouterHeartbeat(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", http.NoBody)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterAssignsRequestID(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouterPropagatesClientRequestID(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	req.Header.Set("X-Request-ID", "trace-123")
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
}

func TestRouterRateLimits(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Recommend.RateLimitPerMin = 2
	router := NewRouter(cfg, &Deps{
		Weather:  weather.NewClient(""),
		Checkers: map[string]handlers.HealthChecker{},
	})

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
		req.RemoteAddr = "10.1.2.3:4000"
		rec := httptest.NewRecorder()
		router.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
