// Package api provides the HTTP API layer for the recommendation
// service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"heartpet-recommender/internal/api/handlers"
	"heartpet-recommender/internal/api/middleware"
	"heartpet-recommender/internal/config"
	"heartpet-recommender/internal/logging"
	"heartpet-recommender/internal/recommend"
	"heartpet-recommender/internal/storage"
	"heartpet-recommender/internal/weather"
)

const maxRequestBytes = 1 << 20 // 1 MiB

// Router wires middleware and routes for the recommendation API.
type Router struct {
	config *config.Config
	mux    *chi.Mux
	logger logging.Logger
}

// Deps are the constructed services the router serves.
type Deps struct {
	Engine   *recommend.Engine
	Actions  storage.ActionStore
	Prefs    storage.PreferenceStore
	History  storage.HistoryStore
	Weather  *weather.Client
	Checkers map[string]handlers.HealthChecker
}

// NewRouter creates the API router.
func NewRouter(cfg *config.Config, deps *Deps) *Router {
	r := &Router{
		config: cfg,
		mux:    chi.NewRouter(),
		logger: logging.WithComponent("api"),
	}
	r.setupMiddleware()
	r.setupRoutes(deps)
	return r
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}

func (r *Router) setupMiddleware() {
	r.mux.Use(chimiddleware.Recoverer)
	r.mux.Use(chimiddleware.RequestSize(maxRequestBytes))
	r.mux.Use(chimiddleware.Heartbeat("/ping"))
	r.mux.Use(r.traceMiddleware)
	r.mux.Use(r.loggingMiddleware)

	limiter := middleware.NewRateLimiter(r.config.Recommend.RateLimitPerMin, time.Minute)
	r.mux.Use(limiter.Handler)
}

func (r *Router) setupRoutes(deps *Deps) {
	recommendHandler := handlers.NewRecommendHandler(deps.Engine)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Actions, deps.Prefs, deps.History)
	weatherHandler := handlers.NewWeatherHandler(deps.Weather)
	healthHandler := handlers.NewHealthHandler(deps.Checkers)

	r.mux.Route("/api/v1", func(v1 chi.Router) {
		v1.Post("/recommend", recommendHandler.ServeHTTP)
		v1.Post("/feedback", feedbackHandler.ServeHTTP)
		v1.Get("/weather", weatherHandler.ServeHTTP)
		v1.Get("/health", healthHandler.ServeHTTP)
	})
}

// traceMiddleware assigns each request a trace ID, exposed both in the
// context for log correlation and as a response header.
func (r *Router) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		traceID := req.Header.Get("X-Request-ID")
		if traceID == "" {
			traceID = logging.GenerateTraceID()
		}
		w.Header().Set("X-Request-ID", traceID)
		next.ServeHTTP(w, req.WithContext(logging.WithTraceID(req.Context(), traceID)))
	})
}

func (r *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)
		r.logger.InfoContext(req.Context(), "Request handled",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}
