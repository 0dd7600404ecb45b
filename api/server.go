/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. Logging:    Structured request logging (zerolog)
  4. RateLimit:  Global token-bucket limiter
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/allocation/*   Revenue-to-hours allocation
  /api/assignments/*  Quota expansion
  /api/schedule/*     Calendar distribution and submission
  /api/settings/*     Per-period configuration
  /api/runs/*         Audit trail
  /metrics            Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/warp/worklog-engine/config"
	"github.com/warp/worklog-engine/metrics"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	if cfg.RateLimitRPS > 0 {
		r.Use(rateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Allocation routes
		r.Route("/allocation", func(r chi.Router) {
			r.Post("/preview", h.PreviewAllocation)
		})

		// Assignment expansion
		r.Route("/assignments", func(r chi.Router) {
			r.Post("/expand", h.ExpandAssignments)
		})

		// Schedule routes
		r.Route("/schedule", func(r chi.Router) {
			r.Post("/preview", h.PreviewSchedule)
			r.Post("/submit", h.SubmitSchedule)
		})

		// Settings routes
		r.Route("/settings", func(r chi.Router) {
			r.Get("/{period}", h.GetSettings)
			r.Put("/{period}", h.PutSettings)
		})

		// Audit routes
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/{id}", h.GetRun)
		})

		r.Get("/health", h.Health)
	})

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return r
}

// requestLogger emits one structured log line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// rateLimiter applies a global token-bucket limit to all requests.
func rateLimiter(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
