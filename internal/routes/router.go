package routes

import (
	"net/http"

	"servercv/dashboard/internal/api"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes builds the HTTP handler for the dashboard backend. gatherer
// is the registry the metrics were registered on.
func RegisterRoutes(deps *api.Dependencies, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RecoverMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: true, // session cookie
		MaxAge:           300,
	}))

	handlers := api.NewHandlers(deps)

	r.Get("/healthCheck", handlers.HealthCheck())
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	publicLimiter := middleware.NewIPRateLimiter(deps.Config.PublicRateLimitRPS, deps.Config.PublicRateLimitBurst)
	RegisterPublicRoutes(r, handlers, publicLimiter)
	RegisterAPIRoutes(r, handlers, deps.Services.Session)

	logging.Info("Router initialized", "cors_origins", deps.Config.CORSOrigins)
	return r
}
