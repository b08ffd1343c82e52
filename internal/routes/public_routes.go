package routes

import (
	"servercv/dashboard/internal/api"
	"servercv/dashboard/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterPublicRoutes registers the unauthenticated profile pages, limited per client IP.
func RegisterPublicRoutes(r chi.Router, handlers *api.Handlers, limiter *middleware.IPRateLimiter) {
	r.Route("/public", func(public chi.Router) {
		public.Use(limiter.Middleware)
		public.Get("/u/{slug}", handlers.PublicProfile())
		public.Get("/s/{slug}", handlers.PublicServer())
	})
}
