package routes

import (
	"servercv/dashboard/internal/api"
	"servercv/dashboard/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers the signed-in dashboard API. Everything except
// session creation requires a session.
func RegisterAPIRoutes(r chi.Router, handlers *api.Handlers, sessions middleware.SessionReader) {
	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Post("/auth/session", handlers.CreateSession())

		v1.Group(func(authed chi.Router) {
			authed.Use(middleware.AuthMiddleware(sessions))

			authed.Delete("/auth/session", handlers.DeleteSession())
			authed.Get("/guilds", handlers.ListGuilds())

			authed.Route("/servers/{serverID}", func(server chi.Router) {
				server.Get("/", handlers.ServerView())
				server.Post("/settings", handlers.ServerSettings())
				server.Post("/experiences", handlers.CreateExperience())
			})

			authed.Route("/experiences", func(exp chi.Router) {
				exp.Get("/", handlers.ListTimeline())
				exp.Get("/pending", handlers.ListPending())

				exp.Route("/{id}", func(one chi.Router) {
					one.Put("/", handlers.EditExperience())
					one.Delete("/", handlers.DeleteApproved())
					one.Post("/approve", handlers.ApproveExperience())
					one.Post("/reject", handlers.RejectExperience())
					one.Put("/end", handlers.SetEndDate())
					one.Delete("/pending", handlers.DeletePending())
					one.Post("/pin", handlers.PinExperience())
					one.Post("/unpin", handlers.UnpinExperience())
					one.Get("/history", handlers.ExperienceHistory())
				})
			})

			authed.Get("/settings", handlers.GetSettings())
			authed.Put("/settings", handlers.UpdateSettings())
			authed.Post("/premium/activate", handlers.ActivatePremium())
		})
	})
}
