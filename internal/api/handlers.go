package api

import (
	"context"
	"net/http"
)

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}

func (h *Handlers) CreateSession() http.HandlerFunc {
	return CreateSessionHandler(h.deps.Services.Profiles, h.deps.Config.IsProduction())
}

func (h *Handlers) DeleteSession() http.HandlerFunc {
	return DeleteSessionHandler(h.deps.Services.Profiles)
}

func (h *Handlers) ListGuilds() http.HandlerFunc {
	return ListGuildsHandler(h.deps.Services.Guilds)
}

func (h *Handlers) CreateExperience() http.HandlerFunc {
	return CreateExperienceHandler(h.deps.Services.Experiences)
}

func (h *Handlers) ListTimeline() http.HandlerFunc {
	return ListTimelineHandler(h.deps.Services.Experiences)
}

func (h *Handlers) ListPending() http.HandlerFunc {
	return ListPendingHandler(h.deps.Services.Experiences)
}

func (h *Handlers) ApproveExperience() http.HandlerFunc {
	return ApproveExperienceHandler(h.deps.Services.Experiences)
}

func (h *Handlers) RejectExperience() http.HandlerFunc {
	return RejectExperienceHandler(h.deps.Services.Experiences)
}

func (h *Handlers) EditExperience() http.HandlerFunc {
	return EditExperienceHandler(h.deps.Services.Experiences)
}

func (h *Handlers) SetEndDate() http.HandlerFunc {
	return SetEndDateHandler(h.deps.Services.Experiences)
}

func (h *Handlers) DeleteApproved() http.HandlerFunc {
	return DeleteApprovedHandler(h.deps.Services.Experiences)
}

func (h *Handlers) DeletePending() http.HandlerFunc {
	return DeletePendingHandler(h.deps.Services.Experiences)
}

func (h *Handlers) PinExperience() http.HandlerFunc {
	return PinExperienceHandler(h.deps.Services.Experiences, true)
}

func (h *Handlers) UnpinExperience() http.HandlerFunc {
	return PinExperienceHandler(h.deps.Services.Experiences, false)
}

func (h *Handlers) ExperienceHistory() http.HandlerFunc {
	return ExperienceHistoryHandler(h.deps.Services.Experiences)
}

func (h *Handlers) ServerView() http.HandlerFunc {
	return ServerViewHandler(h.deps.Services.Servers)
}

func (h *Handlers) ServerSettings() http.HandlerFunc {
	return ServerSettingsHandler(h.deps.Services.Servers)
}

func (h *Handlers) GetSettings() http.HandlerFunc {
	return GetSettingsHandler(h.deps.Services.Profiles)
}

func (h *Handlers) UpdateSettings() http.HandlerFunc {
	return UpdateSettingsHandler(h.deps.Services.Profiles)
}

func (h *Handlers) ActivatePremium() http.HandlerFunc {
	return ActivatePremiumHandler(h.deps.Services.Profiles)
}

func (h *Handlers) PublicProfile() http.HandlerFunc {
	return PublicProfileHandler(h.deps.Services.Profiles)
}

func (h *Handlers) PublicServer() http.HandlerFunc {
	return PublicServerHandler(h.deps.Services.Profiles)
}

func (h *Handlers) HealthCheck() http.HandlerFunc {
	return HealthCheckHandler(map[string]Pinger{
		"postgres": h.deps.PG,
		"redis": PingFunc(func(ctx context.Context) error {
			return h.deps.Redis.Ping(ctx).Err()
		}),
	}, h.deps.UpSince)
}
