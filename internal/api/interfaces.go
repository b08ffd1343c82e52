package api

import (
	"context"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/models/dtos"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"
	"servercv/dashboard/internal/services"
)

// ExperienceEngine is the lifecycle engine as seen by the handlers.
type ExperienceEngine interface {
	Create(ctx context.Context, actor entities.Actor, serverID string, payload entities.ExperiencePayload) (*gormModels.Experience, error)
	Approve(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error)
	Reject(ctx context.Context, actor entities.Actor, id string) error
	Edit(ctx context.Context, actor entities.Actor, id string, payload entities.ExperiencePayload) (*gormModels.Experience, error)
	DeleteApproved(ctx context.Context, actor entities.Actor, id string) error
	DeletePending(ctx context.Context, actor entities.Actor, id string) error
	SetEndDate(ctx context.Context, actor entities.Actor, id string, endMonth, endYear *int) (*gormModels.Experience, error)
	Pin(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error)
	Unpin(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error)
	ListTimeline(ctx context.Context, userID string) ([]gormModels.Experience, error)
	ListPending(ctx context.Context, userID string) ([]gormModels.Experience, error)
	History(ctx context.Context, actor entities.Actor, id string) ([]gormModels.ExperienceHistory, error)
}

type GuildLister interface {
	ListGuilds(ctx context.Context, actor entities.Actor) ([]dtos.GuildView, error)
}

type ServerManager interface {
	ServerView(ctx context.Context, actor entities.Actor, serverID string) (*dtos.ServerView, error)
	SetServerVanity(ctx context.Context, actor entities.Actor, serverID, vanity string) error
}

type AccountManager interface {
	Login(ctx context.Context, accessToken string) (*common.SessionData, error)
	Logout(ctx context.Context, sessionID string) error
	Settings(ctx context.Context, userID string) (*dtos.UserSettingsView, error)
	UpdateSettings(ctx context.Context, userID, vanity string, socials []string) (*dtos.UserSettingsView, error)
	ActivatePremium(ctx context.Context, userID, token string) (*dtos.UserSettingsView, error)
	PublicProfile(ctx context.Context, slug string) (*dtos.PublicProfileView, error)
	PublicServer(ctx context.Context, slug string) (*dtos.PublicServerView, error)
}

var (
	_ ExperienceEngine = (*services.ExperienceService)(nil)
	_ GuildLister      = (*services.GuildService)(nil)
	_ ServerManager    = (*services.ServerService)(nil)
	_ AccountManager   = (*services.ProfileService)(nil)
)
