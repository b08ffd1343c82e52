package dtos

import (
	"time"

	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"
)

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	ResponseTime string `json:"response_time"`
	Code         string `json:"code,omitempty"`
	UpgradeURL   string `json:"upgrade_url,omitempty"`
	RetryAfter   int    `json:"retry_after_seconds,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type SessionView struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ExperienceView struct {
	ID                 string                     `json:"id"`
	UserID             string                     `json:"user_id"`
	ServerID           string                     `json:"server_id"`
	ServerName         string                     `json:"server_name"`
	ServerIconURL      string                     `json:"server_icon_url,omitempty"`
	RoleTitle          string                     `json:"role_title"`
	StartMonth         int                        `json:"start_month"`
	StartYear          int                        `json:"start_year"`
	EndMonth           *int                       `json:"end_month,omitempty"`
	EndYear            *int                       `json:"end_year,omitempty"`
	Ongoing            bool                       `json:"ongoing"`
	Description        string                     `json:"description"`
	RequesterRole      constants.GuildRole        `json:"requester_role"`
	RequesterRoleLabel string                     `json:"requester_role_label"`
	Status             constants.ExperienceStatus `json:"status"`
	IsPinned           bool                       `json:"is_pinned"`
	ApprovedBy         *string                    `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time                 `json:"approved_at,omitempty"`
	RequestedAt        time.Time                  `json:"requested_at"`
}

func NewExperienceView(e *gormModels.Experience) ExperienceView {
	view := ExperienceView{
		ID:                 e.ID,
		UserID:             e.UserID,
		ServerID:           e.ServerID,
		ServerName:         e.ServerName,
		RoleTitle:          e.RoleTitle,
		StartMonth:         e.StartMonth,
		StartYear:          e.StartYear,
		EndMonth:           e.EndMonth,
		EndYear:            e.EndYear,
		Ongoing:            e.IsOngoing(),
		Description:        e.Description,
		RequesterRole:      e.RequesterRole,
		RequesterRoleLabel: e.RequesterRole.Label(),
		Status:             e.Status,
		IsPinned:           e.IsPinned,
		ApprovedBy:         e.ApprovedBy,
		ApprovedAt:         e.ApprovedAt,
		RequestedAt:        e.RequestedAt,
	}
	if e.ServerIcon != nil {
		view.ServerIconURL = entities.GuildMembership{GuildID: e.ServerID, Icon: *e.ServerIcon}.IconURL()
	}
	return view
}

func NewExperienceViews(exps []gormModels.Experience) []ExperienceView {
	views := make([]ExperienceView, 0, len(exps))
	for i := range exps {
		views = append(views, NewExperienceView(&exps[i]))
	}
	return views
}

// ManagedExperienceView is a record as seen on the server management page.
type ManagedExperienceView struct {
	ExperienceView
	CanApprove bool `json:"can_approve"`
	CanReject  bool `json:"can_reject"`
	CanEdit    bool `json:"can_edit"`
	CanDelete  bool `json:"can_delete"`
}

type ServerView struct {
	ServerID              string                  `json:"server_id"`
	ServerName            string                  `json:"server_name"`
	IconURL               string                  `json:"icon_url,omitempty"`
	ActorRole             constants.GuildRole     `json:"actor_role"`
	ActorRoleLabel        string                  `json:"actor_role_label"`
	IsOwner               bool                    `json:"is_owner"`
	VanityURL             *string                 `json:"vanity_url,omitempty"`
	NotificationChannelID *string                 `json:"notification_channel_id,omitempty"`
	Pending               []ManagedExperienceView `json:"pending"`
	Approved              []ManagedExperienceView `json:"approved"`
}

type GuildView struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	IconURL   string              `json:"icon_url,omitempty"`
	Role      constants.GuildRole `json:"role"`
	RoleLabel string              `json:"role_label"`
	CanManage bool                `json:"can_manage"`
	CanSubmit bool                `json:"can_submit"`
}

type HistoryEntryView struct {
	Action    string         `json:"action"`
	UserID    string         `json:"user_id"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type UserSettingsView struct {
	UserID       string          `json:"user_id"`
	Username     string          `json:"username"`
	IsPremium    bool            `json:"is_premium"`
	PremiumSince *time.Time      `json:"premium_since,omitempty"`
	VanityURL    *string         `json:"vanity_url,omitempty"`
	Socials      []string        `json:"socials"`
	Limits       entities.Limits `json:"limits"`
	ProfilePath  string          `json:"profile_path"`
}

type PublicProfileView struct {
	UserID      string           `json:"user_id"`
	Username    string           `json:"username"`
	Avatar      string           `json:"avatar,omitempty"`
	IsPremium   bool             `json:"is_premium"`
	Socials     []string         `json:"socials"`
	Experiences []ExperienceView `json:"experiences"`
}

type PublicServerView struct {
	ServerID    string           `json:"server_id"`
	ServerName  string           `json:"server_name"`
	IconURL     string           `json:"icon_url,omitempty"`
	Experiences []ExperienceView `json:"experiences"`
}
