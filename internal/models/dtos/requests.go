package dtos

import (
	"strings"

	"servercv/dashboard/internal/models/entities"
)

type CreateSessionRequest struct {
	AccessToken string `json:"access_token"`
}

// ExperienceRequest is the body of create and edit calls.
type ExperienceRequest struct {
	RoleTitle   string `json:"role_title"`
	StartMonth  int    `json:"start_month"`
	StartYear   int    `json:"start_year"`
	EndMonth    *int   `json:"end_month,omitempty"`
	EndYear     *int   `json:"end_year,omitempty"`
	Description string `json:"description"`
}

func (r ExperienceRequest) ToPayload() entities.ExperiencePayload {
	return entities.ExperiencePayload{
		RoleTitle:   strings.TrimSpace(r.RoleTitle),
		StartMonth:  r.StartMonth,
		StartYear:   r.StartYear,
		EndMonth:    r.EndMonth,
		EndYear:     r.EndYear,
		Description: strings.TrimSpace(r.Description),
	}
}

// EndDateRequest sets or clears (both nil) the end of an experience.
type EndDateRequest struct {
	EndMonth *int `json:"end_month"`
	EndYear  *int `json:"end_year"`
}

type SettingsRequest struct {
	VanityURL string   `json:"vanity_url"`
	Socials   []string `json:"socials"`
}

type ServerSettingsRequest struct {
	VanityURL string `json:"vanity_url"`
}

type PremiumActivationRequest struct {
	Token string `json:"token"`
}
