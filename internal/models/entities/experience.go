package entities

import (
	"time"

	"servercv/dashboard/internal/constants"
)

// Actor is the signed-in user performing an operation. AccessToken is the
// user's Discord OAuth token, used to read their guild memberships.
type Actor struct {
	UserID      string
	AccessToken string
}

// ExperiencePayload is the user-editable part of an experience record.
type ExperiencePayload struct {
	RoleTitle   string
	StartMonth  int
	StartYear   int
	EndMonth    *int
	EndYear     *int
	Description string
}

// Limits are the entitlement ceilings of a tier. constants.Unlimited disables a ceiling.
type Limits struct {
	MaxExperiences      int  `json:"max_experiences"`
	MaxDescriptionChars int  `json:"max_description_chars"`
	MaxSocialLinks      int  `json:"max_social_links"`
	VanityAllowed       bool `json:"vanity_allowed"`
}

// AllowsExperiences reports whether a user already holding current records may add another.
func (l Limits) AllowsExperiences(current int) bool {
	return l.MaxExperiences == constants.Unlimited || current < l.MaxExperiences
}

// LifecycleEvent is the notification contract between the engine and the dispatcher.
type LifecycleEvent struct {
	OutboxID   uint64              `json:"outbox_id"`
	Kind       constants.EventKind `json:"kind"`
	RecordID   string              `json:"record_id"`
	ServerID   string              `json:"server_id,omitempty"`
	OccurredAt time.Time           `json:"occurred_at"`
}
