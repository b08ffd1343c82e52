package gorm

import (
	"time"

	"servercv/dashboard/internal/constants"
)

type Experience struct {
	ID            string                     `gorm:"column:id;primaryKey"`
	UserID        string                     `gorm:"column:user_id;index;not null"`
	ServerID      string                     `gorm:"column:server_id;index;not null"`
	ServerName    string                     `gorm:"column:server_name"`
	ServerIcon    *string                    `gorm:"column:server_icon"`
	RoleTitle     string                     `gorm:"column:role_title"`
	StartMonth    int                        `gorm:"column:start_month"`
	StartYear     int                        `gorm:"column:start_year"`
	EndMonth      *int                       `gorm:"column:end_month"`
	EndYear       *int                       `gorm:"column:end_year"`
	Description   string                     `gorm:"column:description"`
	RequesterRole constants.GuildRole        `gorm:"column:requester_role;type:text"`
	Status        constants.ExperienceStatus `gorm:"column:status;type:text;index"`
	IsPinned      bool                       `gorm:"column:is_pinned;default:false"`
	ApprovedBy    *string                    `gorm:"column:approved_by"`
	ApprovedAt    *time.Time                 `gorm:"column:approved_at"`
	RequestedAt   time.Time                  `gorm:"column:requested_at"`
	Version       int                        `gorm:"column:version;not null"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Experience) TableName() string {
	return "experiences"
}

// IsOngoing reports whether the record has no end date.
func (e *Experience) IsOngoing() bool {
	return e.EndMonth == nil || e.EndYear == nil
}

// ExperienceHistory is one audit entry in a record's history.
type ExperienceHistory struct {
	ID           string         `gorm:"column:id;primaryKey"`
	ExperienceID string         `gorm:"column:experience_id;index;not null"`
	Action       string         `gorm:"column:action"`
	UserID       string         `gorm:"column:user_id"`
	Details      map[string]any `gorm:"column:details;serializer:json"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
}

// TableName specifies the table name for GORM
func (ExperienceHistory) TableName() string {
	return "experience_history"
}

// ExperienceEvent is an outbox row written in the same transaction as the
// mutation it describes. PublishedAt is set once the relay has handed it to the stream.
type ExperienceEvent struct {
	ID          uint64              `gorm:"column:id;primaryKey;autoIncrement"`
	Kind        constants.EventKind `gorm:"column:kind;type:text"`
	RecordID    string              `gorm:"column:record_id"`
	ServerID    string              `gorm:"column:server_id"`
	OccurredAt  time.Time           `gorm:"column:occurred_at"`
	PublishedAt *time.Time          `gorm:"column:published_at;index"`
}

// TableName specifies the table name for GORM
func (ExperienceEvent) TableName() string {
	return "experience_events"
}

// AllModels lists every table for AutoMigrate.
func AllModels() []any {
	return []any{&User{}, &Server{}, &Experience{}, &ExperienceHistory{}, &ExperienceEvent{}}
}
