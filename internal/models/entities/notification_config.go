package entities

import "time"

// NotificationConfig is where a server wants new-request notices posted.
type NotificationConfig struct {
	ServerID  string    `db:"server_id" json:"server_id"`
	ChannelID string    `db:"channel_id" json:"channel_id"`
	RoleID    *string   `db:"role_id" json:"role_id,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
