package gorm

import (
	"time"
)

// User is a dashboard account keyed by Discord user id.
type User struct {
	ID             string     `gorm:"column:id;primaryKey"`
	Username       string     `gorm:"column:username"`
	Avatar         string     `gorm:"column:avatar"`
	IsPremium      bool       `gorm:"column:premium;default:false"`
	PremiumSince   *time.Time `gorm:"column:premium_since"`
	PaymentOrderID *string    `gorm:"column:payment_order_id"`
	VanityURL      *string    `gorm:"column:vanity_url;uniqueIndex"`
	Socials        []string   `gorm:"column:socials;serializer:json"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "dashboard_users"
}

// Slug is the public profile path segment: the vanity when premium, otherwise the id.
func (u *User) Slug() string {
	if u.IsPremium && u.VanityURL != nil && *u.VanityURL != "" {
		return *u.VanityURL
	}
	return u.ID
}

// Server holds dashboard metadata for a Discord guild, independent of the guild itself.
type Server struct {
	ID        string    `gorm:"column:id;primaryKey"`
	VanityURL *string   `gorm:"column:vanity_url;uniqueIndex"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Server) TableName() string {
	return "dashboard_servers"
}
