package constants

import (
	"database/sql/driver"
	"fmt"
)

// GuildRole is the role a Discord user holds within a guild, derived from the
// guild's owner flag and the user's permission bitmask.
type GuildRole string

const (
	RoleOwner         GuildRole = "owner"
	RoleAdministrator GuildRole = "administrator"
	RoleModerator     GuildRole = "moderator"
	RoleMember        GuildRole = "member"
)

// Stringer ­– convenient for fmt / logs
func (r GuildRole) String() string { return string(r) }

// Label is the human readable form shown on the dashboard.
func (r GuildRole) Label() string {
	switch r {
	case RoleOwner:
		return "Server Owner"
	case RoleAdministrator:
		return "Administrator"
	case RoleModerator:
		return "Moderator"
	case RoleMember:
		return "Member"
	}
	return "Unknown"
}

// Valid reports whether r is one of the known roles.
func (r GuildRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdministrator, RoleModerator, RoleMember:
		return true
	}
	return false
}

/* ---------- DB adapters so gorm / sqlx scan and store the role cleanly ---------- */

// Scan implements the sql.Scanner interface
func (r *GuildRole) Scan(src interface{}) error {
	if src == nil {
		*r = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*r = GuildRole(v)
	case []byte:
		*r = GuildRole(v)
	default:
		return fmt.Errorf("GuildRole: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (r GuildRole) Value() (driver.Value, error) { return string(r), nil }

// ExperienceStatus is the lifecycle state of a stored experience record.
// Rejected and deleted records are removed, so they have no status.
type ExperienceStatus string

const (
	StatusPending  ExperienceStatus = "pending"
	StatusApproved ExperienceStatus = "approved"
)

func (s ExperienceStatus) String() string { return string(s) }

// Scan implements the sql.Scanner interface
func (s *ExperienceStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = ""
	case string:
		*s = ExperienceStatus(v)
	case []byte:
		*s = ExperienceStatus(v)
	default:
		return fmt.Errorf("ExperienceStatus: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (s ExperienceStatus) Value() (driver.Value, error) { return string(s), nil }
