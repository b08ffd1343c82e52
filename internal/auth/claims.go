package auth

import (
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/entities"
)

// UserClaims identifies the caller of a request.
type UserClaims interface {
	UserID() string
	Source() constants.RequestSource
	Actor() entities.Actor
}

// SessionClaims are built from a dashboard session cookie or bearer session id.
type SessionClaims struct {
	SessionID   string
	UserIDValue string
	Username    string
	AccessToken string
}

func (c *SessionClaims) UserID() string                  { return c.UserIDValue }
func (c *SessionClaims) Source() constants.RequestSource { return constants.RequestSourceSession }
func (c *SessionClaims) Actor() entities.Actor {
	return entities.Actor{UserID: c.UserIDValue, AccessToken: c.AccessToken}
}
