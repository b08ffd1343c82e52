package providers

import (
	"context"
	"fmt"

	"servercv/dashboard/internal/models/entities"
)

// MembershipProvider is the guild membership snapshot source
type MembershipProvider interface {
	// GetMemberships lists every guild the actor belongs to, with owner flag and permissions
	GetMemberships(ctx context.Context, actor entities.Actor) ([]entities.GuildMembership, error)

	// GetProviderType returns the provider type identifier
	GetProviderType() string
}

// IdentityProvider resolves the user behind an OAuth access token
type IdentityProvider interface {
	GetCurrentUser(ctx context.Context, accessToken string) (*DiscordUser, error)
}

var (
	_ MembershipProvider = (*DiscordProvider)(nil)
	_ IdentityProvider   = (*DiscordProvider)(nil)
)

// ProviderError is a failure detected before any request was sent
type ProviderError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
