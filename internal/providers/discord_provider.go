package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/entities"

	"github.com/bwmarrin/discordgo"
)

// Discord returns at most this many guilds per page.
const guildPageSize = 200

// DiscordUser is the part of the Discord profile the dashboard keeps.
type DiscordUser struct {
	ID       string
	Username string
	Avatar   string
}

// DiscordProvider reads a user's profile and guild memberships with their OAuth token
type DiscordProvider struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewDiscordProvider creates a provider whose REST calls are bounded by timeout
func NewDiscordProvider(timeout time.Duration) *DiscordProvider {
	return &DiscordProvider{
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

// GetProviderType returns the provider type identifier
func (p *DiscordProvider) GetProviderType() string {
	return "discord_oauth"
}

func (p *DiscordProvider) session(accessToken string) (*discordgo.Session, error) {
	if accessToken == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeSessionRequired,
			Message: "Discord access token cannot be empty",
		}
	}

	s, err := discordgo.New("Bearer " + accessToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Client = p.Client
	// the caller decides whether to retry
	s.MaxRestRetries = 0
	return s, nil
}

// GetMemberships returns the actor's guild membership snapshot, following pagination.
func (p *DiscordProvider) GetMemberships(ctx context.Context, actor entities.Actor) ([]entities.GuildMembership, error) {
	s, err := p.session(actor.AccessToken)
	if err != nil {
		return nil, classifyDiscordError("list guilds", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var memberships []entities.GuildMembership
	after := ""
	for {
		page, err := s.UserGuilds(guildPageSize, "", after, false, discordgo.WithContext(ctx))
		if err != nil {
			return nil, classifyDiscordError("list guilds", err)
		}
		for _, g := range page {
			memberships = append(memberships, entities.GuildMembership{
				GuildID:     g.ID,
				Name:        g.Name,
				Icon:        g.Icon,
				Owner:       g.Owner,
				Permissions: g.Permissions,
			})
		}
		if len(page) < guildPageSize {
			return memberships, nil
		}
		after = page[len(page)-1].ID
	}
}

// GetCurrentUser resolves the owner of the access token.
func (p *DiscordProvider) GetCurrentUser(ctx context.Context, accessToken string) (*DiscordUser, error) {
	s, err := p.session(accessToken)
	if err != nil {
		return nil, classifyDiscordError("get current user", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	u, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return nil, classifyDiscordError("get current user", err)
	}

	name := u.Username
	if u.GlobalName != "" {
		name = u.GlobalName
	}
	return &DiscordUser{ID: u.ID, Username: name, Avatar: u.Avatar}, nil
}

// classifyDiscordError maps REST failures onto the error taxonomy. A rejected
// token means the session is stale; everything else is a transient outage.
func classifyDiscordError(op string, err error) error {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return common.Unauthorized(provErr.Code, provErr.Message)
	}

	if errors.Is(err, discordgo.ErrUnauthorized) {
		return common.Unauthorized(constants.ErrCodeSessionRequired, "Discord rejected the access token")
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return common.Unauthorized(constants.ErrCodeSessionRequired, "Discord rejected the access token")
		}
	}

	if common.IsTimeout(err) {
		return common.Unavailable(constants.ErrCodeDiscordUnavailable, op+" timed out", err)
	}
	return common.Unavailable(constants.ErrCodeDiscordUnavailable, op, err)
}

// GuildInfo is the public face of a guild, read with the bot token.
type GuildInfo struct {
	ID   string
	Name string
	Icon string
}

// DiscordBotProvider reads guild details with the bot's own session
type DiscordBotProvider struct {
	session *discordgo.Session
	timeout time.Duration
}

func NewDiscordBotProvider(session *discordgo.Session, timeout time.Duration) *DiscordBotProvider {
	return &DiscordBotProvider{session: session, timeout: timeout}
}

func (p *DiscordBotProvider) GetGuild(ctx context.Context, guildID string) (*GuildInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	g, err := p.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return nil, common.NotFound(constants.ErrCodeServerNotFound, "guild "+guildID+" not found")
		}
		return nil, classifyDiscordError("get guild", err)
	}
	return &GuildInfo{ID: g.ID, Name: g.Name, Icon: g.Icon}, nil
}
