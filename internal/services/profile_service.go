package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/models/dtos"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"
	"servercv/dashboard/internal/providers"
)

const slugCacheTTL = 5 * time.Minute

// ProfileStore is the user side of settings, login and premium activation.
type ProfileStore interface {
	UserStore
	FindByVanity(ctx context.Context, vanity string) (*gormModels.User, error)
	UpsertOnLogin(ctx context.Context, id, username, avatar string) (*gormModels.User, error)
	UpdateSettings(ctx context.Context, id string, vanity *string, socials []string) error
	ActivatePremium(ctx context.Context, id, orderID string, at time.Time) error
}

// PaymentVerifier checks and burns payment confirmation tokens.
type PaymentVerifier interface {
	Verify(token string) (*common.PaymentConfirmation, error)
	Consume(ctx context.Context, conf *common.PaymentConfirmation) error
}

// SessionStore keeps signed-in sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, userID, username, accessToken string) (*common.SessionData, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// GuildDirectory reads public guild details with the bot token.
type GuildDirectory interface {
	GetGuild(ctx context.Context, guildID string) (*providers.GuildInfo, error)
}

// ProfileService covers the user account: login, settings, premium and the
// public profile and server pages.
type ProfileService struct {
	users       ProfileStore
	experiences ExperienceStore
	servers     ServerStore
	identity    providers.IdentityProvider
	sessions    SessionStore
	payments    PaymentVerifier
	guilds      GuildDirectory
	cache       common.CacheInterface
	metrics     *metrics.MetricsRegistry
	timeout     time.Duration
	now         func() time.Time
}

type ProfileServiceDeps struct {
	Users       ProfileStore
	Experiences ExperienceStore
	Servers     ServerStore
	Identity    providers.IdentityProvider
	Sessions    SessionStore
	Payments    PaymentVerifier
	Guilds      GuildDirectory // optional
	Cache       common.CacheInterface
	Metrics     *metrics.MetricsRegistry
	Timeout     time.Duration
}

func NewProfileService(deps ProfileServiceDeps) *ProfileService {
	return &ProfileService{
		users:       deps.Users,
		experiences: deps.Experiences,
		servers:     deps.Servers,
		identity:    deps.Identity,
		sessions:    deps.Sessions,
		payments:    deps.Payments,
		guilds:      deps.Guilds,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		timeout:     deps.Timeout,
		now:         time.Now,
	}
}

// Login resolves the Discord user behind accessToken, creates the account on
// first login and opens a session.
func (s *ProfileService) Login(ctx context.Context, accessToken string) (*common.SessionData, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, common.InvalidInput(constants.ErrCodeInvalidRequestBody, "access_token is required")
	}

	du, err := s.identity.GetCurrentUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := storeGet(ctx, s.timeout, "upsert user", func(ctx context.Context) (*gormModels.User, error) {
		return s.users.UpsertOnLogin(ctx, du.ID, du.Username, du.Avatar)
	})
	if err != nil {
		return nil, err
	}

	session, err := storeGet(ctx, s.timeout, "create session", func(ctx context.Context) (*common.SessionData, error) {
		return s.sessions.CreateSession(ctx, user.ID, user.Username, accessToken)
	})
	if err != nil {
		return nil, err
	}

	logging.Info("User signed in", "user_id", user.ID, "session_id", session.SessionID)
	return session, nil
}

func (s *ProfileService) Logout(ctx context.Context, sessionID string) error {
	return storeDo(ctx, s.timeout, "delete session", func(ctx context.Context) error {
		return s.sessions.DeleteSession(ctx, sessionID)
	})
}

func (s *ProfileService) Settings(ctx context.Context, userID string) (*dtos.UserSettingsView, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return settingsView(user), nil
}

// UpdateSettings replaces the vanity and social links. A vanity needs premium;
// an empty vanity clears it.
func (s *ProfileService) UpdateSettings(ctx context.Context, userID, vanity string, socials []string) (*dtos.UserSettingsView, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	limits := LimitsFor(user)
	vanity = strings.TrimSpace(vanity)

	var newVanity *string
	if vanity != "" {
		if !limits.VanityAllowed {
			return nil, common.LimitExceeded(constants.ErrCodeVanityPremium, constants.MsgVanityPremium)
		}
		if !vanityPattern.MatchString(vanity) {
			return nil, common.InvalidInput(constants.ErrCodeInvalidVanity, constants.MsgVanityFormat)
		}
		existing, err := s.findUserByVanity(ctx, vanity)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, common.InvalidInput(constants.ErrCodeVanityTaken, constants.MsgVanityTaken)
		}
		newVanity = &vanity
	}

	cleaned := make([]string, 0, len(socials))
	for _, link := range socials {
		if link = strings.TrimSpace(link); link != "" {
			cleaned = append(cleaned, link)
		}
	}
	if limits.MaxSocialLinks != constants.Unlimited && len(cleaned) > limits.MaxSocialLinks {
		return nil, common.LimitExceeded(constants.ErrCodeSocialLimit, "Too many social links for your plan.")
	}

	if err := storeDo(ctx, s.timeout, "update settings", func(ctx context.Context) error {
		return s.users.UpdateSettings(ctx, userID, newVanity, cleaned)
	}); err != nil {
		return nil, err
	}
	if user.VanityURL != nil && s.cache != nil {
		s.cache.Delete(ctx, string(constants.CachePrefixUserSlug)+*user.VanityURL)
	}

	user.VanityURL = newVanity
	user.Socials = cleaned
	return settingsView(user), nil
}

// ActivatePremium redeems a payment confirmation for userID. The token is
// burned only after the account is premium, so a failed write can be retried
// with the same token. Activation is idempotent.
func (s *ProfileService) ActivatePremium(ctx context.Context, userID, token string) (*dtos.UserSettingsView, error) {
	conf, err := s.payments.Verify(token)
	if err != nil {
		return nil, err
	}
	if conf.UserID != userID {
		return nil, common.Unauthorized(constants.ErrCodeInvalidPaymentToken, constants.MsgPaymentTokenWrong)
	}
	if err := storeDo(ctx, s.timeout, "activate premium", func(ctx context.Context) error {
		return s.users.ActivatePremium(ctx, userID, conf.OrderID, s.now())
	}); err != nil {
		return nil, err
	}
	if err := storeDo(ctx, s.timeout, "consume payment token", func(ctx context.Context) error {
		return s.payments.Consume(ctx, conf)
	}); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PremiumActivationsTotal.Inc()
	}
	logging.Info("Premium activated", "user_id", userID, "order_id", conf.OrderID)

	return s.Settings(ctx, userID)
}

// PublicProfile resolves a numeric user id or a vanity and returns the approved timeline.
func (s *ProfileService) PublicProfile(ctx context.Context, slug string) (*dtos.PublicProfileView, error) {
	user, err := s.resolveUser(ctx, slug)
	if err != nil {
		return nil, err
	}

	exps, err := common.WithTimeout(ctx, s.timeout, constants.ErrCodeStoreUnavailable, "list timeline",
		func(ctx context.Context) ([]gormModels.Experience, error) {
			return s.experiences.ListByUser(ctx, user.ID, constants.StatusApproved)
		})
	if err != nil {
		return nil, err
	}
	SortTimeline(exps)

	socials := user.Socials
	if socials == nil {
		socials = []string{}
	}
	return &dtos.PublicProfileView{
		UserID:      user.ID,
		Username:    user.Username,
		Avatar:      user.Avatar,
		IsPremium:   user.IsPremium,
		Socials:     socials,
		Experiences: dtos.NewExperienceViews(exps),
	}, nil
}

// PublicServer resolves a server id or vanity and returns its approved records.
func (s *ProfileService) PublicServer(ctx context.Context, slug string) (*dtos.PublicServerView, error) {
	serverID, err := s.resolveServer(ctx, slug)
	if err != nil {
		return nil, err
	}

	exps, err := common.WithTimeout(ctx, s.timeout, constants.ErrCodeStoreUnavailable, "list server experiences",
		func(ctx context.Context) ([]gormModels.Experience, error) {
			return s.experiences.ListByServer(ctx, serverID, constants.StatusApproved)
		})
	if err != nil {
		return nil, err
	}
	SortTimeline(exps)

	view := &dtos.PublicServerView{
		ServerID:    serverID,
		Experiences: dtos.NewExperienceViews(exps),
	}
	if len(exps) > 0 {
		view.ServerName = exps[0].ServerName
		view.IconURL = view.Experiences[0].ServerIconURL
	}

	if s.guilds != nil {
		info, err := s.guilds.GetGuild(ctx, serverID)
		switch {
		case err == nil:
			view.ServerName = info.Name
			view.IconURL = entities.GuildMembership{GuildID: info.ID, Icon: info.Icon}.IconURL()
		case errors.Is(err, common.ErrNotFound) && len(exps) == 0:
			return nil, err
		case !errors.Is(err, common.ErrNotFound):
			logging.Warn("Falling back to stored server details", "server_id", serverID, "error", err)
		}
	}
	return view, nil
}

func (s *ProfileService) resolveUser(ctx context.Context, slug string) (*gormModels.User, error) {
	if isSnowflake(slug) {
		return s.getUser(ctx, slug)
	}

	key := string(constants.CachePrefixUserSlug) + slug
	if s.cache != nil {
		if id, ok := s.cache.Get(ctx, key); ok {
			s.metrics.ObserveCache(string(constants.CachePrefixUserSlug), true)
			user, err := s.getUser(ctx, id.(string))
			if err != nil {
				return nil, err
			}
			return premiumVanityOwner(user)
		}
		s.metrics.ObserveCache(string(constants.CachePrefixUserSlug), false)
	}

	user, err := s.findUserByVanity(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := premiumVanityOwner(user); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, user.ID, slugCacheTTL)
	}
	return user, nil
}

func (s *ProfileService) resolveServer(ctx context.Context, slug string) (string, error) {
	if isSnowflake(slug) {
		return slug, nil
	}

	loaded := false
	load := func() (any, error) {
		loaded = true
		server, err := storeGet(ctx, s.timeout, "find server by vanity", func(ctx context.Context) (*gormModels.Server, error) {
			return s.servers.FindByVanity(ctx, slug)
		})
		if err != nil {
			return nil, err
		}
		return server.ID, nil
	}

	if s.cache == nil {
		id, err := load()
		if err != nil {
			return "", err
		}
		return id.(string), nil
	}

	id, err := s.cache.GetOrSet(ctx, string(constants.CachePrefixServerSlug)+slug, slugCacheTTL, load)
	s.metrics.ObserveCache(string(constants.CachePrefixServerSlug), !loaded)
	if err != nil {
		return "", err
	}
	return id.(string), nil
}

func (s *ProfileService) getUser(ctx context.Context, id string) (*gormModels.User, error) {
	return storeGet(ctx, s.timeout, "get user", func(ctx context.Context) (*gormModels.User, error) {
		return s.users.Get(ctx, id)
	})
}

func (s *ProfileService) findUserByVanity(ctx context.Context, vanity string) (*gormModels.User, error) {
	return storeGet(ctx, s.timeout, "find user by vanity", func(ctx context.Context) (*gormModels.User, error) {
		return s.users.FindByVanity(ctx, vanity)
	})
}

// premiumVanityOwner hides a vanity left over from a lapsed premium.
func premiumVanityOwner(user *gormModels.User) (*gormModels.User, error) {
	if !user.IsPremium {
		return nil, common.NotFound(constants.ErrCodeUserNotFound, "profile not found")
	}
	return user, nil
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func settingsView(user *gormModels.User) *dtos.UserSettingsView {
	socials := user.Socials
	if socials == nil {
		socials = []string{}
	}
	return &dtos.UserSettingsView{
		UserID:       user.ID,
		Username:     user.Username,
		IsPremium:    user.IsPremium,
		PremiumSince: user.PremiumSince,
		VanityURL:    user.VanityURL,
		Socials:      socials,
		Limits:       LimitsFor(user),
		ProfilePath:  "/u/" + user.Slug(),
	}
}
