package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/models/dtos"
	"servercv/dashboard/internal/models/entities"
	"servercv/dashboard/internal/providers"
)

// GuildService lists the guilds of the signed-in user. Listing calls Discord
// with the user's token, so it is throttled per user.
type GuildService struct {
	memberships providers.MembershipProvider
	limiter     common.CooldownLimiter
	cooldown    time.Duration
	timeout     time.Duration
	metrics     *metrics.MetricsRegistry
}

func NewGuildService(
	memberships providers.MembershipProvider,
	limiter common.CooldownLimiter,
	cooldown, timeout time.Duration,
	metricsReg *metrics.MetricsRegistry,
) *GuildService {
	return &GuildService{
		memberships: memberships,
		limiter:     limiter,
		cooldown:    cooldown,
		timeout:     timeout,
		metrics:     metricsReg,
	}
}

// ListGuilds fails fast with RateLimited when called again within the cooldown.
func (s *GuildService) ListGuilds(ctx context.Context, actor entities.Actor) ([]dtos.GuildView, error) {
	ok, wait, err := s.limiter.Acquire(ctx, common.CooldownKey(constants.CachePrefixGuildCooldown, actor.UserID), s.cooldown)
	if err != nil {
		return nil, err
	}
	if !ok {
		if s.metrics != nil {
			s.metrics.GuildListThrottledTotal.Inc()
		}
		return nil, common.RateLimited(wait)
	}

	memberships, err := common.WithTimeout(ctx, s.timeout, constants.ErrCodeDiscordUnavailable, "list guilds",
		func(ctx context.Context) ([]entities.GuildMembership, error) {
			return s.memberships.GetMemberships(ctx, actor)
		})
	if err != nil {
		return nil, err
	}

	views := make([]dtos.GuildView, 0, len(memberships))
	for _, m := range memberships {
		role := ClassifyMembership(m)
		views = append(views, dtos.GuildView{
			ID:        m.GuildID,
			Name:      m.Name,
			IconURL:   m.IconURL(),
			Role:      role,
			RoleLabel: role.Label(),
			CanManage: Authorize(TransitionManageServer, role, role, actor.UserID, actor.UserID),
			CanSubmit: Authorize(TransitionCreate, role, role, actor.UserID, actor.UserID),
		})
	}

	sort.SliceStable(views, func(i, j int) bool {
		return strings.ToLower(views[i].Name) < strings.ToLower(views[j].Name)
	})
	return views, nil
}
