package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/metrics"
	"servercv/dashboard/internal/models/entities"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock CooldownLimiter
type mockLimiter struct {
	acquireFunc func(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
}

func (m *mockLimiter) Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error) {
	return m.acquireFunc(ctx, key, window)
}

func newGuildFixture(t *testing.T) (*GuildService, *mockMembershipProvider, *metrics.MetricsRegistry) {
	t.Helper()

	provider := &mockMembershipProvider{}
	provider.join("u1", entities.GuildMembership{GuildID: "3", Name: "zeta", Permissions: discordgo.PermissionSendMessages})
	provider.join("u1", entities.GuildMembership{GuildID: "1", Name: "Alpha", Owner: true, Icon: "ic"})
	provider.join("u1", entities.GuildMembership{GuildID: "2", Name: "beta", Permissions: discordgo.PermissionManageRoles})
	provider.join("u1", entities.GuildMembership{GuildID: "4", Name: "Gamma", Permissions: discordgo.PermissionAdministrator})

	reg := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	cache := common.NewCacheService(time.Minute, time.Minute)
	t.Cleanup(func() { _ = cache.Close() })

	return NewGuildService(provider, cache, 5*time.Second, time.Second, reg), provider, reg
}

func TestGuildService_ListGuilds(t *testing.T) {
	svc, _, _ := newGuildFixture(t)

	guilds, err := svc.ListGuilds(context.Background(), actor("u1"))
	require.NoError(t, err)
	require.Len(t, guilds, 4)

	var names []string
	for _, g := range guilds {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Alpha", "beta", "Gamma", "zeta"}, names)

	alpha := guilds[0]
	assert.Equal(t, constants.RoleOwner, alpha.Role)
	assert.Equal(t, "Server Owner", alpha.RoleLabel)
	assert.Equal(t, "https://cdn.discordapp.com/icons/1/ic.png?size=128", alpha.IconURL)
	assert.True(t, alpha.CanManage)
	assert.True(t, alpha.CanSubmit)

	beta := guilds[1]
	assert.Equal(t, constants.RoleModerator, beta.Role)
	assert.False(t, beta.CanManage)
	assert.True(t, beta.CanSubmit)
	assert.Empty(t, beta.IconURL)

	gamma := guilds[2]
	assert.True(t, gamma.CanManage)

	zeta := guilds[3]
	assert.Equal(t, constants.RoleMember, zeta.Role)
	assert.False(t, zeta.CanManage)
	assert.False(t, zeta.CanSubmit)
}

func TestGuildService_ListGuilds_Cooldown(t *testing.T) {
	svc, provider, reg := newGuildFixture(t)
	ctx := context.Background()

	_, err := svc.ListGuilds(ctx, actor("u1"))
	require.NoError(t, err)

	_, err = svc.ListGuilds(ctx, actor("u1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRateLimited)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Greater(t, appErr.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, appErr.RetryAfter, 5*time.Second)

	assert.Equal(t, 1, provider.calls, "throttled calls must not reach Discord")
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.GuildListThrottledTotal))

	// Cooldowns are per user.
	_, err = svc.ListGuilds(ctx, actor("u2"))
	require.NoError(t, err)
}

func TestGuildService_ListGuilds_CooldownExpires(t *testing.T) {
	svc, _, _ := newGuildFixture(t)
	svc.cooldown = 30 * time.Millisecond
	ctx := context.Background()

	_, err := svc.ListGuilds(ctx, actor("u1"))
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)

	_, err = svc.ListGuilds(ctx, actor("u1"))
	require.NoError(t, err)
}

func TestGuildService_ListGuilds_LimiterFailure(t *testing.T) {
	svc, provider, _ := newGuildFixture(t)
	svc.limiter = &mockLimiter{
		acquireFunc: func(context.Context, string, time.Duration) (bool, time.Duration, error) {
			return false, 0, common.Unavailable(constants.ErrCodeCacheUnavailable, "acquire cooldown", errors.New("redis down"))
		},
	}

	_, err := svc.ListGuilds(context.Background(), actor("u1"))
	assert.ErrorIs(t, err, common.ErrUnavailable)
	assert.Zero(t, provider.calls)
}

func TestGuildService_ListGuilds_DiscordFailure(t *testing.T) {
	svc, provider, _ := newGuildFixture(t)
	provider.getMembershipsFunc = func(context.Context, entities.Actor) ([]entities.GuildMembership, error) {
		return nil, common.Unauthorized(constants.ErrCodeSessionRequired, "Discord rejected the access token")
	}

	_, err := svc.ListGuilds(context.Background(), actor("u1"))
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}
