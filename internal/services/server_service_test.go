package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/db/repositories"
	"servercv/dashboard/internal/models/dtos"
	"servercv/dashboard/internal/models/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock NotificationConfigStore
type mockChannelStore struct {
	getFunc func(ctx context.Context, serverID string) (*entities.NotificationConfig, error)
}

func (m *mockChannelStore) Get(ctx context.Context, serverID string) (*entities.NotificationConfig, error) {
	return m.getFunc(ctx, serverID)
}

func noChannel() *mockChannelStore {
	return &mockChannelStore{getFunc: func(context.Context, string) (*entities.NotificationConfig, error) {
		return nil, common.NotFound(constants.ErrCodeServerNotFound, "no notification config")
	}}
}

func newServerFixture(t *testing.T, channels NotificationConfigStore) (*engineFixture, *ServerService, *repositories.ServerRepositoryGORM, *common.CacheService) {
	t.Helper()
	f := newEngineFixture(t)
	servers := repositories.NewServerRepositoryGORM(f.db)
	cache := common.NewCacheService(time.Minute, time.Minute)
	t.Cleanup(func() { _ = cache.Close() })
	return f, NewServerService(f.svc, servers, channels, cache), servers, cache
}

func findManaged(t *testing.T, views []dtos.ManagedExperienceView, id string) dtos.ManagedExperienceView {
	t.Helper()
	for _, v := range views {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("record %s not in view", id)
	return dtos.ManagedExperienceView{}
}

func TestServerService_ServerView_RequiresManageRole(t *testing.T) {
	_, svc, _, _ := newServerFixture(t, noChannel())
	ctx := context.Background()

	for _, userID := range []string{"mod", "member"} {
		_, err := svc.ServerView(ctx, actor(userID), testGuild)
		assertKind(t, err, common.ErrUnauthorized, constants.ErrCodeNotAuthorized)
	}

	_, err := svc.ServerView(ctx, actor("admin"), "not-my-guild")
	assertKind(t, err, common.ErrUnauthorized, constants.ErrCodeNotGuildMember)
}

func TestServerService_ServerView_AdministratorFlags(t *testing.T) {
	f, svc, servers, _ := newServerFixture(t, noChannel())
	ctx := context.Background()

	modPending := f.create(t, "mod", payload("Mod", 1, 2023))
	ownPending := f.create(t, "admin", payload("Admin", 1, 2023))
	ownerPending := f.create(t, "owner", payload("Founder", 1, 2020))
	modApproved := f.approved(t, "mod", payload("Mod", 1, 2021))

	vanity := "testguild"
	require.NoError(t, servers.SetVanity(ctx, testGuild, &vanity))

	view, err := svc.ServerView(ctx, actor("admin"), testGuild)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleAdministrator, view.ActorRole)
	assert.False(t, view.IsOwner)
	assert.Nil(t, view.VanityURL, "vanity is only shown to premium owners")
	assert.Nil(t, view.NotificationChannelID)
	assert.Len(t, view.Pending, 3)
	assert.Len(t, view.Approved, 1)

	v := findManaged(t, view.Pending, modPending.ID)
	assert.True(t, v.CanApprove)
	assert.True(t, v.CanReject)
	assert.True(t, v.CanEdit)
	assert.False(t, v.CanDelete)

	v = findManaged(t, view.Pending, ownPending.ID)
	assert.False(t, v.CanApprove)
	assert.True(t, v.CanReject)
	assert.True(t, v.CanEdit, "owners may edit their own pending record")
	assert.True(t, v.CanDelete)

	v = findManaged(t, view.Pending, ownerPending.ID)
	assert.False(t, v.CanApprove)
	assert.False(t, v.CanEdit)

	v = findManaged(t, view.Approved, modApproved.ID)
	assert.False(t, v.CanApprove)
	assert.False(t, v.CanReject)
	assert.True(t, v.CanEdit)
	assert.False(t, v.CanDelete)
}

func TestServerService_ServerView_PremiumOwner(t *testing.T) {
	channels := &mockChannelStore{getFunc: func(_ context.Context, serverID string) (*entities.NotificationConfig, error) {
		return &entities.NotificationConfig{ServerID: serverID, ChannelID: "chan-1"}, nil
	}}
	f, svc, servers, _ := newServerFixture(t, channels)
	ctx := context.Background()

	f.makePremium(t, "owner")
	vanity := "testguild"
	require.NoError(t, servers.SetVanity(ctx, testGuild, &vanity))
	approved := f.approved(t, "mod", payload("Mod", 1, 2021))

	view, err := svc.ServerView(ctx, actor("owner"), testGuild)
	require.NoError(t, err)
	assert.True(t, view.IsOwner)
	require.NotNil(t, view.VanityURL)
	assert.Equal(t, "testguild", *view.VanityURL)
	require.NotNil(t, view.NotificationChannelID)
	assert.Equal(t, "chan-1", *view.NotificationChannelID)

	v := findManaged(t, view.Approved, approved.ID)
	assert.True(t, v.CanDelete)
}

func TestServerService_ServerView_ChannelStoreFailure(t *testing.T) {
	channels := &mockChannelStore{getFunc: func(context.Context, string) (*entities.NotificationConfig, error) {
		return nil, common.Unavailable(constants.ErrCodeStoreUnavailable, "get notification config", errors.New("db down"))
	}}
	_, svc, _, _ := newServerFixture(t, channels)

	_, err := svc.ServerView(context.Background(), actor("owner"), testGuild)
	assert.ErrorIs(t, err, common.ErrUnavailable)
}

func TestServerService_ServerView_HungChannelStoreTimesOut(t *testing.T) {
	channels := &mockChannelStore{getFunc: func(ctx context.Context, _ string) (*entities.NotificationConfig, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	f, svc, _, _ := newServerFixture(t, channels)
	f.svc.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := svc.ServerView(context.Background(), actor("owner"), testGuild)
	assertKind(t, err, common.ErrUnavailable, constants.ErrCodeStoreUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestServerService_SetServerVanity(t *testing.T) {
	f, svc, servers, cache := newServerFixture(t, noChannel())
	ctx := context.Background()

	err := svc.SetServerVanity(ctx, actor("owner"), testGuild, "mine")
	assertKind(t, err, common.ErrLimitExceeded, constants.ErrCodeVanityPremium)

	f.makePremium(t, "owner")
	f.makePremium(t, "admin")

	err = svc.SetServerVanity(ctx, actor("admin"), testGuild, "mine")
	assertKind(t, err, common.ErrUnauthorized, constants.ErrCodeNotAuthorized)

	err = svc.SetServerVanity(ctx, actor("owner"), testGuild, "has space")
	assertKind(t, err, common.ErrInvalidInput, constants.ErrCodeInvalidVanity)

	taken := "taken"
	require.NoError(t, servers.SetVanity(ctx, "other-guild", &taken))
	err = svc.SetServerVanity(ctx, actor("owner"), testGuild, "taken")
	assertKind(t, err, common.ErrInvalidInput, constants.ErrCodeVanityTaken)

	require.NoError(t, svc.SetServerVanity(ctx, actor("owner"), testGuild, "my_guild_1"))
	server, err := servers.Get(ctx, testGuild)
	require.NoError(t, err)
	require.NotNil(t, server.VanityURL)
	assert.Equal(t, "my_guild_1", *server.VanityURL)

	// Setting the same value again is not a conflict with itself.
	require.NoError(t, svc.SetServerVanity(ctx, actor("owner"), testGuild, "my_guild_1"))

	cache.Set(ctx, string(constants.CachePrefixServerSlug)+"my_guild_1", testGuild, time.Minute)
	require.NoError(t, svc.SetServerVanity(ctx, actor("owner"), testGuild, ""))
	server, err = servers.Get(ctx, testGuild)
	require.NoError(t, err)
	assert.Nil(t, server.VanityURL)

	_, cached := cache.Get(ctx, string(constants.CachePrefixServerSlug)+"my_guild_1")
	assert.False(t, cached, "old slug must be evicted")
}
