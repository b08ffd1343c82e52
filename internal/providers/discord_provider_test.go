package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/models/entities"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirectTransport sends every Discord API call to the test server.
type redirectTransport struct {
	target *url.URL
}

func (t redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestProvider(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *DiscordProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	return &DiscordProvider{
		Client:  &http.Client{Transport: redirectTransport{target: target}},
		Timeout: timeout,
	}
}

type guildJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions"`
}

func TestDiscordProvider_GetMemberships(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v9/users/@me/guilds", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]guildJSON{
			{ID: "g1", Name: "Alpha", Icon: "abc", Owner: true, Permissions: "0"},
			{ID: "g2", Name: "Beta", Permissions: "8"},
		})
	}, time.Second)

	memberships, err := provider.GetMemberships(context.Background(), entities.Actor{UserID: "u1", AccessToken: "token-1"})
	require.NoError(t, err)
	require.Len(t, memberships, 2)

	assert.Equal(t, "g1", memberships[0].GuildID)
	assert.True(t, memberships[0].Owner)
	assert.Equal(t, "https://cdn.discordapp.com/icons/g1/abc.png?size=128", memberships[0].IconURL())
	assert.Equal(t, int64(8), memberships[1].Permissions)
}

func TestDiscordProvider_GetMembershipsPaginates(t *testing.T) {
	var afters []string
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after")
		afters = append(afters, after)

		count := guildPageSize
		offset := 0
		if after != "" {
			offset, _ = strconv.Atoi(after)
			count = 3
		}
		page := make([]guildJSON, 0, count)
		for i := 1; i <= count; i++ {
			page = append(page, guildJSON{ID: strconv.Itoa(offset + i), Name: fmt.Sprintf("G%d", offset+i), Permissions: "0"})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}, time.Second)

	memberships, err := provider.GetMemberships(context.Background(), entities.Actor{AccessToken: "t"})
	require.NoError(t, err)

	assert.Len(t, memberships, guildPageSize+3)
	assert.Equal(t, []string{"", strconv.Itoa(guildPageSize)}, afters)
}

func TestDiscordProvider_RejectedTokenIsUnauthorized(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "401: Unauthorized", "code": 0}`))
	}, time.Second)

	_, err := provider.GetMemberships(context.Background(), entities.Actor{AccessToken: "expired"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestDiscordProvider_SlowDiscordIsUnavailable(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, 50*time.Millisecond)

	_, err := provider.GetMemberships(context.Background(), entities.Actor{AccessToken: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.True(t, appErr.Retryable())
}

func TestDiscordProvider_EmptyTokenIsUnauthorized(t *testing.T) {
	provider := NewDiscordProvider(time.Second)

	_, err := provider.GetMemberships(context.Background(), entities.Actor{UserID: "u1"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestDiscordProvider_GetCurrentUser(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v9/users/@me", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "42", "username": "mod_jane", "global_name": "Jane", "avatar": "av1"}`))
	}, time.Second)

	u, err := provider.GetCurrentUser(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, &DiscordUser{ID: "42", Username: "Jane", Avatar: "av1"}, u)
}

func TestDiscordBotProvider_GetGuild(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bot bot-token", r.Header.Get("Authorization"))
		if r.URL.Path != "/api/v9/guilds/g1" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Unknown Guild", "code": 10004}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "g1", "name": "Alpha", "icon": "abc"}`))
	}))
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	session, err := discordgo.New("Bot bot-token")
	require.NoError(t, err)
	session.Client = &http.Client{Transport: redirectTransport{target: target}}
	session.StateEnabled = false
	provider := NewDiscordBotProvider(session, time.Second)

	info, err := provider.GetGuild(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, &GuildInfo{ID: "g1", Name: "Alpha", Icon: "abc"}, info)

	_, err = provider.GetGuild(context.Background(), "g2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
