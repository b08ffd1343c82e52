package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"servercv/dashboard/internal/auth"
	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/dtos"
	"servercv/dashboard/internal/models/entities"
	gormModels "servercv/dashboard/internal/models/gorm"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Methods not overridden fall through to the nil interface and panic, which
// flags a handler calling something the test did not expect.
type mockEngine struct {
	ExperienceEngine
	createFunc  func(ctx context.Context, actor entities.Actor, serverID string, payload entities.ExperiencePayload) (*gormModels.Experience, error)
	approveFunc func(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error)
	pinFunc     func(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error)
	unpinFunc   func(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error)
}

func (m *mockEngine) Create(ctx context.Context, actor entities.Actor, serverID string, payload entities.ExperiencePayload) (*gormModels.Experience, error) {
	return m.createFunc(ctx, actor, serverID, payload)
}

func (m *mockEngine) Approve(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error) {
	return m.approveFunc(ctx, actor, id)
}

func (m *mockEngine) Pin(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error) {
	return m.pinFunc(ctx, actor, id)
}

func (m *mockEngine) Unpin(ctx context.Context, actor entities.Actor, id string) (*gormModels.Experience, error) {
	return m.unpinFunc(ctx, actor, id)
}

type mockGuilds struct {
	listGuildsFunc func(ctx context.Context, actor entities.Actor) ([]dtos.GuildView, error)
}

func (m *mockGuilds) ListGuilds(ctx context.Context, actor entities.Actor) ([]dtos.GuildView, error) {
	return m.listGuildsFunc(ctx, actor)
}

type mockServers struct {
	ServerManager
	setVanityFunc func(ctx context.Context, actor entities.Actor, serverID, vanity string) error
}

func (m *mockServers) SetServerVanity(ctx context.Context, actor entities.Actor, serverID, vanity string) error {
	return m.setVanityFunc(ctx, actor, serverID, vanity)
}

type mockAccounts struct {
	AccountManager
	loginFunc         func(ctx context.Context, accessToken string) (*common.SessionData, error)
	logoutFunc        func(ctx context.Context, sessionID string) error
	publicProfileFunc func(ctx context.Context, slug string) (*dtos.PublicProfileView, error)
}

func (m *mockAccounts) Login(ctx context.Context, accessToken string) (*common.SessionData, error) {
	return m.loginFunc(ctx, accessToken)
}

func (m *mockAccounts) Logout(ctx context.Context, sessionID string) error {
	return m.logoutFunc(ctx, sessionID)
}

func (m *mockAccounts) PublicProfile(ctx context.Context, slug string) (*dtos.PublicProfileView, error) {
	return m.publicProfileFunc(ctx, slug)
}

// serve routes a single request through chi so URL params resolve.
func serve(method, pattern, target string, h http.HandlerFunc, body string, claims auth.UserClaims) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if claims != nil {
		req = req.WithContext(auth.SetUserClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func signedIn(userID string) *auth.SessionClaims {
	return &auth.SessionClaims{SessionID: "sess-" + userID, UserIDValue: userID, AccessToken: "token-" + userID}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dtos.APIResponse {
	t.Helper()
	var resp dtos.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateExperienceHandler_Created(t *testing.T) {
	engine := &mockEngine{createFunc: func(_ context.Context, actor entities.Actor, serverID string, payload entities.ExperiencePayload) (*gormModels.Experience, error) {
		assert.Equal(t, "42", actor.UserID)
		assert.Equal(t, "token-42", actor.AccessToken)
		assert.Equal(t, "g1", serverID)
		assert.Equal(t, "Moderator", payload.RoleTitle)
		return &gormModels.Experience{
			ID:        "exp-1",
			UserID:    actor.UserID,
			ServerID:  serverID,
			RoleTitle: payload.RoleTitle,
			Status:    constants.StatusPending,
		}, nil
	}}

	body := `{"role_title":"  Moderator ","start_month":1,"start_year":2024,"description":"ran events"}`
	rec := serve(http.MethodPost, "/servers/{serverID}/experiences", "/servers/g1/experiences",
		CreateExperienceHandler(engine), body, signedIn("42"))

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, string(constants.APIStatusOk), resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "exp-1", data["id"])
}

func TestCreateExperienceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder, resp dtos.APIResponse)
	}{
		{
			name:       "free limit reached",
			err:        common.LimitExceeded(constants.ErrCodeExperienceLimit, "limit"),
			wantStatus: http.StatusPaymentRequired,
			check: func(t *testing.T, _ *httptest.ResponseRecorder, resp dtos.APIResponse) {
				assert.Equal(t, constants.UpgradePath, resp.UpgradeURL)
				assert.Equal(t, constants.ErrCodeExperienceLimit, resp.Code)
			},
		},
		{
			name:       "not a member",
			err:        common.Unauthorized(constants.ErrCodeNotAuthorized, "nope"),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "validation",
			err:        common.InvalidInput(constants.ErrCodeInvalidRequestBody, "bad"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "discord down",
			err:        common.Unavailable(constants.ErrCodeDiscordUnavailable, "discord", errors.New("timeout")),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unclassified",
			err:        errors.New("pq: connection reset"),
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, _ *httptest.ResponseRecorder, resp dtos.APIResponse) {
				assert.NotContains(t, resp.Message, "pq:")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockEngine{createFunc: func(context.Context, entities.Actor, string, entities.ExperiencePayload) (*gormModels.Experience, error) {
				return nil, tt.err
			}}
			rec := serve(http.MethodPost, "/servers/{serverID}/experiences", "/servers/g1/experiences",
				CreateExperienceHandler(engine), `{"role_title":"x"}`, signedIn("42"))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.check != nil {
				tt.check(t, rec, decodeResponse(t, rec))
			}
		})
	}
}

func TestCreateExperienceHandler_RequiresSession(t *testing.T) {
	engine := &mockEngine{}
	rec := serve(http.MethodPost, "/servers/{serverID}/experiences", "/servers/g1/experiences",
		CreateExperienceHandler(engine), `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateExperienceHandler_MalformedBody(t *testing.T) {
	engine := &mockEngine{}
	rec := serve(http.MethodPost, "/servers/{serverID}/experiences", "/servers/g1/experiences",
		CreateExperienceHandler(engine), `{"role_title":`, signedIn("42"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, constants.ErrCodeInvalidRequestBody, decodeResponse(t, rec).Code)
}

func TestApproveExperienceHandler_AlreadyDecided(t *testing.T) {
	engine := &mockEngine{approveFunc: func(_ context.Context, _ entities.Actor, id string) (*gormModels.Experience, error) {
		assert.Equal(t, "exp-9", id)
		return nil, common.InvalidState(constants.ErrCodeNotPending, "already approved")
	}}
	rec := serve(http.MethodPost, "/experiences/{id}/approve", "/experiences/exp-9/approve",
		ApproveExperienceHandler(engine), "", signedIn("1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPinExperienceHandler_Direction(t *testing.T) {
	var pinned, unpinned int
	engine := &mockEngine{
		pinFunc: func(_ context.Context, _ entities.Actor, id string) (*gormModels.Experience, error) {
			pinned++
			return &gormModels.Experience{ID: id, IsPinned: true}, nil
		},
		unpinFunc: func(_ context.Context, _ entities.Actor, id string) (*gormModels.Experience, error) {
			unpinned++
			return &gormModels.Experience{ID: id}, nil
		},
	}

	rec := serve(http.MethodPost, "/experiences/{id}/pin", "/experiences/e1/pin",
		PinExperienceHandler(engine, true), "", signedIn("1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(http.MethodDelete, "/experiences/{id}/pin", "/experiences/e1/pin",
		PinExperienceHandler(engine, false), "", signedIn("1"))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, pinned)
	assert.Equal(t, 1, unpinned)
}

func TestListGuildsHandler_RateLimited(t *testing.T) {
	guilds := &mockGuilds{listGuildsFunc: func(context.Context, entities.Actor) ([]dtos.GuildView, error) {
		return nil, common.RateLimited(1500 * time.Millisecond)
	}}
	rec := serve(http.MethodGet, "/guilds", "/guilds", ListGuildsHandler(guilds), "", signedIn("1"))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, 2, decodeResponse(t, rec).RetryAfter)
}

func TestServerSettingsHandler_TrimsVanity(t *testing.T) {
	var got string
	servers := &mockServers{setVanityFunc: func(_ context.Context, _ entities.Actor, serverID, vanity string) error {
		assert.Equal(t, "g1", serverID)
		got = vanity
		return nil
	}}
	rec := serve(http.MethodPost, "/servers/{serverID}/settings", "/servers/g1/settings",
		ServerSettingsHandler(servers), `{"vanity_url":"  my_server "}`, signedIn("1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "my_server", got)
}

func TestCreateSessionHandler_SetsCookie(t *testing.T) {
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	accounts := &mockAccounts{loginFunc: func(_ context.Context, accessToken string) (*common.SessionData, error) {
		assert.Equal(t, "oauth-token", accessToken)
		return &common.SessionData{SessionID: "s-1", UserID: "42", Username: "pilot", ExpiresAt: expires}, nil
	}}
	rec := serve(http.MethodPost, "/auth/session", "/auth/session",
		CreateSessionHandler(accounts, true), `{"access_token":"oauth-token"}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.Equal(t, "s-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestCreateSessionHandler_BadToken(t *testing.T) {
	accounts := &mockAccounts{loginFunc: func(context.Context, string) (*common.SessionData, error) {
		return nil, common.Unauthorized(constants.ErrCodeSessionRequired, "Discord rejected the access token")
	}}
	rec := serve(http.MethodPost, "/auth/session", "/auth/session",
		CreateSessionHandler(accounts, false), `{"access_token":"nope"}`, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestDeleteSessionHandler_ClearsCookie(t *testing.T) {
	var loggedOut string
	accounts := &mockAccounts{logoutFunc: func(_ context.Context, sessionID string) error {
		loggedOut = sessionID
		return nil
	}}
	rec := serve(http.MethodDelete, "/auth/session", "/auth/session",
		DeleteSessionHandler(accounts), "", signedIn("42"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-42", loggedOut)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestPublicProfileHandler_NotFound(t *testing.T) {
	accounts := &mockAccounts{publicProfileFunc: func(_ context.Context, slug string) (*dtos.PublicProfileView, error) {
		assert.Equal(t, "ghost", slug)
		return nil, common.NotFound(constants.ErrCodeUserNotFound, "User not found")
	}}
	rec := serve(http.MethodGet, "/u/{slug}", "/u/ghost", PublicProfileHandler(accounts), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthCheckHandler(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthCheckHandler(map[string]Pinger{"postgres": up, "redis": up}, time.Now())(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthCheckHandler(map[string]Pinger{"postgres": up, "redis": down}, time.Now())(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp entities.HealthCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "down", resp.Status)
	assert.Equal(t, "down", resp.Services["redis"].Status)
	assert.Equal(t, "ok", resp.Services["postgres"].Status)
}
