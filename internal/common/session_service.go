package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionData is a signed-in dashboard user. AccessToken is the Discord OAuth
// token used to read the user's guild memberships.
type SessionData struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	AccessToken string    `json:"access_token"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SessionService manages user sessions in Redis
type SessionService struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSessionService(redis *redis.Client, ttl time.Duration) *SessionService {
	return &SessionService{
		redis: redis,
		ttl:   ttl,
	}
}

func sessionKey(sessionID string) string {
	return string(constants.CachePrefixSession) + sessionID
}

// CreateSession stores a new session and returns its id
func (s *SessionService) CreateSession(ctx context.Context, userID, username, accessToken string) (*SessionData, error) {
	now := time.Now()
	session := &SessionData{
		SessionID:   uuid.New().String(),
		UserID:      userID,
		Username:    username,
		AccessToken: accessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	logging.Info("Session created", "session_id", session.SessionID, "user_id", userID)
	return session, nil
}

// GetSession retrieves a session. Unknown or expired sessions are Unauthorized.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*SessionData, error) {
	val, err := s.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, Unauthorized(constants.ErrCodeSessionRequired, "session not found")
		}
		return nil, Unavailable(constants.ErrCodeCacheUnavailable, "get session", err)
	}

	var session SessionData
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.DeleteSession(ctx, sessionID)
		return nil, Unauthorized(constants.ErrCodeSessionRequired, "session expired")
	}

	return &session, nil
}

func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return Unavailable(constants.ErrCodeCacheUnavailable, "delete session", err)
	}
	return nil
}

// RefreshSession extends the session expiration
func (s *SessionService) RefreshSession(ctx context.Context, sessionID string) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	session.ExpiresAt = time.Now().Add(s.ttl)
	return s.save(ctx, session)
}

func (s *SessionService) save(ctx context.Context, session *SessionData) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.redis.Set(ctx, sessionKey(session.SessionID), data, s.ttl).Err(); err != nil {
		return Unavailable(constants.ErrCodeCacheUnavailable, "store session", err)
	}
	return nil
}
