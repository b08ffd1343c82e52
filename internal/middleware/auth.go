package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"servercv/dashboard/internal/auth"
	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
)

// SessionReader looks up signed-in sessions.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*common.SessionData, error)
}

// AuthMiddleware resolves the session from the session cookie, or from an
// "Authorization: Bearer <session id>" header for non-browser clients.
func AuthMiddleware(sessions SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			initTime := time.Now()

			sessionID := sessionIDFromRequest(r)
			if sessionID == "" {
				common.RespondError(w, initTime, nil, constants.MsgSessionRequired, http.StatusUnauthorized)
				return
			}

			session, err := sessions.GetSession(r.Context(), sessionID)
			if err != nil {
				if errors.Is(err, common.ErrUnauthorized) {
					common.RespondError(w, initTime, nil, constants.MsgSessionRequired, http.StatusUnauthorized)
					return
				}
				common.RespondAppError(w, initTime, err)
				return
			}

			ctx := auth.SetUserClaims(r.Context(), &auth.SessionClaims{
				SessionID:   session.SessionID,
				UserIDValue: session.UserID,
				Username:    session.Username,
				AccessToken: session.AccessToken,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionIDFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
