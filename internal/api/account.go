package api

import (
	"net/http"
	"time"

	"servercv/dashboard/internal/auth"
	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/dtos"
)

// CreateSessionHandler handles POST /api/v1/auth/session
//
// The body carries a Discord OAuth access token obtained by the frontend. The
// session id is returned in the body and set as an HttpOnly cookie.
func CreateSessionHandler(accounts AccountManager, secureCookie bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		var req dtos.CreateSessionRequest
		if err := decodeBody(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		session, err := accounts.Login(r.Context(), req.AccessToken)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     constants.SessionCookieName,
			Value:    session.SessionID,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		})

		common.RespondSuccess(w, initTime, "Signed in", dtos.SessionView{
			SessionID: session.SessionID,
			UserID:    session.UserID,
			Username:  session.Username,
			ExpiresAt: session.ExpiresAt,
		}, http.StatusCreated)
	}
}

// DeleteSessionHandler handles DELETE /api/v1/auth/session
func DeleteSessionHandler(accounts AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := auth.GetUserClaims(r.Context()).(*auth.SessionClaims)
		if !ok {
			common.RespondError(w, initTime, nil, constants.MsgSessionRequired, http.StatusUnauthorized)
			return
		}

		if err := accounts.Logout(r.Context(), claims.SessionID); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     constants.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		common.RespondSuccess(w, initTime, "Signed out", nil)
	}
}

// GetSettingsHandler handles GET /api/v1/settings
func GetSettingsHandler(accounts AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		view, err := accounts.Settings(r.Context(), actor.UserID)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Settings fetched", view)
	}
}

// UpdateSettingsHandler handles PUT /api/v1/settings
func UpdateSettingsHandler(accounts AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.SettingsRequest
		if err := decodeBody(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		view, err := accounts.UpdateSettings(r.Context(), actor.UserID, req.VanityURL, req.Socials)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Settings saved", view)
	}
}

// ActivatePremiumHandler handles POST /api/v1/premium/activate
func ActivatePremiumHandler(accounts AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.PremiumActivationRequest
		if err := decodeBody(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		view, err := accounts.ActivatePremium(r.Context(), actor.UserID, req.Token)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Premium activated", view)
	}
}
