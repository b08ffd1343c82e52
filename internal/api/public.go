package api

import (
	"net/http"
	"time"

	"servercv/dashboard/internal/common"

	"github.com/go-chi/chi/v5"
)

// PublicProfileHandler handles GET /public/u/{slug}
func PublicProfileHandler(accounts AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		view, err := accounts.PublicProfile(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Profile fetched", view)
	}
}

// PublicServerHandler handles GET /public/s/{slug}
func PublicServerHandler(accounts AccountManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		view, err := accounts.PublicServer(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Server fetched", view)
	}
}
