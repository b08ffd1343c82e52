package api

import (
	"net/http"
	"strings"
	"time"

	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/models/dtos"

	"github.com/go-chi/chi/v5"
)

// ServerViewHandler handles GET /api/v1/servers/{serverID}
func ServerViewHandler(servers ServerManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		view, err := servers.ServerView(r.Context(), actor, chi.URLParam(r, "serverID"))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Server fetched", view)
	}
}

// ServerSettingsHandler handles POST /api/v1/servers/{serverID}/settings
func ServerSettingsHandler(servers ServerManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.ServerSettingsRequest
		if err := decodeBody(w, r, &req); err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}

		err := servers.SetServerVanity(r.Context(), actor, chi.URLParam(r, "serverID"), strings.TrimSpace(req.VanityURL))
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Server settings updated", nil)
	}
}
