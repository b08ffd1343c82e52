package api

import (
	"net/http"
	"time"

	"servercv/dashboard/internal/common"
)

// ListGuildsHandler handles GET /api/v1/guilds
//
// Listing is throttled per user; a repeated call inside the cooldown gets 429
// with a Retry-After header.
func ListGuildsHandler(guilds GuildLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := requireActor(w, r, initTime)
		if !ok {
			return
		}

		views, err := guilds.ListGuilds(r.Context(), actor)
		if err != nil {
			common.RespondAppError(w, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Guilds fetched", views)
	}
}
