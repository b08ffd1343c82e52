package api

import (
	"encoding/json"
	"net/http"
	"time"

	"servercv/dashboard/internal/auth"
	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/entities"
)

// maxBodyBytes bounds request bodies; the largest is a premium description.
const maxBodyBytes = 64 << 10

// decodeBody reads a JSON body into v. Malformed bodies are InvalidInput.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.InvalidInput(constants.ErrCodeInvalidRequestBody, "Invalid request body")
	}
	return nil
}

// requireActor returns the signed-in user. It writes the 401 itself when there is none.
func requireActor(w http.ResponseWriter, r *http.Request, initTime time.Time) (entities.Actor, bool) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil {
		common.RespondError(w, initTime, nil, constants.MsgSessionRequired, http.StatusUnauthorized)
		return entities.Actor{}, false
	}
	return claims.Actor(), true
}
