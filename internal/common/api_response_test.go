package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/models/dtos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) dtos.APIResponse {
	t.Helper()
	var body dtos.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondAppError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", InvalidInput(constants.ErrCodeEndBeforeStart, constants.MsgEndBeforeStart), http.StatusBadRequest},
		{"unauthorized", Unauthorized(constants.ErrCodeNotAuthorized, constants.MsgNotAuthorized), http.StatusForbidden},
		{"not found", NotFound(constants.ErrCodeRecordNotFound, "gone"), http.StatusNotFound},
		{"invalid state", InvalidState(constants.ErrCodeNotPending, "approved already"), http.StatusConflict},
		{"limit", LimitExceeded(constants.ErrCodeExperienceLimit, constants.MsgExperienceLimit), http.StatusPaymentRequired},
		{"rate limited", RateLimited(3 * time.Second), http.StatusTooManyRequests},
		{"unavailable", Unavailable(constants.ErrCodeStoreUnavailable, "db", errors.New("down")), http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondAppError(rec, time.Now(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeResponse(t, rec)
			assert.Equal(t, string(constants.APIStatusError), body.Status)
		})
	}
}

func TestRespondAppError_LimitExceededCarriesUpgradeURL(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAppError(rec, time.Now(), LimitExceeded(constants.ErrCodeExperienceLimit, constants.MsgExperienceLimit))

	body := decodeResponse(t, rec)
	assert.Equal(t, constants.UpgradePath, body.UpgradeURL)
	assert.Equal(t, constants.ErrCodeExperienceLimit, body.Code)
}

func TestRespondAppError_RateLimitedSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAppError(rec, time.Now(), RateLimited(2300*time.Millisecond))

	assert.Equal(t, "3", rec.Header().Get("Retry-After"))
	assert.Equal(t, 3, decodeResponse(t, rec).RetryAfter)
}

func TestRespondAppError_UnclassifiedHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAppError(rec, time.Now(), errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, time.Now(), "created", map[string]string{"id": "x"}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "created", body.Message)
	assert.Equal(t, string(constants.APIStatusOk), body.Status)
}
