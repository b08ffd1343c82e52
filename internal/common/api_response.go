package common

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"servercv/dashboard/internal/constants"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/models/dtos"
)

// RespondSuccess sends a standardized JSON success response.
func RespondSuccess(w http.ResponseWriter, initTime time.Time, message string, data any, statusCode ...int) {
	code := http.StatusOK
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusOk),
		Message:      message,
		ResponseTime: GetResponseTime(initTime),
		Data:         data,
	}

	writeJSON(w, code, response)
}

// RespondError sends a standardized JSON error response.
func RespondError(w http.ResponseWriter, initTime time.Time, err error, message string, statusCode ...int) {
	code := http.StatusInternalServerError
	if len(statusCode) > 0 {
		code = statusCode[0]
	}

	msg := message
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      msg,
		ResponseTime: GetResponseTime(initTime),
	}

	writeJSON(w, code, response)
}

// RespondAppError maps a classified error onto its HTTP status. Unclassified
// errors are logged and reported as 500 without leaking their text.
func RespondAppError(w http.ResponseWriter, initTime time.Time, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		logging.Error("Unclassified error", "error", err)
		RespondError(w, initTime, nil, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := dtos.APIResponse{
		Status:       string(constants.APIStatusError),
		Message:      appErr.Message,
		ResponseTime: GetResponseTime(initTime),
		Code:         appErr.Code,
	}

	if errors.Is(appErr, ErrLimitExceeded) {
		response.UpgradeURL = constants.UpgradePath
	}
	if errors.Is(appErr, ErrRateLimited) {
		seconds := int(math.Ceil(appErr.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		response.RetryAfter = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	if errors.Is(appErr, ErrUnavailable) {
		logging.Warn("Dependency unavailable", "code", appErr.Code, "error", appErr.Err)
	}

	writeJSON(w, HTTPStatus(appErr), response)
}

// HTTPStatus returns the status code for an error kind.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON marshals data and writes it to the HTTP response.
func writeJSON(w http.ResponseWriter, code int, body dtos.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("JSON encode failed", "error", err)
	}
}
