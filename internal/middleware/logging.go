package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"servercv/dashboard/internal/auth"
	"servercv/dashboard/internal/common"
	"servercv/dashboard/internal/logging"
)

// RecoverMiddleware turns a handler panic into a logged 500.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.Error("Handler panicked",
					"request_id", auth.GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				common.RespondError(w, initTime, nil, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
