package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"servercv/dashboard/internal/auth"
	"servercv/dashboard/internal/logging"
	"servercv/dashboard/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MetricsMiddleware records HTTP metrics for each request and logs its outcome.
// The route pattern is read after the handler ran, when chi has resolved it.
func MetricsMiddleware(metricsReg *metrics.MetricsRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metricsReg.HTTPRequestsInFlight.WithLabelValues(r.Method).Inc()
			defer metricsReg.HTTPRequestsInFlight.WithLabelValues(r.Method).Dec()

			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			routePattern := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				routePattern = rctx.RoutePattern()
			}
			if routePattern == "" {
				routePattern = NormalizeEndpoint(r.URL.Path)
			}

			duration := time.Since(start).Seconds()
			statusCode := strconv.Itoa(wrapped.statusCode)

			metricsReg.HTTPRequestsTotal.WithLabelValues(
				routePattern,
				r.Method,
				statusCode,
			).Inc()

			metricsReg.HTTPRequestDuration.WithLabelValues(
				routePattern,
				r.Method,
			).Observe(duration)

			userID := ""
			if claims := auth.GetUserClaims(r.Context()); claims != nil {
				userID = claims.UserID()
			}

			logging.WithRequest(auth.GetRequestID(r.Context()), userID, routePattern).Infow("HTTP request completed",
				"method", r.Method,
				"status_code", wrapped.statusCode,
				"duration_ms", int(duration*1000),
			)
		})
	}
}

// RequestIDMiddleware adds a request ID to the context if not present
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := auth.SetRequestID(r.Context(), requestID)

		// Add to response header for tracing
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.statusCode = code
		r.written = true
		r.ResponseWriter.WriteHeader(code)
	}
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.statusCode = 200
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// NormalizeEndpoint normalizes an endpoint path for metrics
// Removes IDs to avoid metric cardinality explosion
func NormalizeEndpoint(path string) string {
	// Replace numeric IDs with placeholder
	// e.g., /api/v1/users/12345 -> /api/v1/users/{id}
	parts := strings.Split(path, "/")
	for i, part := range parts {
		// Check if part looks like a numeric ID or UUID
		if isIDLike(part) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

// isIDLike checks if a string looks like an ID (numeric or UUID)
func isIDLike(s string) bool {
	if s == "" {
		return false
	}

	// Check if all numeric
	for _, c := range s {
		if c < '0' || c > '9' {
			// Check if it's UUID-like (contains hyphens)
			if strings.Contains(s, "-") && len(s) == 36 {
				return true
			}
			return false
		}
	}
	return true
}
