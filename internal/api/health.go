package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"servercv/dashboard/internal/models/entities"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Verifies the server and its Postgres and Redis connections.
// @Tags Misc
// @Success 200 {object} entities.HealthCheckResponse
// @Failure 503 {object} entities.HealthCheckResponse
// @Router /healthCheck [get]
func HealthCheckHandler(deps map[string]Pinger, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		services := make(map[string]entities.ServiceStatus, len(deps))
		overallStatus := "ok"
		for name, dep := range deps {
			status := entities.ServiceStatus{Status: "ok", Details: "connected"}
			if err := dep.PingContext(ctx); err != nil {
				status = entities.ServiceStatus{Status: "down", Details: err.Error()}
				overallStatus = "down"
			}
			services[name] = status
		}

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}

		code := http.StatusOK
		if overallStatus != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
