// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/tomtom215/eventhub/internal/logging"
)

// readinessTimeout bounds each dependency ping.
const readinessTimeout = 2 * time.Second

// HealthStatus is the readiness report.
type HealthStatus struct {
	Status     string            `json:"status"` // "ready" or "not_ready"
	Components map[string]string `json:"components"`
	Uptime     float64           `json:"uptime_seconds"`
}

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests. It returns 503 when any
// configured store does not answer a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	names := make([]string, 0, len(h.checks))
	for name, p := range h.checks {
		if p != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	status := HealthStatus{
		Status:     "ready",
		Components: make(map[string]string, len(names)),
		Uptime:     time.Since(h.startTime).Seconds(),
	}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := h.checks[name].Ping(ctx)
		cancel()
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("component", name).Msg("Readiness check failed")
			status.Components[name] = "unavailable"
			status.Status = "not_ready"
			continue
		}
		status.Components[name] = "ok"
	}

	if status.Status != "ready" {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service is not ready", status)
		return
	}
	rw.Success(status)
}
