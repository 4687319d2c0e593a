package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dtroode/shopkeeper-auth/internal/api/http/response"
	"github.com/dtroode/shopkeeper-auth/internal/logger"
	"github.com/dtroode/shopkeeper-auth/internal/model"
)

const readinessTimeout = 2 * time.Second

// Health serves liveness and readiness probes.
type Health struct {
	deps   map[string]model.Pinger
	logger *logger.Logger
}

// NewHealth creates a Health handler checking deps on readiness.
func NewHealth(deps map[string]model.Pinger, logger *logger.Logger) *Health {
	return &Health{deps: deps, logger: logger}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Live handles GET /healthz.
func (h *Health) Live(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Ready handles GET /readyz.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.deps))}
	status := http.StatusOK

	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn("Health: dependency is not ready", "dependency", name, "error", err.Error())
			resp.Checks[name] = "unavailable"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	response.WriteJSON(w, status, resp)
}
