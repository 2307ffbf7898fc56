package handler

import (
	"net/http"

	"github.com/ariamap/ariamap/internal/api/response"
)

// OpsHandler handles liveness and readiness endpoints.
type OpsHandler struct {
	version   string
	buildTime string
}

// NewOpsHandler creates a new ops handler.
func NewOpsHandler(version, buildTime string) *OpsHandler {
	return &OpsHandler{version: version, buildTime: buildTime}
}

// HealthCheck handles GET /health.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, http.StatusOK, "ok", map[string]string{
		"status":     "ok",
		"version":    h.version,
		"build_time": h.buildTime,
	})
}
