package handlers

import (
	"net/http"

	"reservo/utils"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	Checks map[string]utils.HealthCheck
}

// Health handles GET /health. It probes dependencies live so a failed store shows immediately.
func (h *HealthHandler) Health(c *gin.Context) {
	status := utils.RunHealthChecks(c.Request.Context(), h.Checks)
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": statusText(status.Healthy), "checks": status.Checks, "checked_at": status.CheckedAt})
}

func statusText(ok bool) string {
	if ok {
		return "ok"
	}
	return "degraded"
}
