package handlers

import (
	"net/http"
	"time"

	"reservo/apperr"
	"reservo/models"
	"reservo/services/hold"
	"reservo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HoldHandler struct {
	Holds  hold.HoldService
	Logger *zap.Logger
}

// Hold handles POST /api/availability/slots/hold. A previous_hold_id swaps the selection.
func (h *HoldHandler) Hold(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.HoldRequest
	if !bind(c, &req) {
		return
	}
	if req.TTLSeconds < 0 {
		utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "ttl_seconds must not be negative"))
		return
	}
	ttl := time.Duration(req.TTLSeconds) * time.Second

	var held *models.Hold
	var err error
	if req.PreviousHoldID != "" {
		held, err = h.Holds.Rehold(c.Request.Context(), a.ID, req.PreviousHoldID, req.SlotIDs, ttl)
	} else {
		held, err = h.Holds.Hold(c.Request.Context(), a.ID, req.SlotIDs, ttl)
	}
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.HoldResponse{Hold: *held, ExpiresAt: held.ExpiresAt, ServerTime: time.Now().UTC()})
}

// Release handles POST /api/availability/slots/release. Releasing twice is harmless.
func (h *HoldHandler) Release(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.ReleaseRequest
	if !bind(c, &req) {
		return
	}
	n, err := h.Holds.Release(c.Request.Context(), a.ID, req.HoldID, req.SlotIDs)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"released": n, "server_time": time.Now().UTC()})
}

// Active handles GET /api/availability/slots/holds: the caller's live holds.
func (h *HoldHandler) Active(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	holds, err := h.Holds.ActiveForHolder(c.Request.Context(), a.ID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	if holds == nil {
		holds = []models.Hold{}
	}
	c.JSON(http.StatusOK, gin.H{"holds": holds, "server_time": time.Now().UTC()})
}
