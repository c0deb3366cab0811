package handlers

import (
	"net/http"
	"strconv"
	"time"

	"reservo/apperr"
	"reservo/models"
	"reservo/services/calendar"
	"reservo/services/slots"
	"reservo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AvailabilityHandler struct {
	Slots    slots.SlotService
	Calendar calendar.CalendarService
	Logger   *zap.Logger
}

// MonthCalendar handles GET /api/availability/calendar/:provider?month&year.
func (h *AvailabilityHandler) MonthCalendar(c *gin.Context) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	var err error
	if v := c.Query("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "year must be a number"))
			return
		}
	}
	if v := c.Query("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "month must be a number"))
			return
		}
	}

	m, err := h.Calendar.Month(c.Request.Context(), c.Param("provider"), year, month)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DaySlots handles GET /api/availability/providers/:provider/timeslots?date.
func (h *AvailabilityHandler) DaySlots(c *gin.Context) {
	providerID := c.Param("provider")
	date := c.Query("date")
	if date == "" {
		utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "date query parameter is required"))
		return
	}
	list, err := h.Slots.ListDaySlots(c.Request.Context(), providerID, date)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DaySlotsResponse{
		ProviderID: providerID,
		Date:       date,
		Slots:      list,
		ServerTime: time.Now().UTC(),
	})
}

// GetRules handles GET /api/availability/providers/:provider/rules.
func (h *AvailabilityHandler) GetRules(c *gin.Context) {
	sched, err := h.Slots.GetRules(c.Request.Context(), c.Param("provider"))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

// SetRules handles PUT /api/availability/providers/:provider/rules.
func (h *AvailabilityHandler) SetRules(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.SetRulesRequest
	if !bind(c, &req) {
		return
	}
	sched, err := h.Slots.SetRules(c.Request.Context(), a, c.Param("provider"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	h.Logger.Info("Weekly rules replaced", zap.String("providerId", sched.ProviderID), zap.Int("rules", len(sched.Rules)))
	c.JSON(http.StatusOK, sched)
}

// ListOverrides handles GET /api/availability/providers/:provider/overrides?from&to.
func (h *AvailabilityHandler) ListOverrides(c *gin.Context) {
	list, err := h.Slots.ListOverrides(c.Request.Context(), c.Param("provider"), c.Query("from"), c.Query("to"))
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	if list == nil {
		list = []models.DateOverride{}
	}
	c.JSON(http.StatusOK, gin.H{"overrides": list})
}

// UpsertOverride handles PUT /api/availability/providers/:provider/overrides/:date.
func (h *AvailabilityHandler) UpsertOverride(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var o models.DateOverride
	if !bind(c, &o) {
		return
	}
	o.ProviderID = c.Param("provider")
	o.Date = c.Param("date")
	saved, err := h.Slots.UpsertOverride(c.Request.Context(), a, o)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// DeleteOverride handles DELETE /api/availability/providers/:provider/overrides/:date.
func (h *AvailabilityHandler) DeleteOverride(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.Slots.DeleteOverride(c.Request.Context(), a, c.Param("provider"), c.Param("date")); err != nil {
		utils.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
