// File: handlers/bundle.go
package handlers

import (
	"net/http"

	"reservo/apperr"
	"reservo/middleware"
	"reservo/models"
	"reservo/utils"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers the router mounts.
type HandlerBundle struct {
	Availability *AvailabilityHandler
	Holds        *HoldHandler
	Bookings     *BookingHandler
	Catalogue    *CatalogueHandler
	Wallet       *WalletHandler
	Health       *HealthHandler
}

// bind decodes the JSON body into dst, writing a validation error and returning false on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "invalid request payload: %v", err))
		return false
	}
	return true
}

// actor returns the authenticated caller or writes 401.
func actor(c *gin.Context) (models.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "unauthenticated", "Authentication required")
	}
	return a, ok
}
