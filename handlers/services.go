package handlers

import (
	"net/http"

	"reservo/models"
	"reservo/services/provider"
	"reservo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogueHandler struct {
	Catalogue provider.CatalogueService
	Logger    *zap.Logger
}

// ListServices handles GET /api/providers/:provider/services.
func (h *CatalogueHandler) ListServices(c *gin.Context) {
	list, err := h.Catalogue.ListServices(c.Request.Context(), c.Param("provider"))
	if err != nil {
		h.Logger.Error("ListServices: failed to fetch services", zap.Error(err))
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": list})
}

// SetServices handles PUT /api/providers/:provider/services.
func (h *CatalogueHandler) SetServices(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req models.SetServicesRequest
	if !bind(c, &req) {
		return
	}
	list, err := h.Catalogue.SetServices(c.Request.Context(), a, c.Param("provider"), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": list})
}
