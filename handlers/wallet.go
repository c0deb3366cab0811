package handlers

import (
	"net/http"
	"strconv"

	"reservo/apperr"
	"reservo/models"
	"reservo/services/wallet"
	"reservo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WalletHandler struct {
	Ledger wallet.LedgerService
	Logger *zap.Logger
}

// providerOf is the caller for providers; admins name the wallet with ?provider_id.
func providerOf(c *gin.Context, a models.Actor) (string, bool) {
	if a.Role == models.RoleAdmin {
		if id := c.Query("provider_id"); id != "" {
			return id, true
		}
		utils.WriteError(c, apperr.Validation(apperr.CodeInvalidInput, "provider_id is required"))
		return "", false
	}
	return a.ID, true
}

// Get handles GET /api/wallet.
func (h *WalletHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	providerID, ok := providerOf(c, a)
	if !ok {
		return
	}
	w, err := h.Ledger.GetWallet(c.Request.Context(), providerID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// Transactions handles GET /api/wallet/transactions?limit&offset.
func (h *WalletHandler) Transactions(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	providerID, ok := providerOf(c, a)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	txs, err := h.Ledger.ListTransactions(c.Request.Context(), providerID, limit, offset)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

// Verify handles GET /api/wallet/verify: recompute the balance from its transactions.
func (h *WalletHandler) Verify(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	providerID, ok := providerOf(c, a)
	if !ok {
		return
	}
	d, err := h.Ledger.Verify(c.Request.Context(), providerID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
