package handler

import (
	"net/http"

	"pointshop/internal/service"

	"github.com/gin-gonic/gin"
)

type RedemptionHandler struct {
	redemptionSvc *service.RedemptionService
	catalogSvc    *service.CatalogService
}

func NewRedemptionHandler(redemptionSvc *service.RedemptionService, catalogSvc *service.CatalogService) *RedemptionHandler {
	return &RedemptionHandler{redemptionSvc: redemptionSvc, catalogSvc: catalogSvc}
}

// Redeem handles POST /api/v1/bot/redemptions.
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	var req struct {
		AccountID int64  `json:"account_id" binding:"required"`
		Class     string `json:"class" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.redemptionSvc.Redeem(c.Request.Context(), req.AccountID, req.Class)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"code":        res.Code,
		"cost":        res.Cost,
		"class":       res.Class,
		"redeemed_at": res.RedeemedAt,
	})
}

// Catalog handles GET /api/v1/bot/catalog.
func (h *RedemptionHandler) Catalog(c *gin.Context) {
	entries, err := h.catalogSvc.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "catalog": entries})
}
