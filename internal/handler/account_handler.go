package handler

import (
	"net/http"
	"strconv"

	"pointshop/internal/service"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountSvc *service.AccountService
}

func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Touch handles POST /api/v1/bot/accounts on every inbound message.
func (h *AccountHandler) Touch(c *gin.Context) {
	var req struct {
		AccountID int64  `json:"account_id" binding:"required"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	a, err := h.accountSvc.TouchAccount(c.Request.Context(), req.AccountID, req.Username, req.FirstName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "account": a})
}

// Get handles GET /api/v1/bot/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.accountSvc.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"account_id":     a.ID,
		"points":         a.Points,
		"referral_count": a.ReferralCount,
		"verified":       a.Verified,
		"banned":         a.Banned,
		"first_seen_at":  a.FirstSeenAt,
		"last_seen_at":   a.LastSeenAt,
	})
}

// Redemptions handles GET /api/v1/bot/accounts/:id/redemptions.
func (h *AccountHandler) Redemptions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	list, err := h.accountSvc.ListRedemptions(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "redemptions": list})
}
