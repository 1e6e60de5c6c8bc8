package handler

import (
	"net/http"
	"strconv"

	"pointshop/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralSvc *service.ReferralService
}

func NewReferralHandler(referralSvc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralSvc: referralSvc}
}

// Record handles POST /api/v1/bot/referrals with the payload of a first-contact deep link.
func (h *ReferralHandler) Record(c *gin.Context) {
	var req struct {
		AccountID  int64 `json:"account_id" binding:"required"`
		ReferrerID int64 `json:"referrer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	credited, err := h.referralSvc.RecordReferral(c.Request.Context(), req.AccountID, req.ReferrerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "credited": credited})
}

// List returns the accounts the given referrer has brought in.
// GET /api/v1/bot/accounts/:id/referrals
func (h *ReferralHandler) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	referrals, err := h.referralSvc.ListReferrals(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(referrals))
	for _, ref := range referrals {
		out = append(out, gin.H{
			"referred_user": gin.H{
				"account_id": ref.ReferredUserID,
				"username":   ref.ReferredUser.Username,
				"first_name": ref.ReferredUser.FirstName,
			},
			"reward":     ref.Reward,
			"created_at": ref.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"referrals": out,
		"total":     len(out),
		"link":      h.referralSvc.ReferralLink(id),
	})
}
