package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pointshop/config"
	"pointshop/internal/auth"
	"pointshop/internal/dialog"
	"pointshop/internal/domain"
	"pointshop/internal/middleware"
	"pointshop/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	cfg        *config.Config
	adminSvc   *service.AdminService
	catalogSvc *service.CatalogService
	accountSvc *service.AccountService
	dialogs    *dialog.Machine
}

func NewAdminHandler(
	cfg *config.Config,
	adminSvc *service.AdminService,
	catalogSvc *service.CatalogService,
	accountSvc *service.AccountService,
	dialogs *dialog.Machine,
) *AdminHandler {
	return &AdminHandler{
		cfg:        cfg,
		adminSvc:   adminSvc,
		catalogSvc: catalogSvc,
		accountSvc: accountSvc,
		dialogs:    dialogs,
	}
}

// AdminLogin handles POST /admin/login.
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req struct {
		AdminID int64  `json:"admin_id" binding:"required"`
		APIKey  string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !h.cfg.Admin.IDs[req.AdminID] || !auth.CheckKey(h.cfg.Admin.APIKeyHash, req.APIKey) {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "reason": "unauthorized", "message": "invalid credentials"})
		return
	}
	access, err := auth.GenerateAccessToken(&h.cfg.JWT, req.AdminID, domain.RoleAdmin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "access_token": access, "expires_in": int64(h.cfg.JWT.AccessExpiry.Seconds())})
}

// Dashboard handles GET /admin/stats.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminSvc.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Analytics handles GET /admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	a, err := h.adminSvc.Analytics(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Stock handles GET /admin/stock.
func (h *AdminHandler) Stock(c *gin.Context) {
	stock, err := h.catalogSvc.Stock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stock": stock})
}

type codesRequest struct {
	Codes []string `json:"codes"`

	// Text is an alternative to Codes: one code per line, as pasted by an operator.
	Text string `json:"text"`
}

func (r codesRequest) all() []string {
	return append(append([]string(nil), r.Codes...), service.SplitLines(r.Text)...)
}

// AddCoupons handles POST /admin/coupons/:class.
func (h *AdminHandler) AddCoupons(c *gin.Context) {
	var req codesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	added, stock, err := h.adminSvc.AddCoupons(c.Request.Context(), middleware.GetAdminID(c), c.Param("class"), req.all())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "stock": stock})
}

// RemoveCoupons handles DELETE /admin/coupons/:class.
func (h *AdminHandler) RemoveCoupons(c *gin.Context) {
	var req codesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	removed, stock, err := h.adminSvc.RemoveCoupons(c.Request.Context(), middleware.GetAdminID(c), c.Param("class"), req.all())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "stock": stock})
}

// ListRedemptions handles GET /admin/redemptions?limit=10.
func (h *AdminHandler) ListRedemptions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	list, err := h.adminSvc.RecentRedemptions(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.catalogSvc.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

type valueRequest struct {
	Value *int64 `json:"value" binding:"required"`
}

// SetCost handles PUT /admin/settings/cost/:class.
func (h *AdminHandler) SetCost(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.adminSvc.SetCost(c.Request.Context(), middleware.GetAdminID(c), c.Param("class"), *req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SetReferralReward handles PUT /admin/settings/referral-reward.
func (h *AdminHandler) SetReferralReward(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.adminSvc.SetReferralReward(c.Request.Context(), middleware.GetAdminID(c), *req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SetDailyLimit handles PUT /admin/settings/daily-limit.
func (h *AdminHandler) SetDailyLimit(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.adminSvc.SetDailyLimit(c.Request.Context(), middleware.GetAdminID(c), *req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SetRedemptionEnabled handles PUT /admin/settings/redemption-enabled.
func (h *AdminHandler) SetRedemptionEnabled(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.adminSvc.SetRedemptionEnabled(c.Request.Context(), middleware.GetAdminID(c), *req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetAccount handles GET /admin/accounts/:id.
func (h *AdminHandler) GetAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.accountSvc.GetAccount(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GrantPoints handles POST /admin/accounts/:id/points.
func (h *AdminHandler) GrantPoints(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Delta int64 `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	a, err := h.adminSvc.GrantPoints(c.Request.Context(), middleware.GetAdminID(c), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// UpdateAccount handles PATCH /admin/accounts/:id.
func (h *AdminHandler) UpdateAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Banned *bool `json:"banned" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	a, err := h.adminSvc.SetBanned(c.Request.Context(), middleware.GetAdminID(c), id, *req.Banned)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// ListAudit handles GET /admin/audit.
func (h *AdminHandler) ListAudit(c *gin.Context) {
	_, limit := parsePagination(c)
	list, err := h.adminSvc.AuditTrail(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// DialogBegin handles POST /admin/dialog/begin.
func (h *AdminHandler) DialogBegin(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"`
		Class  string `json:"class"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.dialogs.Begin(middleware.GetAdminID(c), dialog.Action(req.Action), req.Class)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": p})
}

// DialogInput handles POST /admin/dialog/input.
func (h *AdminHandler) DialogInput(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.dialogs.Input(c.Request.Context(), middleware.GetAdminID(c), req.Text)
	switch {
	case errors.Is(err, dialog.ErrNoPendingAction):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "reason": "no_pending_action", "message": err.Error()})
	case errors.Is(err, dialog.ErrInvalidInput):
		badRequest(c, err.Error())
	case err != nil:
		respondError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "result": res})
	}
}

// DialogCancel handles DELETE /admin/dialog.
func (h *AdminHandler) DialogCancel(c *gin.Context) {
	h.dialogs.Cancel(middleware.GetAdminID(c))
	c.Status(http.StatusNoContent)
}
