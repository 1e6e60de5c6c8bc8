package router

import (
	"pointshop/config"
	"pointshop/internal/cache"
	"pointshop/internal/database"
	"pointshop/internal/dialog"
	"pointshop/internal/events"
	"pointshop/internal/handler"
	"pointshop/internal/metrics"
	"pointshop/internal/middleware"
	"pointshop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra carries process-wide collaborators built by main. Zero values are
// replaced with no-op implementations.
type Infra struct {
	Logger    *zap.Logger
	Publisher events.Publisher
	Redis     *redis.Client
	Metrics   *metrics.LedgerMetrics
	Limiter   *middleware.RateLimiter
}

// Services exposes the wired services, mainly for tests and background jobs.
type Services struct {
	Redemption   *service.RedemptionService
	Referral     *service.ReferralService
	Verification *service.VerificationService
	Account      *service.AccountService
	Catalog      *service.CatalogService
	Admin        *service.AdminService
	Dialogs      *dialog.Machine
}

func Setup(cfg *config.Config, db *gorm.DB, infra Infra) (*gin.Engine, *Services) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	log := infra.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if infra.Publisher == nil {
		infra.Publisher = events.Nop{}
	}
	if infra.Limiter == nil {
		infra.Limiter = middleware.NewRateLimiter(30, 10)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.SetHTMLTemplate(handler.VerifyTemplate)

	uow := database.NewUnitOfWork(db, cfg.Ledger)
	settingsCache := cache.NewSettingsCache(infra.Redis, cfg.Redis.SettingsTTL, service.SettingsLoader(uow), log)

	// Services
	svcs := &Services{
		Redemption:   service.NewRedemptionService(uow, cfg.Ledger, infra.Publisher, infra.Metrics, log),
		Referral:     service.NewReferralService(uow, infra.Publisher, infra.Metrics, log, cfg.Bot.Username),
		Verification: service.NewVerificationService(uow, cfg.Verify, infra.Publisher, infra.Metrics, log),
		Account:      service.NewAccountService(uow, log),
		Catalog:      service.NewCatalogService(uow, settingsCache),
	}
	svcs.Admin = service.NewAdminService(uow, svcs.Catalog, infra.Publisher, infra.Metrics, log)
	svcs.Dialogs = dialog.NewMachine(svcs.Admin, cfg.Admin.DialogTTL)

	// Handlers
	healthHandler := handler.NewHealthHandler(db)
	accountHandler := handler.NewAccountHandler(svcs.Account)
	referralHandler := handler.NewReferralHandler(svcs.Referral)
	redemptionHandler := handler.NewRedemptionHandler(svcs.Redemption, svcs.Catalog)
	verifyHandler := handler.NewVerifyHandler(svcs.Verification, cfg.Verify.BaseURL, cfg.Bot.Username)
	adminHandler := handler.NewAdminHandler(cfg, svcs.Admin, svcs.Catalog, svcs.Account, svcs.Dialogs)

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	verify := r.Group("/verify")
	verify.Use(middleware.RateLimit(infra.Limiter))
	{
		verify.GET("", verifyHandler.Page)
		verify.POST("/api", verifyHandler.Consume)
	}

	bot := r.Group("/api/v1/bot")
	bot.Use(middleware.BotKeyRequired(cfg.Bot.APIKey))
	{
		bot.POST("/accounts", accountHandler.Touch)
		bot.GET("/accounts/:id", accountHandler.Get)
		bot.GET("/accounts/:id/redemptions", accountHandler.Redemptions)
		bot.GET("/accounts/:id/verify-link", verifyHandler.Link)
		bot.GET("/accounts/:id/referrals", referralHandler.List)
		bot.POST("/referrals", referralHandler.Record)
		bot.POST("/redemptions", redemptionHandler.Redeem)
		bot.GET("/catalog", redemptionHandler.Catalog)
	}

	r.POST("/admin/login", middleware.RateLimit(infra.Limiter), adminHandler.AdminLogin)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(&cfg.JWT), middleware.AdminRequired(cfg.Admin.IDs))
	{
		admin.GET("/stats", adminHandler.Dashboard)
		admin.GET("/analytics", adminHandler.Analytics)
		admin.GET("/stock", adminHandler.Stock)
		admin.POST("/coupons/:class", adminHandler.AddCoupons)
		admin.DELETE("/coupons/:class", adminHandler.RemoveCoupons)
		admin.GET("/redemptions", adminHandler.ListRedemptions)
		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings/cost/:class", adminHandler.SetCost)
		admin.PUT("/settings/referral-reward", adminHandler.SetReferralReward)
		admin.PUT("/settings/daily-limit", adminHandler.SetDailyLimit)
		admin.PUT("/settings/redemption-enabled", adminHandler.SetRedemptionEnabled)
		admin.GET("/accounts/:id", adminHandler.GetAccount)
		admin.POST("/accounts/:id/points", adminHandler.GrantPoints)
		admin.PATCH("/accounts/:id", adminHandler.UpdateAccount)
		admin.GET("/audit", adminHandler.ListAudit)
		admin.POST("/dialog/begin", adminHandler.DialogBegin)
		admin.POST("/dialog/input", adminHandler.DialogInput)
		admin.DELETE("/dialog", adminHandler.DialogCancel)
	}

	return r, svcs
}
