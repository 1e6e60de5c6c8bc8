package service_test

import (
	"context"
	"testing"
	"time"

	"pointshop/config"
	"pointshop/internal/database"
	"pointshop/internal/events"
	"pointshop/internal/models"
	"pointshop/internal/repository"
	"pointshop/internal/service"
	"pointshop/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "verify-secret"

type harness struct {
	db      *gorm.DB
	clock   *testutil.Clock
	events  *events.Recorder
	redeem  *service.RedemptionService
	refer   *service.ReferralService
	verify  *service.VerificationService
	account *service.AccountService
	catalog *service.CatalogService
	admin   *service.AdminService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	ledger := testutil.LedgerConfig()
	uow := database.NewUnitOfWork(db, ledger)
	clock := testutil.NewClock(time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC))
	rec := &events.Recorder{}

	h := &harness{db: db, clock: clock, events: rec}
	h.redeem = service.NewRedemptionService(uow, ledger, rec, nil, nil)
	h.redeem.SetClock(clock.Now)
	h.refer = service.NewReferralService(uow, rec, nil, nil, "pointshop_bot")
	h.refer.SetClock(clock.Now)
	h.verify = service.NewVerificationService(uow, config.VerifyConfig{Secret: testSecret, BaseURL: "https://shop.example"}, rec, nil, nil)
	h.verify.SetClock(clock.Now)
	h.account = service.NewAccountService(uow, nil)
	h.account.SetClock(clock.Now)
	h.catalog = service.NewCatalogService(uow, nil)
	h.admin = service.NewAdminService(uow, h.catalog, rec, nil, nil)
	h.admin.SetClock(clock.Now)
	return h
}

func (h *harness) seedAccount(t *testing.T, id, points int64, verified, banned bool) {
	t.Helper()
	now := h.clock.Now()
	require.NoError(t, h.db.Create(&models.Account{
		ID:          id,
		Points:      points,
		Verified:    verified,
		Banned:      banned,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}).Error)
}

func (h *harness) seedCoupons(t *testing.T, class string, codes ...string) {
	t.Helper()
	n, err := repository.NewCouponRepository(h.db).BulkInsert(context.Background(), class, codes, h.clock.Now())
	require.NoError(t, err)
	require.Equal(t, int64(len(codes)), n)
}

func (h *harness) points(t *testing.T, id int64) int64 {
	t.Helper()
	a, err := repository.NewAccountRepository(h.db).GetByID(context.Background(), id)
	require.NoError(t, err)
	return a.Points
}

func (h *harness) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Count(&n).Error)
	return n
}

func (h *harness) stock(t *testing.T, class string) int64 {
	t.Helper()
	s, err := h.catalog.Stock(context.Background())
	require.NoError(t, err)
	return s[class]
}
