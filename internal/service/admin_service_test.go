package service_test

import (
	"context"
	"strings"
	"testing"

	"pointshop/internal/domain"
	"pointshop/internal/models"
	"pointshop/internal/service"

	"github.com/stretchr/testify/require"
)

const adminID = 9001

func TestAddCouponsSkipsDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	added, stock, err := h.admin.AddCoupons(ctx, adminID, domain.Class500, []string{"A", " B ", "A", "", "C"})
	require.NoError(t, err)
	require.Equal(t, int64(3), added)
	require.Equal(t, int64(3), stock)

	added, stock, err = h.admin.AddCoupons(ctx, adminID, domain.Class500, service.SplitLines("A\r\nD\n\n"))
	require.NoError(t, err)
	require.Equal(t, int64(1), added)
	require.Equal(t, int64(4), stock)

	// A code already stocked in another class is not duplicated either.
	added, _, err = h.admin.AddCoupons(ctx, adminID, domain.Class1000, []string{"D"})
	require.NoError(t, err)
	require.Zero(t, added)
	require.Zero(t, h.stock(t, domain.Class1000))

	require.Len(t, h.events.OfType(domain.EventInventoryAdded), 2)
	var audits []models.AuditLog
	require.NoError(t, h.db.Where("action = ?", domain.AuditCouponsAdded).Find(&audits).Error)
	require.Len(t, audits, 3)
	require.Equal(t, int64(adminID), audits[0].AdminID)
	require.Contains(t, audits[0].Metadata, `"added":3`)
}

func TestAddCouponsValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, _, err := h.admin.AddCoupons(ctx, adminID, "999", []string{"X"})
	require.ErrorIs(t, err, service.ErrInvalidRequest)
	_, _, err = h.admin.AddCoupons(ctx, adminID, domain.Class500, []string{" ", ""})
	require.ErrorIs(t, err, service.ErrInvalidRequest)
	_, _, err = h.admin.AddCoupons(ctx, adminID, domain.Class500, []string{strings.Repeat("x", 192)})
	require.ErrorIs(t, err, service.ErrInvalidRequest)
	require.Zero(t, h.count(t, &models.CouponItem{}))
	require.Zero(t, h.count(t, &models.AuditLog{}))
}

func TestRemoveCouponsLeavesConsumedCodes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedAccount(t, 1, 10, true, false)
	_, _, err := h.admin.AddCoupons(ctx, adminID, domain.Class500, []string{"R1", "R2", "R3"})
	require.NoError(t, err)

	res, err := h.redeem.Redeem(ctx, 1, domain.Class500)
	require.NoError(t, err)
	require.Equal(t, "R1", res.Code)

	removed, stock, err := h.admin.RemoveCoupons(ctx, adminID, domain.Class500, []string{"R1", "R2", "MISSING"})
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
	require.Equal(t, int64(1), stock)

	var consumed models.CouponItem
	require.NoError(t, h.db.Where("code = ?", "R1").First(&consumed).Error)
	require.True(t, consumed.Consumed)
}

func TestSettingsChangesAreValidatedAndAudited(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.ErrorIs(t, h.admin.SetCost(ctx, adminID, "3", 10), service.ErrInvalidRequest)
	require.ErrorIs(t, h.admin.SetCost(ctx, adminID, domain.Class500, -1), service.ErrInvalidRequest)
	require.ErrorIs(t, h.admin.SetReferralReward(ctx, adminID, -2), service.ErrInvalidRequest)
	require.ErrorIs(t, h.admin.SetDailyLimit(ctx, adminID, -1), service.ErrInvalidRequest)

	require.NoError(t, h.admin.SetCost(ctx, adminID, domain.Class500, 6))
	require.NoError(t, h.admin.SetReferralReward(ctx, adminID, 2))
	require.NoError(t, h.admin.SetDailyLimit(ctx, adminID, 5))
	require.NoError(t, h.admin.SetRedemptionEnabled(ctx, adminID, false))

	s, err := h.catalog.Settings(ctx)
	require.NoError(t, err)
	cost, ok := s.Cost(domain.Class500)
	require.True(t, ok)
	require.Equal(t, int64(6), cost)
	require.Equal(t, int64(2), s.ReferralReward)
	require.Equal(t, int64(5), s.DailyRedeemLimit)
	require.False(t, s.RedemptionEnabled)

	trail, err := h.admin.AuditTrail(ctx, 0)
	require.NoError(t, err)
	require.Len(t, trail, 4)
	for _, entry := range trail {
		require.Equal(t, domain.AuditSettingChanged, entry.Action)
	}
}

func TestGrantPointsNeverGoesNegative(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedAccount(t, 3, 0, true, false)

	a, err := h.admin.GrantPoints(ctx, adminID, 3, 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), a.Points)

	a, err = h.admin.GrantPoints(ctx, adminID, 3, -3)
	require.NoError(t, err)
	require.Equal(t, int64(2), a.Points)

	_, err = h.admin.GrantPoints(ctx, adminID, 3, -10)
	require.ErrorIs(t, err, service.ErrInsufficientPoints)
	require.Equal(t, int64(2), h.points(t, 3))

	_, err = h.admin.GrantPoints(ctx, adminID, 404, 1)
	require.ErrorIs(t, err, service.ErrAccountInvalid)
	_, err = h.admin.GrantPoints(ctx, adminID, 3, 0)
	require.ErrorIs(t, err, service.ErrInvalidRequest)

	var audits int64
	require.NoError(t, h.db.Model(&models.AuditLog{}).Where("action = ?", domain.AuditPointsGranted).Count(&audits).Error)
	require.Equal(t, int64(2), audits)
}

func TestSetBannedBlocksRedemption(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedAccount(t, 4, 50, true, false)
	h.seedCoupons(t, domain.Class1000, "BAN-1")

	_, err := h.admin.SetBanned(ctx, adminID, 404, true)
	require.ErrorIs(t, err, service.ErrAccountInvalid)

	a, err := h.admin.SetBanned(ctx, adminID, 4, true)
	require.NoError(t, err)
	require.True(t, a.Banned)
	_, err = h.redeem.Redeem(ctx, 4, domain.Class1000)
	require.ErrorIs(t, err, service.ErrAccountBanned)

	_, err = h.admin.SetBanned(ctx, adminID, 4, false)
	require.NoError(t, err)
	_, err = h.redeem.Redeem(ctx, 4, domain.Class1000)
	require.NoError(t, err)
}

func TestStatsAndCatalog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedAccount(t, 1, 20, true, false)
	h.seedAccount(t, 2, 5, false, true)
	h.seedCoupons(t, domain.Class1000, "S1", "S2")
	_, err := h.redeem.Redeem(ctx, 1, domain.Class1000)
	require.NoError(t, err)

	stats, err := h.admin.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalAccounts)
	require.Equal(t, int64(1), stats.VerifiedAccounts)
	require.Equal(t, int64(1), stats.BannedAccounts)
	require.Equal(t, int64(15), stats.TotalPoints)
	require.Equal(t, int64(1), stats.TotalRedemptions)
	require.Equal(t, int64(1), stats.Stock[domain.Class1000])
	require.Zero(t, stats.InconsistentItems)

	recent, err := h.admin.RecentRedemptions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "S1", recent[0].Code)

	catalog, err := h.catalog.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, len(domain.CouponClasses))
	for _, entry := range catalog {
		require.Equal(t, domain.DefaultCosts[entry.Class], entry.Cost)
		if entry.Class == domain.Class1000 {
			require.Equal(t, int64(1), entry.Stock)
		} else {
			require.Zero(t, entry.Stock)
		}
	}

	an, err := h.admin.Analytics(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 7, an.Days)
	require.Len(t, an.Redemptions, 1)
	require.Equal(t, int64(1), an.Redemptions[0].Count)
}

func TestNormalizeCodes(t *testing.T) {
	got, err := service.NormalizeCodes([]string{" a", "b ", "a", "\t", "c"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, got)
}
