package service_test

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"pointshop/internal/auth"
	"pointshop/internal/domain"
	"pointshop/internal/models"
	"pointshop/internal/repository"
	"pointshop/internal/service"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func TestVerificationLinkCarriesToken(t *testing.T) {
	h := newHarness(t)
	link, err := h.verify.VerificationLink(42)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	require.Equal(t, "shop.example", u.Host)
	require.Equal(t, "/verify", u.Path)
	require.Equal(t, "42", u.Query().Get("account_id"))
	require.Equal(t, auth.SignAccount([]byte(testSecret), 42), u.Query().Get("token"))
	require.True(t, h.verify.CheckToken(42, u.Query().Get("token")))
	require.False(t, h.verify.CheckToken(43, u.Query().Get("token")))

	_, err = h.verify.IssueVerificationToken(0)
	require.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestConsumeVerificationBindsAndVerifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token, err := h.verify.IssueVerificationToken(7)
	require.NoError(t, err)

	require.NoError(t, h.verify.ConsumeVerification(ctx, 7, token, "device-alpha-01"))

	a, err := repository.NewAccountRepository(h.db).GetByID(ctx, 7)
	require.NoError(t, err)
	require.True(t, a.Verified)
	require.NotNil(t, a.VerifiedAt)

	b, err := repository.NewBindingRepository(h.db).GetByAccount(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, b)
	require.Equal(t, "device-alpha-01", b.DeviceID)
	require.Len(t, h.events.OfType(domain.EventDeviceBound), 1)

	// Resubmitting the same pair succeeds without a second binding.
	require.NoError(t, h.verify.ConsumeVerification(ctx, 7, token, "device-alpha-01"))
	require.Equal(t, int64(1), h.count(t, &models.DeviceBinding{}))
	require.Len(t, h.events.OfType(domain.EventDeviceBound), 1)
}

func TestConsumeVerificationKeepsBindingOneToOne(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tokenA, _ := h.verify.IssueVerificationToken(1)
	tokenB, _ := h.verify.IssueVerificationToken(2)

	require.NoError(t, h.verify.ConsumeVerification(ctx, 1, tokenA, "shared-device"))

	err := h.verify.ConsumeVerification(ctx, 2, tokenB, "shared-device")
	require.ErrorIs(t, err, service.ErrDeviceAlreadyBound)
	require.Equal(t, domain.FailureDeviceAlreadyBound, service.Kind(err))

	err = h.verify.ConsumeVerification(ctx, 1, tokenA, "second-device")
	require.ErrorIs(t, err, service.ErrAccountAlreadyBound)

	_, err = repository.NewAccountRepository(h.db).GetByID(ctx, 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound, "the rejected attempt leaves no account behind")
	require.Equal(t, int64(1), h.count(t, &models.DeviceBinding{}))

	bound, err := repository.NewBindingRepository(h.db).GetByDevice(ctx, "second-device")
	require.NoError(t, err)
	require.Nil(t, bound)
}

func TestConsumeVerificationConcurrentClaimsOnOneDevice(t *testing.T) {
	h := newHarness(t)
	var (
		mu    sync.Mutex
		kinds = map[domain.Failure]int{}
	)
	var g errgroup.Group
	for id := int64(1); id <= 4; id++ {
		g.Go(func() error {
			token, _ := h.verify.IssueVerificationToken(id)
			err := h.verify.ConsumeVerification(context.Background(), id, token, "contested-device")
			mu.Lock()
			kinds[service.Kind(err)]++
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, map[domain.Failure]int{domain.FailureNone: 1, domain.FailureDeviceAlreadyBound: 3}, kinds)
	require.Equal(t, int64(1), h.count(t, &models.DeviceBinding{}))

	var verified int64
	require.NoError(t, h.db.Model(&models.Account{}).Where("verified = ?", true).Count(&verified).Error)
	require.Equal(t, int64(1), verified)
}

func TestConsumeVerificationConcurrentDevicesForOneAccount(t *testing.T) {
	h := newHarness(t)
	token, _ := h.verify.IssueVerificationToken(7)
	var (
		mu    sync.Mutex
		kinds = map[domain.Failure]int{}
	)
	var g errgroup.Group
	for _, device := range []string{"device-one-111", "device-two-222"} {
		g.Go(func() error {
			err := h.verify.ConsumeVerification(context.Background(), 7, token, device)
			mu.Lock()
			kinds[service.Kind(err)]++
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, map[domain.Failure]int{domain.FailureNone: 1, domain.FailureAccountAlreadyBound: 1}, kinds)
	require.Equal(t, int64(1), h.count(t, &models.DeviceBinding{}))
}

func TestConsumeVerificationInsertConflictIsDeviceAlreadyBound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.verify.SetBeforeBind(func(tx *gorm.DB) {
		txCtx := tx.Statement.Context
		require.NoError(t, repository.NewAccountRepository(tx).Ensure(txCtx, 3, h.clock.Now()))
		require.NoError(t, repository.NewBindingRepository(tx).Create(txCtx,
			&models.DeviceBinding{DeviceID: "raced-device-1", AccountID: 3, CreatedAt: h.clock.Now()}))
	})

	token, _ := h.verify.IssueVerificationToken(1)
	err := h.verify.ConsumeVerification(ctx, 1, token, "raced-device-1")
	require.ErrorIs(t, err, service.ErrDeviceAlreadyBound)
	require.Zero(t, h.count(t, &models.DeviceBinding{}))
	require.Zero(t, h.count(t, &models.Account{}))
	require.Empty(t, h.events.OfType(domain.EventDeviceBound))
}

func TestConsumeVerificationRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	forged := auth.SignAccount([]byte("other-secret"), 5)

	err := h.verify.ConsumeVerification(ctx, 5, forged, "device-forged-1")
	require.ErrorIs(t, err, service.ErrInvalidSignature)
	require.Zero(t, h.count(t, &models.Account{}), "nothing is written for a bad signature")
	require.Zero(t, h.count(t, &models.DeviceBinding{}))

	token, _ := h.verify.IssueVerificationToken(5)
	require.ErrorIs(t, h.verify.ConsumeVerification(ctx, 5, token, "bad id!"), service.ErrInvalidRequest)
	require.ErrorIs(t, h.verify.ConsumeVerification(ctx, 5, "", "device-forged-1"), service.ErrInvalidRequest)
}

func TestVerifiedAccountCanRedeem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedAccount(t, 88, 30, false, false)
	h.seedCoupons(t, domain.Class1000, "AFTER-VERIFY")

	_, err := h.redeem.Redeem(ctx, 88, domain.Class1000)
	require.ErrorIs(t, err, service.ErrNotVerified)

	token, _ := h.verify.IssueVerificationToken(88)
	require.NoError(t, h.verify.ConsumeVerification(ctx, 88, token, "device-88-phone"))

	res, err := h.redeem.Redeem(ctx, 88, domain.Class1000)
	require.NoError(t, err)
	require.Equal(t, "AFTER-VERIFY", res.Code)
	require.Equal(t, int64(30), h.points(t, 88)+res.Cost)
}
