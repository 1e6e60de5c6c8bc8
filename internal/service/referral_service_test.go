package service_test

import (
	"context"
	"sync/atomic"
	"testing"

	"pointshop/internal/domain"
	"pointshop/internal/models"
	"pointshop/internal/repository"
	"pointshop/internal/service"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRecordReferralCreditsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ok, err := h.refer.RecordReferral(ctx, 200, 100)
	require.NoError(t, err)
	require.True(t, ok)

	referrer, err := repository.NewAccountRepository(h.db).GetByID(ctx, 100)
	require.NoError(t, err, "referrer is created on demand")
	require.Equal(t, int64(domain.DefaultReferralReward), referrer.Points)
	require.Equal(t, int64(1), referrer.ReferralCount)

	referred, err := repository.NewAccountRepository(h.db).GetByID(ctx, 200)
	require.NoError(t, err)
	require.NotNil(t, referred.ReferrerID)
	require.Equal(t, int64(100), *referred.ReferrerID)

	ok, err = h.refer.RecordReferral(ctx, 200, 100)
	require.NoError(t, err)
	require.False(t, ok, "redelivery is a no-op")

	ok, err = h.refer.RecordReferral(ctx, 200, 300)
	require.NoError(t, err)
	require.False(t, ok, "referrer is set at most once")

	require.Equal(t, int64(1), h.points(t, 100))
	require.Equal(t, int64(1), h.count(t, &models.Referral{}))
	var others int64
	require.NoError(t, h.db.Model(&models.Account{}).Where("id = ?", 300).Count(&others).Error)
	require.Zero(t, others)
	require.Len(t, h.events.OfType(domain.EventReferralCredited), 1)
}

func TestRecordReferralConcurrentDeliveries(t *testing.T) {
	h := newHarness(t)
	var credited atomic.Int32
	var g errgroup.Group
	for i := 0; i < 6; i++ {
		g.Go(func() error {
			ok, err := h.refer.RecordReferral(context.Background(), 501, 500)
			if ok {
				credited.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), credited.Load())
	require.Equal(t, int64(1), h.points(t, 500))
	require.Equal(t, int64(1), h.count(t, &models.Referral{}))
}

func TestRecordReferralRejectsSelfAndBadIDs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ok, err := h.refer.RecordReferral(ctx, 9, 9)
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, h.count(t, &models.Account{}))

	_, err = h.refer.RecordReferral(ctx, 0, 9)
	require.ErrorIs(t, err, service.ErrInvalidRequest)
	_, err = h.refer.RecordReferral(ctx, 9, -1)
	require.ErrorIs(t, err, service.ErrInvalidRequest)
}

func TestRecordReferralUsesCurrentReward(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedAccount(t, 1, 4, true, false)
	require.NoError(t, h.admin.SetReferralReward(ctx, 77, 3))

	ok, err := h.refer.RecordReferral(ctx, 2, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), h.points(t, 1))

	list, err := h.refer.ListReferrals(ctx, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, int64(2), list[0].ReferredUserID)
	require.Equal(t, int64(3), list[0].Reward)
}

func TestReferralLink(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, "https://t.me/pointshop_bot?start=42", h.refer.ReferralLink(42))
}
