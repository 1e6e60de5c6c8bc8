package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pointshop/internal/database"
	"pointshop/internal/domain"
	"pointshop/internal/events"
	"pointshop/internal/metrics"
	"pointshop/internal/models"
	"pointshop/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReferralService credits a referrer once per referred account.
type ReferralService struct {
	uow         *database.UnitOfWork
	publisher   events.Publisher
	metrics     *metrics.LedgerMetrics
	logger      *zap.Logger
	botUsername string
	now         func() time.Time
}

func NewReferralService(
	uow *database.UnitOfWork,
	publisher events.Publisher,
	m *metrics.LedgerMetrics,
	log *zap.Logger,
	botUsername string,
) *ReferralService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReferralService{
		uow:         uow,
		publisher:   publisher,
		metrics:     m,
		logger:      log,
		botUsername: botUsername,
		now:         time.Now,
	}
}

func (s *ReferralService) SetClock(now func() time.Time) { s.now = now }

// RecordReferral sets newAccountID's referrer and credits the referrer. It
// reports false without error when the account already has a referrer or
// refers itself, so redelivered first-contact events are harmless.
func (s *ReferralService) RecordReferral(ctx context.Context, newAccountID, referrerID int64) (bool, error) {
	if newAccountID <= 0 || referrerID <= 0 {
		return false, ErrInvalidRequest
	}
	if newAccountID == referrerID {
		s.metrics.ObserveReferral("self")
		return false, nil
	}

	var (
		credited bool
		reward   int64
	)
	err := s.uow.Run(ctx, func(tx *gorm.DB) error {
		txCtx := tx.Statement.Context
		now := s.now().UTC()
		accounts := repository.NewAccountRepository(tx)

		if err := accounts.Ensure(txCtx, newAccountID, now); err != nil {
			return err
		}
		account, err := accounts.Lock(txCtx, newAccountID)
		if err != nil {
			return err
		}
		if account.ReferrerID != nil {
			return nil
		}
		set, err := accounts.SetReferrer(txCtx, newAccountID, referrerID)
		if err != nil || !set {
			return err
		}

		if err := accounts.Ensure(txCtx, referrerID, now); err != nil {
			return err
		}
		settings, err := repository.NewSettingRepository(tx).Snapshot(txCtx)
		if err != nil {
			return err
		}
		reward = settings.ReferralReward
		if err := accounts.CreditReferral(txCtx, referrerID, reward); err != nil {
			return err
		}
		link := &models.Referral{ReferrerID: referrerID, ReferredUserID: newAccountID, Reward: reward, CreatedAt: now}
		if err := repository.NewReferralRepository(tx).CreateReferral(txCtx, link); err != nil {
			if database.IsDuplicateKey(err) {
				return errors.Join(ErrInternal, err)
			}
			return err
		}
		credited = true
		return nil
	})
	if err != nil {
		s.metrics.ObserveReferral(string(Kind(err)))
		logFailure(s.logger, "referral failed", err,
			zap.Int64("referred_id", newAccountID), zap.Int64("referrer_id", referrerID))
		return false, err
	}
	if !credited {
		s.metrics.ObserveReferral("already_referred")
		return false, nil
	}

	s.metrics.ObserveReferral("")
	s.logger.Info("referral credited",
		zap.Int64("referred_id", newAccountID),
		zap.Int64("referrer_id", referrerID),
		zap.Int64("reward", reward),
	)
	if err := s.publisher.Publish(ctx, domain.EventReferralCredited, formatID(referrerID), events.ReferralCredited{
		ReferrerID: referrerID,
		ReferredID: newAccountID,
		Reward:     reward,
	}); err != nil {
		s.logger.Warn("event publish failed", zap.String("event", domain.EventReferralCredited), zap.Error(err))
	}
	return true, nil
}

// ListReferrals returns the accounts referred by referrerID, newest first.
func (s *ReferralService) ListReferrals(ctx context.Context, referrerID int64, limit, offset int) ([]models.Referral, error) {
	if referrerID <= 0 {
		return nil, ErrInvalidRequest
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return repository.NewReferralRepository(s.uow.DB()).ListByReferrerID(ctx, referrerID, limit, offset)
}

// ReferralLink is the deep link a user shares to refer others.
func (s *ReferralService) ReferralLink(accountID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", s.botUsername, accountID)
}
