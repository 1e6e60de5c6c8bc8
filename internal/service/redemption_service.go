package service

import (
	"context"
	"errors"
	"time"

	"pointshop/config"
	"pointshop/internal/database"
	"pointshop/internal/domain"
	"pointshop/internal/events"
	"pointshop/internal/logger"
	"pointshop/internal/metrics"
	"pointshop/internal/models"
	"pointshop/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RedemptionResult is what a successful redemption hands back for the receipt.
type RedemptionResult struct {
	Code       string    `json:"code"`
	Cost       int64     `json:"cost"`
	Class      string    `json:"class"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

type RedemptionService struct {
	uow           *database.UnitOfWork
	publisher     events.Publisher
	metrics       *metrics.LedgerMetrics
	logger        *zap.Logger
	location      *time.Location
	claimAttempts int
	now           func() time.Time

	// beforeConsume runs between selecting an item and consuming it. Tests
	// use it to lose the race for the item.
	beforeConsume func(tx *gorm.DB, item *models.CouponItem)
}

func NewRedemptionService(
	uow *database.UnitOfWork,
	cfg config.LedgerConfig,
	publisher events.Publisher,
	m *metrics.LedgerMetrics,
	log *zap.Logger,
) *RedemptionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	attempts := cfg.ClaimAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &RedemptionService{
		uow:           uow,
		publisher:     publisher,
		metrics:       m,
		logger:        log,
		location:      loc,
		claimAttempts: attempts,
		now:           time.Now,
	}
}

// SetClock replaces the time source.
func (s *RedemptionService) SetClock(now func() time.Time) { s.now = now }

// Redeem exchanges points for one code of class. Every check runs against the
// locked account row inside one transaction; a failed attempt leaves the ledger untouched.
func (s *RedemptionService) Redeem(ctx context.Context, accountID int64, class string) (*RedemptionResult, error) {
	start := time.Now()
	if accountID <= 0 || !domain.ValidClass(class) {
		return nil, ErrInvalidRequest
	}

	var (
		result  *RedemptionResult
		record  models.RedemptionRecord
		retries int
	)
	err := s.uow.Run(ctx, func(tx *gorm.DB) error {
		txCtx := tx.Statement.Context
		accounts := repository.NewAccountRepository(tx)
		coupons := repository.NewCouponRepository(tx)
		redemptions := repository.NewRedemptionRepository(tx)

		settings, err := repository.NewSettingRepository(tx).Snapshot(txCtx)
		if err != nil {
			return err
		}
		if !settings.RedemptionEnabled {
			return ErrRedemptionDisabled
		}

		account, err := accounts.Lock(txCtx, accountID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountInvalid
		}
		if err != nil {
			return err
		}
		if account.Banned {
			return ErrAccountBanned
		}
		if !account.Verified {
			return ErrNotVerified
		}

		now := s.now().UTC()
		if settings.DailyRedeemLimit > 0 {
			used, err := redemptions.CountSince(txCtx, accountID, s.startOfDay(now))
			if err != nil {
				return err
			}
			if used >= settings.DailyRedeemLimit {
				return ErrDailyLimitExceeded
			}
		}

		cost, ok := settings.Cost(class)
		if !ok {
			return ErrInvalidRequest
		}
		if account.Points < cost {
			return ErrInsufficientPoints
		}

		item, err := s.claim(txCtx, tx, coupons, class, accountID, now, &retries)
		if err != nil {
			return err
		}

		if err := accounts.Debit(txCtx, accountID, cost, now); err != nil {
			if errors.Is(err, repository.ErrInsufficientBalance) {
				// The row is locked and the balance was checked above.
				return errors.Join(ErrInternal, err)
			}
			return err
		}

		record = models.RedemptionRecord{
			AccountID: accountID,
			Class:     class,
			Code:      item.Code,
			Cost:      cost,
			CreatedAt: now,
		}
		if err := redemptions.Create(txCtx, &record); err != nil {
			if database.IsDuplicateKey(err) {
				return errors.Join(ErrInternal, err)
			}
			return err
		}
		result = &RedemptionResult{Code: item.Code, Cost: cost, Class: class, RedeemedAt: now}
		return nil
	})

	for i := 0; i < retries; i++ {
		s.metrics.ObserveClaimRetry()
	}
	kind := Kind(err)
	s.metrics.ObserveRedemption(class, string(kind), time.Since(start))
	if err != nil {
		s.logFailure("redemption failed", err, logger.Account(accountID), logger.Class(class))
		return nil, err
	}

	s.logger.Info("redemption completed",
		logger.Account(accountID),
		logger.Class(class),
		zap.Int64("cost", result.Cost),
		zap.String("code", logger.MaskCode(result.Code)),
		logger.Elapsed(start),
	)
	s.publish(ctx, domain.EventRedemptionCompleted, accountID, events.RedemptionCompleted{
		AccountID:  accountID,
		Class:      class,
		Cost:       result.Cost,
		RecordID:   record.ID,
		RedeemedAt: result.RedeemedAt,
	})
	return result, nil
}

// claim takes the oldest free item of class. Rows locked by other claimants are
// skipped; on stores without row locking a lost compare-and-swap is retried.
func (s *RedemptionService) claim(ctx context.Context, tx *gorm.DB, coupons *repository.CouponRepository, class string, accountID int64, now time.Time, retries *int) (*models.CouponItem, error) {
	for attempt := 0; attempt < s.claimAttempts; attempt++ {
		item, err := coupons.LockNextAvailable(ctx, class)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, ErrStockExhausted
		}
		if s.beforeConsume != nil {
			s.beforeConsume(tx, item)
		}
		won, err := coupons.MarkConsumed(ctx, item.ID, accountID, now)
		if err != nil {
			return nil, err
		}
		if won {
			return item, nil
		}
		*retries++
	}
	return nil, ErrStockExhausted
}

func (s *RedemptionService) startOfDay(now time.Time) time.Time {
	local := now.In(s.location)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location).UTC()
}

func (s *RedemptionService) publish(ctx context.Context, eventType string, accountID int64, payload any) {
	if err := s.publisher.Publish(ctx, eventType, formatID(accountID), payload); err != nil {
		s.logger.Warn("event publish failed", zap.String("event", eventType), zap.Error(err))
	}
}

func (s *RedemptionService) logFailure(msg string, err error, fields ...zap.Field) {
	logFailure(s.logger, msg, err, fields...)
}
