package service

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"pointshop/config"
	"pointshop/internal/auth"
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

var deviceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{8,128}$`)

// ValidDeviceID reports whether id is an acceptable locally generated device identifier.
func ValidDeviceID(id string) bool { return deviceIDPattern.MatchString(id) }

// VerificationService issues signed verification links and binds devices to
// accounts one-to-one.
type VerificationService struct {
	uow       *database.UnitOfWork
	secret    []byte
	baseURL   string
	publisher events.Publisher
	metrics   *metrics.LedgerMetrics
	logger    *zap.Logger
	now       func() time.Time

	// beforeBind runs after the conflict checks and before the insert.
	beforeBind func(tx *gorm.DB)
}

func NewVerificationService(
	uow *database.UnitOfWork,
	cfg config.VerifyConfig,
	publisher events.Publisher,
	m *metrics.LedgerMetrics,
	log *zap.Logger,
) *VerificationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &VerificationService{
		uow:       uow,
		secret:    []byte(cfg.Secret),
		baseURL:   cfg.BaseURL,
		publisher: publisher,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

func (s *VerificationService) SetClock(now func() time.Time) { s.now = now }

// IssueVerificationToken returns the stable token for accountID.
func (s *VerificationService) IssueVerificationToken(accountID int64) (string, error) {
	if accountID <= 0 {
		return "", ErrInvalidRequest
	}
	return auth.SignAccount(s.secret, accountID), nil
}

// VerificationLink returns the device page URL carrying the account id and its token.
func (s *VerificationService) VerificationLink(accountID int64) (string, error) {
	token, err := s.IssueVerificationToken(accountID)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("account_id", strconv.FormatInt(accountID, 10))
	q.Set("token", token)
	return s.baseURL + "/verify?" + q.Encode(), nil
}

// CheckToken reports whether token was issued for accountID. It never touches the store.
func (s *VerificationService) CheckToken(accountID int64, token string) bool {
	return accountID > 0 && auth.VerifyAccount(s.secret, accountID, token)
}

// ConsumeVerification binds deviceID to accountID and marks the account
// verified. Conflicting bindings are rejected and nothing is written.
// Resubmitting an existing binding succeeds.
func (s *VerificationService) ConsumeVerification(ctx context.Context, accountID int64, token, deviceID string) error {
	err := s.consume(ctx, accountID, token, deviceID)
	s.metrics.ObserveVerification(string(Kind(err)))
	if err != nil {
		logFailure(s.logger, "verification failed", err, logger.Account(accountID))
		return err
	}
	return nil
}

func (s *VerificationService) consume(ctx context.Context, accountID int64, token, deviceID string) error {
	if accountID <= 0 || token == "" || !ValidDeviceID(deviceID) {
		return ErrInvalidRequest
	}
	if !auth.VerifyAccount(s.secret, accountID, token) {
		return ErrInvalidSignature
	}

	var created bool
	now := s.now().UTC()
	err := s.uow.Run(ctx, func(tx *gorm.DB) error {
		txCtx := tx.Statement.Context
		accounts := repository.NewAccountRepository(tx)
		bindings := repository.NewBindingRepository(tx)

		if err := accounts.Ensure(txCtx, accountID, now); err != nil {
			return err
		}
		account, err := accounts.Lock(txCtx, accountID)
		if err != nil {
			return err
		}

		byDevice, err := bindings.GetByDevice(txCtx, deviceID)
		if err != nil {
			return err
		}
		if byDevice != nil && byDevice.AccountID != accountID {
			return ErrDeviceAlreadyBound
		}
		byAccount, err := bindings.GetByAccount(txCtx, accountID)
		if err != nil {
			return err
		}
		if byAccount != nil && byAccount.DeviceID != deviceID {
			return ErrAccountAlreadyBound
		}

		if byAccount == nil {
			if s.beforeBind != nil {
				s.beforeBind(tx)
			}
			err := bindings.Create(txCtx, &models.DeviceBinding{DeviceID: deviceID, AccountID: accountID, CreatedAt: now})
			if database.IsDuplicateKey(err) {
				// Another account claimed the device between our read and insert.
				return ErrDeviceAlreadyBound
			}
			if err != nil {
				return err
			}
			created = true
		}
		if account.Verified && !created {
			return nil
		}
		return accounts.MarkVerified(txCtx, accountID, now)
	})
	if err != nil {
		return err
	}

	if created {
		s.logger.Info("device bound", logger.Account(accountID))
		if perr := s.publisher.Publish(ctx, domain.EventDeviceBound, formatID(accountID),
			events.DeviceBound{AccountID: accountID, BoundAt: now}); perr != nil {
			s.logger.Warn("event publish failed", zap.String("event", domain.EventDeviceBound), zap.Error(perr))
		}
	}
	return nil
}
