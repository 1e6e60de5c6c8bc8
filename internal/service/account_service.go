package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pointshop/internal/database"
	"pointshop/internal/models"
	"pointshop/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AccountService struct {
	uow    *database.UnitOfWork
	logger *zap.Logger
	now    func() time.Time
}

func NewAccountService(uow *database.UnitOfWork, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{uow: uow, logger: log, now: time.Now}
}

func (s *AccountService) SetClock(now func() time.Time) { s.now = now }

// TouchAccount records first or repeat contact from a messaging identity.
func (s *AccountService) TouchAccount(ctx context.Context, id int64, username, firstName string) (*models.Account, error) {
	if id <= 0 {
		return nil, ErrInvalidRequest
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	firstName = strings.TrimSpace(firstName)
	a, err := repository.NewAccountRepository(s.uow.DB()).Touch(ctx, id, username, firstName, s.now().UTC())
	if err != nil {
		err = database.Classify(err)
		logFailure(s.logger, "touch account failed", err, zap.Int64("account_id", id))
		return nil, err
	}
	return a, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	if id <= 0 {
		return nil, ErrInvalidRequest
	}
	a, err := repository.NewAccountRepository(s.uow.DB()).GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountInvalid
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return a, nil
}

// ListRedemptions returns an account's delivered codes, newest first.
func (s *AccountService) ListRedemptions(ctx context.Context, id int64, limit int) ([]models.RedemptionRecord, error) {
	if id <= 0 {
		return nil, ErrInvalidRequest
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	list, err := repository.NewRedemptionRepository(s.uow.DB()).ListByAccount(ctx, id, limit)
	return list, database.Classify(err)
}
