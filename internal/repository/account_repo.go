package repository

import (
	"context"
	"errors"
	"time"

	"pointshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientBalance = errors.New("insufficient point balance")

type AccountStats struct {
	TotalAccounts    int64 `json:"total_accounts"`
	VerifiedAccounts int64 `json:"verified_accounts"`
	BannedAccounts   int64 `json:"banned_accounts"`
	TotalPoints      int64 `json:"total_points"`
}

// AccountRepository works on a pool or on a transaction; construct it with the
// *gorm.DB the unit of work hands out to keep every statement inside it.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Ensure creates an empty account for id if none exists.
func (r *AccountRepository) Ensure(ctx context.Context, id int64, now time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Account{ID: id, FirstSeenAt: now, LastSeenAt: now}).Error
}

// Touch upserts the account on contact, refreshing last-seen and filling
// profile fields that are still empty.
func (r *AccountRepository) Touch(ctx context.Context, id int64, username, firstName string, now time.Time) (*models.Account, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seen_at": now}),
	}).Create(&models.Account{ID: id, Username: username, FirstName: firstName, FirstSeenAt: now, LastSeenAt: now}).Error
	if err != nil {
		return nil, err
	}
	if username != "" {
		if err := db.Model(&models.Account{}).Where("id = ? AND username = ?", id, "").
			UpdateColumn("username", username).Error; err != nil {
			return nil, err
		}
	}
	if firstName != "" {
		if err := db.Model(&models.Account{}).Where("id = ? AND first_name = ?", id, "").
			UpdateColumn("first_name", firstName).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	var a models.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Lock reads the account row with an exclusive row lock held until the transaction ends.
func (r *AccountRepository) Lock(ctx context.Context, id int64) (*models.Account, error) {
	var list []models.Account
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).Limit(1).Find(&list).Error
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

// Debit subtracts amount only if the balance covers it.
func (r *AccountRepository) Debit(ctx context.Context, id, amount int64, now time.Time) error {
	if amount == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND points >= ?", id, amount).
		UpdateColumns(map[string]interface{}{
			"points":       gorm.Expr("points - ?", amount),
			"last_seen_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrInsufficientBalance
	}
	return nil
}

func (r *AccountRepository) Credit(ctx context.Context, id, amount int64) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		UpdateColumn("points", gorm.Expr("points + ?", amount)).Error
}

// CreditReferral adds the reward and bumps the referral counter in one statement.
func (r *AccountRepository) CreditReferral(ctx context.Context, referrerID, reward int64) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", referrerID).
		UpdateColumns(map[string]interface{}{
			"points":         gorm.Expr("points + ?", reward),
			"referral_count": gorm.Expr("referral_count + 1"),
		}).Error
}

// SetReferrer writes the referrer only while it is still unset and reports whether it did.
func (r *AccountRepository) SetReferrer(ctx context.Context, id, referrerID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND referrer_id IS NULL", id).
		UpdateColumn("referrer_id", referrerID)
	return res.RowsAffected == 1, res.Error
}

func (r *AccountRepository) MarkVerified(ctx context.Context, id int64, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{"verified": true, "verified_at": now}).Error
}

func (r *AccountRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).UpdateColumn("banned", banned).Error
}

func (r *AccountRepository) Stats(ctx context.Context) (*AccountStats, error) {
	var s AccountStats
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Account{}).Count(&s.TotalAccounts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Account{}).Where("verified = ?", true).Count(&s.VerifiedAccounts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Account{}).Where("banned = ?", true).Count(&s.BannedAccounts).Error; err != nil {
		return nil, err
	}
	var sum struct{ Total int64 }
	if err := db.Model(&models.Account{}).Select("COALESCE(SUM(points), 0) as total").Scan(&sum).Error; err != nil {
		return nil, err
	}
	s.TotalPoints = sum.Total
	return &s, nil
}
