package repository

import (
	"context"
	"time"

	"pointshop/internal/models"

	"gorm.io/gorm"
)

type RedemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) Create(ctx context.Context, rec *models.RedemptionRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// CountSince counts an account's redemptions at or after since.
func (r *RedemptionRepository) CountSince(ctx context.Context, accountID int64, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RedemptionRecord{}).
		Where("account_id = ? AND created_at >= ?", accountID, since).
		Count(&n).Error
	return n, err
}

// ListRecent returns the latest redemptions across all accounts, newest first.
func (r *RedemptionRepository) ListRecent(ctx context.Context, limit int) ([]models.RedemptionRecord, error) {
	var list []models.RedemptionRecord
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *RedemptionRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.RedemptionRecord, error) {
	var list []models.RedemptionRecord
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *RedemptionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RedemptionRecord{}).Count(&n).Error
	return n, err
}
