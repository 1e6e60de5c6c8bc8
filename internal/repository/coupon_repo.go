package repository

import (
	"context"
	"time"

	"pointshop/internal/domain"
	"pointshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const insertBatchSize = 200

type CouponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// BulkInsert adds codes to a class, skipping codes that already exist anywhere
// in the inventory. It returns how many rows were actually inserted.
func (r *CouponRepository) BulkInsert(ctx context.Context, class string, codes []string, now time.Time) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	items := make([]models.CouponItem, 0, len(codes))
	for _, code := range codes {
		items = append(items, models.CouponItem{Class: class, Code: code, CreatedAt: now})
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		CreateInBatches(&items, insertBatchSize)
	return res.RowsAffected, res.Error
}

// RemoveUnused deletes the given codes of a class that were never consumed.
func (r *CouponRepository) RemoveUnused(ctx context.Context, class string, codes []string) (int64, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("class = ? AND code IN ? AND consumed = ?", class, codes, false).
		Delete(&models.CouponItem{})
	return res.RowsAffected, res.Error
}

// Stock counts unconsumed items per class; every known class is present.
func (r *CouponRepository) Stock(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Class string
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&models.CouponItem{}).
		Select("class, COUNT(*) as total").
		Where("consumed = ?", false).
		Group("class").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(domain.CouponClasses))
	for _, class := range domain.CouponClasses {
		out[class] = 0
	}
	for _, row := range rows {
		out[row.Class] = row.Total
	}
	return out, nil
}

// LockNextAvailable selects the oldest unconsumed item of a class and locks it,
// skipping rows other transactions already hold. It returns nil when nothing is claimable.
func (r *CouponRepository) LockNextAvailable(ctx context.Context, class string) (*models.CouponItem, error) {
	var list []models.CouponItem
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("class = ? AND consumed = ?", class, false).
		Order("id ASC").
		Limit(1).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// MarkConsumed flips the consumed flag only if it is still unset and reports
// whether this call won the item.
func (r *CouponRepository) MarkConsumed(ctx context.Context, id uint, accountID int64, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.CouponItem{}).
		Where("id = ? AND consumed = ?", id, false).
		UpdateColumns(map[string]interface{}{
			"consumed":    true,
			"consumed_by": accountID,
			"consumed_at": now,
		})
	return res.RowsAffected == 1, res.Error
}

// CountInconsistent counts consumed items missing their consumer or timestamp.
func (r *CouponRepository) CountInconsistent(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CouponItem{}).
		Where("consumed = ? AND (consumed_by IS NULL OR consumed_at IS NULL)", true).
		Count(&n).Error
	return n, err
}
