package repository

import (
	"context"
	"time"

	"pointshop/internal/models"

	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalAccounts    int64            `json:"total_accounts"`
	VerifiedAccounts int64            `json:"verified_accounts"`
	BannedAccounts   int64            `json:"banned_accounts"`
	TotalPoints      int64            `json:"total_points"`
	TotalRedemptions int64            `json:"total_redemptions"`
	TotalReferrals   int64            `json:"total_referrals"`
	BoundDevices     int64            `json:"bound_devices"`
	Stock            map[string]int64 `json:"stock"`

	// Consumed items missing consumer or timestamp; anything above zero is a defect.
	InconsistentItems int64 `json:"inconsistent_items"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	acc, err := NewAccountRepository(r.db).Stats(ctx)
	if err != nil {
		return nil, err
	}
	s := DashboardStats{
		TotalAccounts:    acc.TotalAccounts,
		VerifiedAccounts: acc.VerifiedAccounts,
		BannedAccounts:   acc.BannedAccounts,
		TotalPoints:      acc.TotalPoints,
	}
	if s.TotalRedemptions, err = NewRedemptionRepository(r.db).Count(ctx); err != nil {
		return nil, err
	}
	if s.TotalReferrals, err = NewReferralRepository(r.db).Count(ctx); err != nil {
		return nil, err
	}
	if err = r.db.WithContext(ctx).Model(&models.DeviceBinding{}).Count(&s.BoundDevices).Error; err != nil {
		return nil, err
	}
	coupons := NewCouponRepository(r.db)
	if s.Stock, err = coupons.Stock(ctx); err != nil {
		return nil, err
	}
	if s.InconsistentItems, err = coupons.CountInconsistent(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

// RedemptionsByDay returns daily redemption counts for the last N days.
func (r *AdminRepository) RedemptionsByDay(ctx context.Context, days int, now time.Time) ([]TimeSeriesPoint, error) {
	return r.countByDay(ctx, &models.RedemptionRecord{}, "created_at", now.AddDate(0, 0, -days))
}

// SignupsByDay returns daily first-contact counts for the last N days.
func (r *AdminRepository) SignupsByDay(ctx context.Context, days int, now time.Time) ([]TimeSeriesPoint, error) {
	return r.countByDay(ctx, &models.Account{}, "first_seen_at", now.AddDate(0, 0, -days))
}

func (r *AdminRepository) countByDay(ctx context.Context, model interface{}, column string, since time.Time) ([]TimeSeriesPoint, error) {
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(model).
		Select("DATE("+column+") as date, COUNT(*) as count").
		Where(column+" >= ?", since).
		Group("DATE(" + column + ")").
		Order("date ASC").
		Scan(&points).Error
	return points, err
}
