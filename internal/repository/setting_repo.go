package repository

import (
	"context"
	"strconv"
	"strings"

	"pointshop/internal/domain"
	"pointshop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).First(&s).Error; err != nil {
		return "", err
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
}

func (r *SettingRepository) GetAll(ctx context.Context) ([]models.SystemSetting, error) {
	var list []models.SystemSetting
	err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&list).Error
	return list, err
}

// SeedDefaults inserts default settings if they don't already exist.
func (r *SettingRepository) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	for k, v := range defaults {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.SystemSetting{Key: k, Value: v}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Snapshot reads every setting in one query and overlays it on the defaults.
// Unparseable values keep their default.
func (r *SettingRepository) Snapshot(ctx context.Context) (domain.Settings, error) {
	list, err := r.GetAll(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	s := domain.DefaultSettings()
	for _, row := range list {
		switch {
		case strings.HasPrefix(row.Key, domain.SettingCostPrefix):
			class := strings.TrimPrefix(row.Key, domain.SettingCostPrefix)
			if n, ok := parseNonNegative(row.Value); ok && domain.ValidClass(class) {
				s.Costs[class] = n
			}
		case row.Key == domain.SettingReferralReward:
			if n, ok := parseNonNegative(row.Value); ok {
				s.ReferralReward = n
			}
		case row.Key == domain.SettingDailyRedeemLimit:
			if n, ok := parseNonNegative(row.Value); ok {
				s.DailyRedeemLimit = n
			}
		case row.Key == domain.SettingRedemptionEnabled:
			if b, err := strconv.ParseBool(row.Value); err == nil {
				s.RedemptionEnabled = b
			}
		}
	}
	return s, nil
}

// DefaultSettingValues renders the default settings as stored strings.
func DefaultSettingValues() map[string]string {
	d := domain.DefaultSettings()
	out := map[string]string{
		domain.SettingReferralReward:    strconv.FormatInt(d.ReferralReward, 10),
		domain.SettingDailyRedeemLimit:  strconv.FormatInt(d.DailyRedeemLimit, 10),
		domain.SettingRedemptionEnabled: strconv.FormatBool(d.RedemptionEnabled),
	}
	for class, cost := range d.Costs {
		out[domain.CostKey(class)] = strconv.FormatInt(cost, 10)
	}
	return out
}

func parseNonNegative(v string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
