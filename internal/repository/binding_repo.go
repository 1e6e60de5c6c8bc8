package repository

import (
	"context"

	"pointshop/internal/models"

	"gorm.io/gorm"
)

type BindingRepository struct {
	db *gorm.DB
}

func NewBindingRepository(db *gorm.DB) *BindingRepository {
	return &BindingRepository{db: db}
}

// GetByDevice returns the binding for a device, or nil when the device is unbound.
func (r *BindingRepository) GetByDevice(ctx context.Context, deviceID string) (*models.DeviceBinding, error) {
	return r.first(ctx, "device_id = ?", deviceID)
}

// GetByAccount returns the binding for an account, or nil when the account is unbound.
func (r *BindingRepository) GetByAccount(ctx context.Context, accountID int64) (*models.DeviceBinding, error) {
	return r.first(ctx, "account_id = ?", accountID)
}

func (r *BindingRepository) Create(ctx context.Context, b *models.DeviceBinding) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BindingRepository) first(ctx context.Context, query string, arg interface{}) (*models.DeviceBinding, error) {
	var list []models.DeviceBinding
	if err := r.db.WithContext(ctx).Where(query, arg).Limit(1).Find(&list).Error; err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}
