package models

import "time"

// DeviceBinding ties one device to one account. Both sides are unique and the
// row is never updated after creation.
type DeviceBinding struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DeviceID  string    `gorm:"uniqueIndex;size:128;not null" json:"-"`
	AccountID int64     `gorm:"uniqueIndex;not null" json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (DeviceBinding) TableName() string { return "device_bindings" }
