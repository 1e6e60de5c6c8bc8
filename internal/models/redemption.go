package models

import "time"

// RedemptionRecord is the append-only log of delivered codes. Code is unique, so
// the store itself rejects a second delivery of the same code.
type RedemptionRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID int64     `gorm:"not null;index:idx_redemptions_account_day,priority:1" json:"account_id"`
	Class     string    `gorm:"size:16;not null;index" json:"class"`
	Code      string    `gorm:"uniqueIndex;size:191;not null" json:"code"`
	Cost      int64     `gorm:"not null" json:"cost"`
	CreatedAt time.Time `gorm:"index:idx_redemptions_account_day,priority:2" json:"created_at"`

	Account Account `gorm:"foreignKey:AccountID" json:"-"`
}

func (RedemptionRecord) TableName() string {
	return "redemptions"
}
