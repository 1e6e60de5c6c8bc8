package models

import "time"

// Referral is the auditable referrer -> referred link. A user can only be referred once.
type Referral struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReferrerID     int64     `gorm:"not null;index" json:"referrer_id"`
	ReferredUserID int64     `gorm:"uniqueIndex;not null" json:"referred_user_id"`
	Reward         int64     `gorm:"not null" json:"reward"`
	CreatedAt      time.Time `json:"created_at"`

	ReferredUser Account `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
}

func (Referral) TableName() string { return "referrals" }
