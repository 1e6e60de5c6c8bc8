package models

import "time"

// Account is a messaging-platform identity holding a point balance.
// The primary key is the platform's user id, not a generated one.
type Account struct {
	ID            int64      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username      string     `gorm:"size:64;not null;default:''" json:"username"`
	FirstName     string     `gorm:"size:128;not null;default:''" json:"first_name"`
	Points        int64      `gorm:"not null;default:0;check:chk_accounts_points,points >= 0" json:"points"`
	Verified      bool       `gorm:"not null;default:false;index" json:"verified"`
	VerifiedAt    *time.Time `json:"verified_at"`
	Banned        bool       `gorm:"not null;default:false" json:"banned"`
	ReferrerID    *int64     `gorm:"index" json:"referrer_id"` // set at most once
	ReferralCount int64      `gorm:"not null;default:0" json:"referral_count"`
	FirstSeenAt   time.Time  `gorm:"autoCreateTime" json:"first_seen_at"`
	LastSeenAt    time.Time  `json:"last_seen_at"`

	Binding *DeviceBinding `gorm:"foreignKey:AccountID" json:"binding,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}
