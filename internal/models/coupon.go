package models

import "time"

// CouponItem is one single-use code of a coupon class. Once Consumed is set,
// ConsumedBy and ConsumedAt are never written again.
type CouponItem struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Class      string     `gorm:"size:16;not null;index:idx_coupons_claim,priority:1" json:"class"`
	Code       string     `gorm:"uniqueIndex;size:191;not null" json:"-"`
	Consumed   bool       `gorm:"not null;default:false;index:idx_coupons_claim,priority:2" json:"consumed"`
	ConsumedBy *int64     `gorm:"index" json:"consumed_by"`
	ConsumedAt *time.Time `json:"consumed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (CouponItem) TableName() string {
	return "coupons"
}
