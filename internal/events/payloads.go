package events

import "time"

type RedemptionCompleted struct {
	AccountID  int64     `json:"account_id"`
	Class      string    `json:"class"`
	Cost       int64     `json:"cost"`
	RecordID   uint      `json:"record_id"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

type ReferralCredited struct {
	ReferrerID int64 `json:"referrer_id"`
	ReferredID int64 `json:"referred_id"`
	Reward     int64 `json:"reward"`
}

type DeviceBound struct {
	AccountID int64     `json:"account_id"`
	BoundAt   time.Time `json:"bound_at"`
}

type InventoryAdded struct {
	Class   string `json:"class"`
	Added   int64  `json:"added"`
	Stock   int64  `json:"stock"`
	AdminID int64  `json:"admin_id"`
}
