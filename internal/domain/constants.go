package domain

import "slices"

// Coupon classes, one per denomination tier.
const (
	Class500  = "500"
	Class1000 = "1000"
	Class2000 = "2000"
	Class4000 = "4000"
)

var CouponClasses = []string{Class500, Class1000, Class2000, Class4000}

func ValidClass(class string) bool { return slices.Contains(CouponClasses, class) }

// DefaultCosts are the point costs used until an admin overrides them.
var DefaultCosts = map[string]int64{
	Class500:  3,
	Class1000: 10,
	Class2000: 20,
	Class4000: 40,
}

const (
	DefaultReferralReward   int64 = 1
	DefaultDailyRedeemLimit int64 = 0 // 0 disables the limit
)

const DefaultRedemptionEnabled = true

// System setting keys.
const (
	SettingCostPrefix        = "redeem_cost:"
	SettingReferralReward    = "referral_reward"
	SettingRedemptionEnabled = "redemption_enabled"
	SettingDailyRedeemLimit  = "daily_redeem_limit"
)

func CostKey(class string) string { return SettingCostPrefix + class }

const RoleAdmin = "ADMIN"

// Event types published after a unit of work commits.
const (
	EventRedemptionCompleted = "redemption.completed"
	EventReferralCredited    = "referral.credited"
	EventDeviceBound         = "device.bound"
	EventInventoryAdded      = "inventory.added"
)

// Audit actions recorded for admin mutations.
const (
	AuditCouponsAdded   = "COUPONS_ADDED"
	AuditCouponsRemoved = "COUPONS_REMOVED"
	AuditSettingChanged = "SETTING_CHANGED"
	AuditPointsGranted  = "POINTS_GRANTED"
	AuditAccountBanned  = "ACCOUNT_BAN_CHANGED"
)
