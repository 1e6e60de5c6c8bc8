package domain

// Settings is one consistent read of the admin-owned configuration.
type Settings struct {
	Costs             map[string]int64 `json:"costs"`
	ReferralReward    int64            `json:"referral_reward"`
	RedemptionEnabled bool             `json:"redemption_enabled"`
	DailyRedeemLimit  int64            `json:"daily_redeem_limit"`
}

// DefaultSettings returns the configuration used for keys that were never written.
func DefaultSettings() Settings {
	costs := make(map[string]int64, len(DefaultCosts))
	for class, cost := range DefaultCosts {
		costs[class] = cost
	}
	return Settings{
		Costs:             costs,
		ReferralReward:    DefaultReferralReward,
		RedemptionEnabled: DefaultRedemptionEnabled,
		DailyRedeemLimit:  DefaultDailyRedeemLimit,
	}
}

// Cost returns the point cost of a class and whether the class is priced.
func (s Settings) Cost(class string) (int64, bool) {
	c, ok := s.Costs[class]
	return c, ok
}
