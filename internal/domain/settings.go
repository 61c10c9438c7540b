package domain

// UserSettings is the read-only risk configuration of a trader.
type UserSettings struct {
	UserID             string
	RiskMode           RiskMode   // FIXED amount or PERCENTAGE of balance
	RiskValue          float64    // Amount (FIXED) or percent of balance (PERCENTAGE)
	MaxPositions       int        // Maximum simultaneously active positions
	MaxLossPerTradePct float64    // Max projected loss per trade, percent of balance
	DailyLossLimitPct  float64    // Max realized + projected loss per day, percent of balance
	DefaultLeverage    int        // Leverage used when a request leaves it unset
	TradeMode          TradeType  // Default trade type
	MarginMode         MarginMode // Isolated or cross margin for futures
}

// DefaultUserSettings returns the settings applied when a user has none stored.
func DefaultUserSettings(userID string) UserSettings {
	return UserSettings{
		UserID:             userID,
		RiskMode:           RiskModePercentage,
		RiskValue:          1,
		MaxPositions:       5,
		MaxLossPerTradePct: 2,
		DailyLossLimitPct:  5,
		DefaultLeverage:    1,
		TradeMode:          Spot,
		MarginMode:         MarginIsolated,
	}
}

// ResolveRiskAmount turns the configured risk mode into a currency amount.
func (s UserSettings) ResolveRiskAmount(balance float64) float64 {
	if s.RiskValue <= 0 {
		return 0
	}
	if s.RiskMode == RiskModeFixed {
		return s.RiskValue
	}
	if balance <= 0 {
		return 0
	}
	return balance * s.RiskValue / 100
}
