package domain

// Direction is the side of a position (long or short).
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// TradeType distinguishes spot trades from leveraged futures trades.
type TradeType string

const (
	Spot    TradeType = "SPOT"
	Futures TradeType = "FUTURES"
)

// MarginMode decides whether margin is evaluated per position or shared across the account.
type MarginMode string

const (
	MarginIsolated MarginMode = "ISOLATED"
	MarginCross    MarginMode = "CROSS"
)

// PositionStatus represents the status of a position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// CloseReason indicates why a position was closed.
type CloseReason string

const (
	CloseReasonStopLoss    CloseReason = "SL"
	CloseReasonTakeProfit  CloseReason = "TP"
	CloseReasonManual      CloseReason = "MANUAL"
	CloseReasonLiquidation CloseReason = "LIQUIDATION"
	CloseReasonUnknown     CloseReason = "UNKNOWN"
)

// RiskMode selects how the per-trade risk amount is derived from user settings.
type RiskMode string

const (
	RiskModeFixed      RiskMode = "FIXED"
	RiskModePercentage RiskMode = "PERCENTAGE"
)
