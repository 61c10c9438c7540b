package risk

import (
	"fmt"
	"math"
	"strings"

	"paperCoach/internal/calc"
	"paperCoach/internal/domain"
	"paperCoach/internal/margin"
	"paperCoach/internal/ports"
)

// Violation codes reported by the validator.
const (
	CodeInvalidPrice       = "INVALID_PRICE"
	CodeInvalidBalance     = "INVALID_BALANCE"
	CodeTakeProfitSide     = "TAKE_PROFIT_WRONG_SIDE"
	CodeStopLossSide       = "STOP_LOSS_WRONG_SIDE"
	CodeTakeProfitTooClose = "TAKE_PROFIT_TOO_CLOSE"
	CodeStopLossTooClose   = "STOP_LOSS_TOO_CLOSE"
	CodeMaxLossExceeded    = "MAX_LOSS_EXCEEDED"
	CodeMaxPositions       = "MAX_POSITIONS_REACHED"
	CodeDailyLossLimit     = "DAILY_LOSS_LIMIT"
	CodeInsufficientMargin = "INSUFFICIENT_MARGIN"
	CodeLeverageOutOfRange = "LEVERAGE_OUT_OF_RANGE"
	CodeLowRiskReward      = "LOW_RISK_REWARD"
	CodeHighLoss           = "HIGH_LOSS"
	CodeHighLeverage       = "HIGH_LEVERAGE"
)

// Violation is one failed rule, with a human-readable message.
type Violation struct {
	Code    string
	Message string
}

// Limits are the fixed rule thresholds that do not come from user settings.
type Limits struct {
	MinLeverage         int
	MaxLeverage         int
	MinDistancePct      float64 // minimum TP/SL distance from entry, percent
	WarnRiskReward      float64
	WarnLossPct         float64 // projected loss warning, percent of balance
	WarnFuturesLeverage int
}

// DefaultLimits returns the standard rule thresholds.
func DefaultLimits() Limits {
	return Limits{
		MinLeverage:         1,
		MaxLeverage:         20,
		MinDistancePct:      0.1,
		WarnRiskReward:      1.0,
		WarnLossPct:         5,
		WarnFuturesLeverage: 10,
	}
}

// ValidationRequest is a proposed trade plus the account context it is checked against.
type ValidationRequest struct {
	Symbol            string
	EntryPrice        float64
	TakeProfit        float64
	StopLoss          float64
	Leverage          int // 0 means "use the settings default"
	Direction         domain.Direction
	TradeType         domain.TradeType // empty means "use the settings trade mode"
	RiskAmount        float64          // 0 means "derive from the settings risk mode"
	ActivePositions   int
	Balance           float64
	TodayRealizedLoss float64 // magnitude of today's realized losses
}

// ValidationResult is the outcome of a pre-trade check.
type ValidationResult struct {
	IsValid        bool
	Errors         []Violation
	Warnings       []Violation
	RRRatio        float64
	MaxLoss        float64 // projected loss magnitude if the stop is hit
	MaxLossPercent float64 // MaxLoss as percent of balance
	TradeSize      float64
	RiskAmount     float64
	Leverage       int
	TradeType      domain.TradeType
}

func (r *ValidationResult) fail(code, format string, args ...interface{}) {
	r.Errors = append(r.Errors, Violation{Code: code, Message: fmt.Sprintf(format, args...)})
	r.IsValid = false
}

func (r *ValidationResult) warn(code, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Violation{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Err returns nil for a valid result, otherwise an error wrapping ports.ErrValidationFailed
// that lists every reason.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, v := range r.Errors {
		msgs = append(msgs, v.Message)
	}
	return fmt.Errorf("%w: %s", ports.ErrValidationFailed, strings.Join(msgs, "; "))
}

// Validator applies the pre-trade rules.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator with the default limits.
func NewValidator() *Validator {
	return &Validator{limits: DefaultLimits()}
}

// Validate checks a proposed trade. Hard errors make the result invalid; warnings never do.
func (v *Validator) Validate(req ValidationRequest, settings domain.UserSettings) ValidationResult {
	res := ValidationResult{IsValid: true}

	res.TradeType = req.TradeType
	if res.TradeType == "" {
		res.TradeType = settings.TradeMode
	}
	res.Leverage = req.Leverage
	if res.Leverage == 0 {
		res.Leverage = settings.DefaultLeverage
		if res.Leverage == 0 {
			res.Leverage = 1
		}
	}
	res.RiskAmount = req.RiskAmount
	if res.RiskAmount <= 0 {
		res.RiskAmount = settings.ResolveRiskAmount(req.Balance)
	}

	if req.EntryPrice <= 0 || req.TakeProfit <= 0 || req.StopLoss <= 0 {
		res.fail(CodeInvalidPrice, "entry, take profit and stop loss must all be positive")
		return res
	}
	if req.Balance <= 0 {
		res.fail(CodeInvalidBalance, "account balance must be positive, got %.2f", req.Balance)
		return res
	}

	isLong := req.Direction != domain.Short
	entry := req.EntryPrice
	if isLong {
		if req.TakeProfit <= entry {
			res.fail(CodeTakeProfitSide, "take profit %.4f must be above entry %.4f for a long", req.TakeProfit, entry)
		}
		if req.StopLoss >= entry {
			res.fail(CodeStopLossSide, "stop loss %.4f must be below entry %.4f for a long", req.StopLoss, entry)
		}
	} else {
		if req.TakeProfit >= entry {
			res.fail(CodeTakeProfitSide, "take profit %.4f must be below entry %.4f for a short", req.TakeProfit, entry)
		}
		if req.StopLoss <= entry {
			res.fail(CodeStopLossSide, "stop loss %.4f must be above entry %.4f for a short", req.StopLoss, entry)
		}
	}

	if pct := math.Abs(req.TakeProfit-entry) / entry * 100; pct < v.limits.MinDistancePct {
		res.fail(CodeTakeProfitTooClose, "take profit is %.3f%% from entry, minimum is %.2f%%", pct, v.limits.MinDistancePct)
	}
	if pct := math.Abs(req.StopLoss-entry) / entry * 100; pct < v.limits.MinDistancePct {
		res.fail(CodeStopLossTooClose, "stop loss is %.3f%% from entry, minimum is %.2f%%", pct, v.limits.MinDistancePct)
	}

	if res.Leverage < v.limits.MinLeverage || res.Leverage > v.limits.MaxLeverage {
		res.fail(CodeLeverageOutOfRange, "leverage %d outside allowed range [%d, %d]", res.Leverage, v.limits.MinLeverage, v.limits.MaxLeverage)
	}

	trade := calc.CalculateTrade(calc.TradeInput{
		RiskAmount: res.RiskAmount,
		EntryPrice: entry,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Leverage:   res.Leverage,
		Direction:  req.Direction,
		TradeType:  res.TradeType,
	})
	res.TradeSize = trade.TradeSize
	res.RRRatio = trade.RRRatio
	res.MaxLoss = math.Max(0, -trade.MaxLoss)
	res.MaxLossPercent = res.MaxLoss / req.Balance * 100

	if settings.MaxLossPerTradePct > 0 && res.MaxLossPercent > settings.MaxLossPerTradePct {
		res.fail(CodeMaxLossExceeded, "projected loss %.2f%% exceeds max %.2f%% per trade", res.MaxLossPercent, settings.MaxLossPerTradePct)
	}
	if settings.MaxPositions > 0 && req.ActivePositions >= settings.MaxPositions {
		res.fail(CodeMaxPositions, "active positions %d >= max %d", req.ActivePositions, settings.MaxPositions)
	}
	if settings.DailyLossLimitPct > 0 {
		limit := req.Balance * settings.DailyLossLimitPct / 100
		if projected := math.Abs(req.TodayRealizedLoss) + res.MaxLoss; projected > limit {
			res.fail(CodeDailyLossLimit, "today's loss %.2f plus projected %.2f exceeds daily limit %.2f", math.Abs(req.TodayRealizedLoss), res.MaxLoss, limit)
		}
	}
	if required, err := margin.RequiredMargin(entry*trade.TradeSize, trade.Leverage); err == nil && required > req.Balance {
		res.fail(CodeInsufficientMargin, "required margin %.2f exceeds balance %.2f", required, req.Balance)
	}

	if res.RRRatio < v.limits.WarnRiskReward {
		res.warn(CodeLowRiskReward, "reward:risk %.2f is below %.1f", res.RRRatio, v.limits.WarnRiskReward)
	}
	if res.MaxLossPercent > v.limits.WarnLossPct {
		res.warn(CodeHighLoss, "projected loss is %.2f%% of balance", res.MaxLossPercent)
	}
	if res.TradeType == domain.Futures && res.Leverage > v.limits.WarnFuturesLeverage {
		res.warn(CodeHighLeverage, "leverage %dx is above %dx", res.Leverage, v.limits.WarnFuturesLeverage)
	}

	return res
}
