// Package calc implements position sizing, PnL and reward:risk arithmetic.
package calc

import "paperCoach/internal/domain"

// SpotTradeSize returns the quantity bought with riskAmount at entryPrice.
func SpotTradeSize(riskAmount, entryPrice float64) float64 {
	if entryPrice <= 0 {
		return 0
	}
	return riskAmount / entryPrice
}

// FuturesTradeSize returns the leveraged quantity controlled by riskAmount.
func FuturesTradeSize(riskAmount float64, leverage int, entryPrice float64) float64 {
	if leverage <= 0 || entryPrice <= 0 {
		return 0
	}
	return riskAmount * float64(leverage) / entryPrice
}

// PnL returns the profit or loss of tradeSize units moved from entry to exit.
func PnL(tradeSize, entry, exit float64, leverage int, isLong bool) float64 {
	diff := entry - exit
	if isLong {
		diff = exit - entry
	}
	return diff * tradeSize * float64(leverage)
}

// RRRatio returns the reward:risk ratio of a trade plan. It is 0 when the stop
// is on the wrong side of (or equal to) the entry.
func RRRatio(entry, takeProfit, stopLoss float64, isLong bool) float64 {
	profit := entry - takeProfit
	loss := stopLoss - entry
	if isLong {
		profit = takeProfit - entry
		loss = entry - stopLoss
	}
	if loss <= 0 {
		return 0
	}
	return profit / loss
}

// TradeInput is a trade plan to be sized.
type TradeInput struct {
	RiskAmount float64
	EntryPrice float64
	TakeProfit float64
	StopLoss   float64
	Leverage   int
	Direction  domain.Direction
	TradeType  domain.TradeType
}

// TradeResult bundles the derived values of a trade plan.
type TradeResult struct {
	TradeSize  float64
	RRRatio    float64
	MaxLoss    float64 // PnL if the stop loss is hit (negative for a sane plan)
	MaxProfit  float64 // PnL if the take profit is hit
	RiskAmount float64
	Leverage   int // Leverage actually applied (1 for spot)
}

// CalculateTrade sizes a trade plan and derives its outcome at TP and SL.
func CalculateTrade(in TradeInput) TradeResult {
	isLong := in.Direction != domain.Short
	leverage := in.Leverage
	var size float64
	if in.TradeType == domain.Futures {
		size = FuturesTradeSize(in.RiskAmount, leverage, in.EntryPrice)
	} else {
		leverage = 1
		size = SpotTradeSize(in.RiskAmount, in.EntryPrice)
	}
	return TradeResult{
		TradeSize:  size,
		RRRatio:    RRRatio(in.EntryPrice, in.TakeProfit, in.StopLoss, isLong),
		MaxLoss:    PnL(size, in.EntryPrice, in.StopLoss, leverage, isLong),
		MaxProfit:  PnL(size, in.EntryPrice, in.TakeProfit, leverage, isLong),
		RiskAmount: in.RiskAmount,
		Leverage:   leverage,
	}
}
