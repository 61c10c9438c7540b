// Package risk implements the historical portfolio risk score, the single-trade
// risk score and the pre-trade validation rules.
package risk

import (
	"math"

	"paperCoach/internal/analytics"
	"paperCoach/internal/domain"
)

// Level is the warning tier derived from a risk score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// LevelFor maps a risk score (100 = safest) to its warning tier.
func LevelFor(score float64) Level {
	switch {
	case score >= 70:
		return LevelLow
	case score >= 50:
		return LevelModerate
	case score >= 30:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// RiskMetrics is the transient result of a historical risk analysis.
type RiskMetrics struct {
	Volatility  float64 // [0, 100]
	MaxDrawdown float64 // percent of the running peak
	SharpeRatio float64
	Score       float64 // [0, 100], higher is safer
	Level       Level
}

// RiskRewardRatio returns the reward:risk ratio of a trade plan, 0 when the loss
// distance is not positive.
func RiskRewardRatio(entry, takeProfit, stopLoss float64, isLong bool) float64 {
	var reward, risk float64
	if isLong {
		reward = takeProfit - entry
		risk = entry - stopLoss
	} else {
		reward = entry - takeProfit
		risk = stopLoss - entry
	}
	if risk <= 0 {
		return 0
	}
	return reward / risk
}

// RiskScore scores the trader's closed-position history. Positions are walked in
// chronological order from initialBalance.
func RiskScore(closed []*domain.Position, initialBalance float64) RiskMetrics {
	perf := analytics.AnalyzePerformance(closed, initialBalance)
	if perf.TotalTrades == 0 {
		return RiskMetrics{Score: 100, Level: LevelLow}
	}

	pnls := make([]float64, 0, perf.TotalTrades)
	for _, p := range closed {
		if p != nil && !p.IsOpen() {
			pnls = append(pnls, p.PNL)
		}
	}

	var volatility float64
	if initialBalance > 0 {
		volatility = analytics.Clamp(analytics.StdDev(pnls)/initialBalance*100*10, 0, 100)
	}
	mdd := perf.MaxDrawdown * 100
	sharpe := sharpeRatio(perf.Returns)

	score := analytics.Clamp(100-(0.4*volatility+0.4*mdd+0.2*normalizedNegativeSharpe(sharpe)), 0, 100)
	return RiskMetrics{
		Volatility:  volatility,
		MaxDrawdown: mdd,
		SharpeRatio: sharpe,
		Score:       score,
		Level:       LevelFor(score),
	}
}

func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	sd := analytics.StdDev(returns)
	if sd == 0 {
		return 0
	}
	return analytics.Mean(returns) / sd
}

func normalizedNegativeSharpe(sharpe float64) float64 {
	if sharpe > 0 {
		return math.Max(0, 50-sharpe*10)
	}
	return math.Min(100, 50+math.Abs(sharpe)*10)
}

// PositionRiskScore scores a single upcoming trade from the share of balance at risk
// and its reward:risk ratio. 100 is safest.
func PositionRiskScore(riskAmount, balance, rrRatio float64) float64 {
	if balance <= 0 {
		return 0
	}
	riskPercent := riskAmount / balance * 100
	score := 100.0
	switch {
	case riskPercent > 5:
		score -= 40 + 20*(riskPercent-5)
	case riskPercent > 1:
		score -= 10 * (riskPercent - 1)
	}
	switch {
	case rrRatio >= 2:
		score += 5 * (rrRatio - 2)
	case rrRatio > 0 && rrRatio < 1:
		score -= 20 * (1 - rrRatio)
	}
	return analytics.Clamp(score, 0, 100)
}
