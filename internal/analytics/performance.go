package analytics

import (
	"sort"
	"time"

	"paperCoach/internal/domain"
)

// PerformanceMetrics holds the outcome statistics of a set of closed positions.
type PerformanceMetrics struct {
	// Basic Metrics
	TotalTrades        int
	WinningTrades      int
	LosingTrades       int
	BreakEvenTrades    int
	WinRate            float64 // fraction in [0, 1]
	TotalProfit        float64
	BestTrade          float64
	WorstTrade         float64
	MaxDrawdown        float64 // fraction of the running peak, in [0, +inf)
	ProfitFactor       float64
	AverageWin         float64
	AverageLoss        float64
	FinalBalance       float64
	ReturnOnInvestment float64

	// Advanced Metrics
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	AverageTradeDuration time.Duration
	Expectancy           float64
	Returns              []float64 // per-trade pnl / balance before the trade
	EquityCurve          []EquityPoint
}

// EquityPoint represents a point on the equity curve
type EquityPoint struct {
	Time     time.Time
	Value    float64
	Drawdown float64
}

// SortChronologically returns a copy of positions ordered by close time (open time for
// positions without one). Ties keep their input order. The input is not modified.
func SortChronologically(positions []*domain.Position) []*domain.Position {
	sorted := make([]*domain.Position, 0, len(positions))
	for _, p := range positions {
		if p != nil {
			sorted = append(sorted, p)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EventTime().Before(sorted[j].EventTime())
	})
	return sorted
}

// AnalyzePerformance walks the closed positions in chronological order from
// initialBalance and derives the equity curve and outcome statistics.
// Open positions are ignored.
func AnalyzePerformance(positions []*domain.Position, initialBalance float64) *PerformanceMetrics {
	metrics := &PerformanceMetrics{
		FinalBalance: initialBalance,
		Returns:      make([]float64, 0),
		EquityCurve:  make([]EquityPoint, 0),
	}

	closed := make([]*domain.Position, 0, len(positions))
	for _, p := range SortChronologically(positions) {
		if !p.IsOpen() {
			closed = append(closed, p)
		}
	}
	if len(closed) == 0 {
		return metrics
	}

	currentBalance := initialBalance
	peakBalance := initialBalance
	var consecutiveWins, consecutiveLosses int
	var grossWin, grossLoss float64
	var totalDuration time.Duration

	for i, pos := range closed {
		pnl := pos.PNL
		metrics.TotalTrades++
		if i == 0 || pnl > metrics.BestTrade {
			metrics.BestTrade = pnl
		}
		if i == 0 || pnl < metrics.WorstTrade {
			metrics.WorstTrade = pnl
		}

		switch {
		case pnl > 0:
			metrics.WinningTrades++
			grossWin += pnl
			consecutiveWins++
			consecutiveLosses = 0
		case pnl < 0:
			metrics.LosingTrades++
			grossLoss += pnl
			consecutiveLosses++
			consecutiveWins = 0
		default:
			metrics.BreakEvenTrades++
			consecutiveWins = 0
			consecutiveLosses = 0
		}
		if consecutiveWins > metrics.MaxConsecutiveWins {
			metrics.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > metrics.MaxConsecutiveLosses {
			metrics.MaxConsecutiveLosses = consecutiveLosses
		}

		// Sequential, compounding denominator.
		if currentBalance > 0 {
			metrics.Returns = append(metrics.Returns, pnl/currentBalance)
		}

		currentBalance += pnl
		metrics.TotalProfit += pnl

		if currentBalance > peakBalance {
			peakBalance = currentBalance
		}
		drawdown := 0.0
		if peakBalance > 0 {
			drawdown = (peakBalance - currentBalance) / peakBalance
		}
		if drawdown > metrics.MaxDrawdown {
			metrics.MaxDrawdown = drawdown
		}

		metrics.EquityCurve = append(metrics.EquityCurve, EquityPoint{
			Time:     pos.EventTime(),
			Value:    currentBalance,
			Drawdown: drawdown,
		})
		totalDuration += pos.EventTime().Sub(pos.OpenTime)
	}

	metrics.FinalBalance = currentBalance
	metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades)
	if metrics.WinningTrades > 0 {
		metrics.AverageWin = grossWin / float64(metrics.WinningTrades)
	}
	if metrics.LosingTrades > 0 {
		metrics.AverageLoss = grossLoss / float64(metrics.LosingTrades)
	}
	if grossLoss != 0 {
		metrics.ProfitFactor = grossWin / -grossLoss
	}
	if initialBalance > 0 {
		metrics.ReturnOnInvestment = (metrics.FinalBalance - initialBalance) / initialBalance
	}
	metrics.AverageTradeDuration = totalDuration / time.Duration(len(closed))
	metrics.Expectancy = metrics.TotalProfit / float64(metrics.TotalTrades)

	return metrics
}
