package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperCoach/internal/domain"
)

func closedAt(pnl float64, open, close time.Time) *domain.Position {
	p := &domain.Position{Symbol: "BTCUSDT", EntryPrice: 100, Quantity: 1, Leverage: 1, OpenTime: open, Status: domain.StatusOpen}
	p.Close(close, 100, pnl, domain.CloseReasonManual)
	return p
}

func TestAnalyzePerformance(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	// Deliberately out of order: the walk must follow close time.
	positions := []*domain.Position{
		closedAt(-1000, base.Add(2*time.Hour), base.Add(3*time.Hour)),
		closedAt(1000, base, base.Add(time.Hour)),
		closedAt(500, base.Add(4*time.Hour), base.Add(5*time.Hour)),
	}

	metrics := AnalyzePerformance(positions, 10000)

	assert.Equal(t, 3, metrics.TotalTrades)
	assert.Equal(t, 2, metrics.WinningTrades)
	assert.Equal(t, 1, metrics.LosingTrades)
	assert.InDelta(t, 2.0/3.0, metrics.WinRate, 1e-12)
	assert.Equal(t, 500.0, metrics.TotalProfit)
	assert.Equal(t, 10500.0, metrics.FinalBalance)
	assert.Equal(t, 1000.0, metrics.BestTrade)
	assert.Equal(t, -1000.0, metrics.WorstTrade)
	assert.InDelta(t, 1000.0/11000.0, metrics.MaxDrawdown, 1e-12)
	assert.InDelta(t, 1.5, metrics.ProfitFactor, 1e-12)
	assert.Equal(t, 1, metrics.MaxConsecutiveLosses)
	assert.Equal(t, time.Hour, metrics.AverageTradeDuration)

	require.Len(t, metrics.Returns, 3)
	assert.InDelta(t, 0.1, metrics.Returns[0], 1e-12)
	assert.InDelta(t, -1000.0/11000.0, metrics.Returns[1], 1e-12)
	assert.InDelta(t, 0.05, metrics.Returns[2], 1e-12)

	require.Len(t, metrics.EquityCurve, 3)
	assert.Equal(t, 11000.0, metrics.EquityCurve[0].Value)

	// Input order must be untouched.
	assert.Equal(t, -1000.0, positions[0].PNL)
}

func TestAnalyzePerformance_Empty(t *testing.T) {
	metrics := AnalyzePerformance(nil, 5000)
	assert.Equal(t, 0, metrics.TotalTrades)
	assert.Equal(t, 5000.0, metrics.FinalBalance)
	assert.Empty(t, metrics.EquityCurve)
}

func TestAnalyzePerformance_IgnoresOpenAndCountsStreaks(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	open := &domain.Position{Symbol: "BTCUSDT", OpenTime: base, Status: domain.StatusOpen}
	positions := []*domain.Position{
		open,
		closedAt(-10, base, base.Add(1*time.Minute)),
		closedAt(-10, base, base.Add(2*time.Minute)),
		closedAt(-10, base, base.Add(3*time.Minute)),
		closedAt(20, base, base.Add(4*time.Minute)),
		closedAt(-10, base, base.Add(5*time.Minute)),
	}
	metrics := AnalyzePerformance(positions, 1000)
	assert.Equal(t, 5, metrics.TotalTrades)
	assert.Equal(t, 3, metrics.MaxConsecutiveLosses)
	assert.Equal(t, 1, metrics.MaxConsecutiveWins)
}

func TestStats(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 2.5, Mean([]float64{1, 2, 3, 4}))
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Equal(t, 100.0, Clamp(120, 0, 100))
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}
