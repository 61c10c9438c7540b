package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"paperCoach/internal/domain"
)

func TestTradeSize(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"spot", SpotTradeSize(100, 50), 2},
		{"spot zero entry", SpotTradeSize(100, 0), 0},
		{"spot negative entry", SpotTradeSize(100, -1), 0},
		{"futures", FuturesTradeSize(100, 5, 50), 10},
		{"futures zero leverage", FuturesTradeSize(100, 0, 50), 0},
		{"futures zero entry", FuturesTradeSize(100, 5, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.got, 1e-12)
		})
	}
}

func TestPnL(t *testing.T) {
	assert.Equal(t, 50.0, PnL(1, 100, 110, 5, true))
	assert.Equal(t, -50.0, PnL(1, 100, 110, 5, false))
	assert.Equal(t, 20.0, PnL(2, 100, 90, 1, false))
	assert.Equal(t, 0.0, PnL(3, 100, 100, 7, true))
}

func TestRRRatio(t *testing.T) {
	assert.Equal(t, 2.0, RRRatio(100, 110, 95, true))
	assert.Equal(t, 2.0, RRRatio(100, 90, 105, false))
	assert.Equal(t, 0.0, RRRatio(100, 110, 100, true), "zero loss distance")
	assert.Equal(t, 0.0, RRRatio(100, 110, 105, true), "stop on the wrong side")
}

func TestCalculateTrade(t *testing.T) {
	res := CalculateTrade(TradeInput{
		RiskAmount: 100,
		EntryPrice: 100,
		TakeProfit: 110,
		StopLoss:   95,
		Leverage:   2,
		Direction:  domain.Long,
		TradeType:  domain.Futures,
	})
	assert.InDelta(t, 2.0, res.TradeSize, 1e-12)
	assert.InDelta(t, 2.0, res.RRRatio, 1e-12)
	assert.InDelta(t, -20.0, res.MaxLoss, 1e-12)
	assert.InDelta(t, 40.0, res.MaxProfit, 1e-12)
	assert.Equal(t, 100.0, res.RiskAmount)
	assert.Equal(t, 2, res.Leverage)

	spot := CalculateTrade(TradeInput{
		RiskAmount: 100,
		EntryPrice: 100,
		TakeProfit: 90,
		StopLoss:   105,
		Leverage:   10,
		Direction:  domain.Short,
		TradeType:  domain.Spot,
	})
	assert.Equal(t, 1, spot.Leverage, "spot ignores leverage")
	assert.InDelta(t, 1.0, spot.TradeSize, 1e-12)
	assert.InDelta(t, -5.0, spot.MaxLoss, 1e-12)
	assert.InDelta(t, 10.0, spot.MaxProfit, 1e-12)
}

func TestCalculateTrade_EntryEqualsExitIsFlat(t *testing.T) {
	for _, dir := range []domain.Direction{domain.Long, domain.Short} {
		for _, lev := range []int{1, 3, 20} {
			res := CalculateTrade(TradeInput{
				RiskAmount: 250, EntryPrice: 42.5, TakeProfit: 50, StopLoss: 40,
				Leverage: lev, Direction: dir, TradeType: domain.Futures,
			})
			assert.Equal(t, 0.0, PnL(res.TradeSize, 42.5, 42.5, lev, dir == domain.Long))
		}
	}
}
