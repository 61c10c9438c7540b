package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperCoach/internal/domain"
	"paperCoach/internal/ports"
)

func codes(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Code)
	}
	return out
}

func validLongRequest() ValidationRequest {
	return ValidationRequest{
		Symbol:     "BTCUSDT",
		EntryPrice: 100,
		TakeProfit: 110,
		StopLoss:   95,
		Direction:  domain.Long,
		Balance:    10000,
	}
}

func TestValidate_ValidSpotLong(t *testing.T) {
	v := NewValidator()
	res := v.Validate(validLongRequest(), domain.DefaultUserSettings("u1"))

	require.True(t, res.IsValid, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.NoError(t, res.Err())
	assert.Equal(t, 2.0, res.RRRatio)
	assert.Equal(t, 100.0, res.RiskAmount, "1% of 10000 from settings")
	assert.Equal(t, 1.0, res.TradeSize)
	assert.Equal(t, 5.0, res.MaxLoss)
	assert.InDelta(t, 0.05, res.MaxLossPercent, 1e-9)
	assert.Equal(t, domain.Spot, res.TradeType)
	assert.Equal(t, 1, res.Leverage)
}

func TestValidate_InvalidPriceShortCircuits(t *testing.T) {
	req := validLongRequest()
	req.EntryPrice = 0
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{CodeInvalidPrice}, codes(res.Errors))
	assert.ErrorIs(t, res.Err(), ports.ErrValidationFailed)

	req = validLongRequest()
	req.StopLoss = 0
	res = NewValidator().Validate(req, domain.DefaultUserSettings("u1"))
	assert.Equal(t, []string{CodeInvalidPrice}, codes(res.Errors))
}

func TestValidate_WrongSides(t *testing.T) {
	req := validLongRequest()
	req.Direction = domain.Short
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	assert.False(t, res.IsValid)
	assert.Contains(t, codes(res.Errors), CodeTakeProfitSide)
	assert.Contains(t, codes(res.Errors), CodeStopLossSide)
	assert.Contains(t, codes(res.Warnings), CodeLowRiskReward)
	assert.Equal(t, 0.0, res.RRRatio)
}

func TestValidate_ValidShort(t *testing.T) {
	req := validLongRequest()
	req.Direction = domain.Short
	req.TakeProfit = 90
	req.StopLoss = 105
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	assert.True(t, res.IsValid, "errors: %v", res.Errors)
	assert.Equal(t, 2.0, res.RRRatio)
}

func TestValidate_MinimumDistance(t *testing.T) {
	req := validLongRequest()
	req.TakeProfit = 100.05
	req.StopLoss = 99.95
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	assert.False(t, res.IsValid)
	assert.Contains(t, codes(res.Errors), CodeTakeProfitTooClose)
	assert.Contains(t, codes(res.Errors), CodeStopLossTooClose)
	assert.NotContains(t, codes(res.Errors), CodeTakeProfitSide)
}

func TestValidate_LeveragedLossLimits(t *testing.T) {
	req := validLongRequest()
	req.TradeType = domain.Futures
	req.Leverage = 10
	req.RiskAmount = 1000
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	// size = 1000*10/100 = 100; loss at SL = 5 * 100 * 10 = 5000.
	assert.Equal(t, 100.0, res.TradeSize)
	assert.Equal(t, 5000.0, res.MaxLoss)
	assert.Equal(t, 50.0, res.MaxLossPercent)
	assert.False(t, res.IsValid)
	assert.Contains(t, codes(res.Errors), CodeMaxLossExceeded)
	assert.Contains(t, codes(res.Errors), CodeDailyLossLimit)
	assert.NotContains(t, codes(res.Errors), CodeInsufficientMargin)
	assert.Contains(t, codes(res.Warnings), CodeHighLoss)
	assert.NotContains(t, codes(res.Warnings), CodeHighLeverage)
}

func TestValidate_MaxPositions(t *testing.T) {
	req := validLongRequest()
	req.ActivePositions = 5
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	assert.False(t, res.IsValid)
	assert.Equal(t, []string{CodeMaxPositions}, codes(res.Errors))
}

func TestValidate_DailyLossLimitIncludesRealized(t *testing.T) {
	req := validLongRequest()
	req.TodayRealizedLoss = 496
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))
	assert.Equal(t, []string{CodeDailyLossLimit}, codes(res.Errors))

	req.TodayRealizedLoss = -496
	res = NewValidator().Validate(req, domain.DefaultUserSettings("u1"))
	assert.Equal(t, []string{CodeDailyLossLimit}, codes(res.Errors), "sign of realized loss is ignored")

	req.TodayRealizedLoss = 400
	res = NewValidator().Validate(req, domain.DefaultUserSettings("u1"))
	assert.True(t, res.IsValid)
}

func TestValidate_InsufficientMargin(t *testing.T) {
	req := validLongRequest()
	req.Balance = 50
	req.RiskAmount = 100
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	assert.False(t, res.IsValid)
	assert.Contains(t, codes(res.Errors), CodeInsufficientMargin)
}

func TestValidate_LeverageRange(t *testing.T) {
	req := validLongRequest()
	req.TradeType = domain.Futures
	req.Leverage = 25
	req.RiskAmount = 1
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	assert.Contains(t, codes(res.Errors), CodeLeverageOutOfRange)
	assert.Contains(t, codes(res.Warnings), CodeHighLeverage)

	req.Leverage = 15
	res = NewValidator().Validate(req, domain.DefaultUserSettings("u1"))
	assert.True(t, res.IsValid, "errors: %v", res.Errors)
	assert.Equal(t, []string{CodeHighLeverage}, codes(res.Warnings))
}

func TestValidate_DefaultsFromSettings(t *testing.T) {
	settings := domain.DefaultUserSettings("u1")
	settings.RiskMode = domain.RiskModeFixed
	settings.RiskValue = 20
	settings.TradeMode = domain.Futures
	settings.DefaultLeverage = 3

	res := NewValidator().Validate(validLongRequest(), settings)
	assert.Equal(t, 20.0, res.RiskAmount)
	assert.Equal(t, 3, res.Leverage)
	assert.Equal(t, domain.Futures, res.TradeType)
	assert.InDelta(t, 0.6, res.TradeSize, 1e-9)
}

func TestValidate_ErrListsEveryReason(t *testing.T) {
	req := validLongRequest()
	req.ActivePositions = 9
	req.TodayRealizedLoss = 10000
	res := NewValidator().Validate(req, domain.DefaultUserSettings("u1"))

	err := res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrValidationFailed)
	for _, v := range res.Errors {
		assert.Contains(t, err.Error(), v.Message)
	}
}

func TestValidate_LongWithOrderedPricesNeverHasSideError(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	v := NewValidator()
	settings := domain.DefaultUserSettings("u1")
	for i := 0; i < 500; i++ {
		entry := 1 + rng.Float64()*50000
		req := ValidationRequest{
			EntryPrice: entry,
			StopLoss:   entry * (0.01 + 0.98*rng.Float64()),
			TakeProfit: entry * (1.0001 + rng.Float64()*3),
			Leverage:   1 + rng.Intn(30),
			Direction:  domain.Long,
			TradeType:  domain.Futures,
			RiskAmount: rng.Float64() * 1000,
			Balance:    rng.Float64() * 100000,
		}
		res := v.Validate(req, settings)
		assert.NotContains(t, codes(res.Errors), CodeTakeProfitSide)
		assert.NotContains(t, codes(res.Errors), CodeStopLossSide)
	}
}
