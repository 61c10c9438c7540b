package coaching

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperCoach/internal/behavior"
	"paperCoach/internal/domain"
)

var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func closedTrade(pnl float64, closedAt time.Time) *domain.Position {
	p := &domain.Position{
		Symbol:     "ETHUSDT",
		Quantity:   10,
		EntryPrice: 100,
		TakeProfit: 110,
		StopLoss:   95,
		Leverage:   1,
		Direction:  domain.Long,
		TradeType:  domain.Spot,
		OpenTime:   closedAt.Add(-time.Hour),
		Status:     domain.StatusOpen,
	}
	p.Close(closedAt, 100, pnl, domain.CloseReasonManual)
	return p
}

func dailyTrades(pnls ...float64) []*domain.Position {
	out := make([]*domain.Position, 0, len(pnls))
	for i, pnl := range pnls {
		out = append(out, closedTrade(pnl, monday.Add(time.Duration(i)*24*time.Hour+12*time.Hour)))
	}
	return out
}

func entries(at time.Time, emotions ...domain.Emotion) []*domain.JournalEntry {
	out := make([]*domain.JournalEntry, 0, len(emotions))
	for i, e := range emotions {
		out = append(out, &domain.JournalEntry{Emotion: e, Timestamp: at.Add(time.Duration(i) * time.Hour)})
	}
	return out
}

func categories(ms []Message) []Category {
	out := make([]Category, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Category)
	}
	return out
}

func TestAnalyzeTradingSession_Onboarding(t *testing.T) {
	ms := NewEngine(nil).AnalyzeTradingSession(nil, nil, 10000)
	require.Len(t, ms, 1)
	assert.Equal(t, CategorySuggestion, ms[0].Category)
	assert.NotEmpty(t, ms[0].ActionItems)
}

func TestAnalyzeTradingSession_PatternWarning(t *testing.T) {
	ms := NewEngine(nil).AnalyzeTradingSession(dailyTrades(-10, -10, -10), nil, 10000)

	assert.Equal(t, []Category{CategoryWarning, CategoryPositive}, categories(ms))
	assert.Equal(t, behavior.PatternConsecutiveLosses, ms[0].PatternType)
	assert.Equal(t, "Consecutive Losses", ms[0].Title)
	assert.NotEmpty(t, ms[0].ActionItems)
}

func TestAnalyzeTradingSession_CleanHistory(t *testing.T) {
	pnls := make([]float64, 10)
	for i := range pnls {
		pnls[i] = 10
	}
	ms := NewEngine(nil).AnalyzeTradingSession(dailyTrades(pnls...), nil, 10000)

	require.Equal(t, []Category{CategoryPositive, CategoryPositive, CategoryPositive}, categories(ms))
	assert.Equal(t, "Healthy risk profile", ms[0].Title)
	assert.Equal(t, "Profitable and consistent", ms[1].Title)
	assert.Equal(t, "Disciplined trading", ms[2].Title)
}

func TestAnalyzeTradingSession_LowWinRate(t *testing.T) {
	ms := NewEngine(nil).AnalyzeTradingSession(dailyTrades(-10, -10, 20, -10, -10), nil, 10000)

	require.Equal(t, []Category{CategoryPositive, CategorySuggestion}, categories(ms))
	assert.Equal(t, "Low win rate", ms[1].Title)
}

func TestAnalyzeTradingSession_HighRisk(t *testing.T) {
	ms := NewEngine(nil).AnalyzeTradingSession(dailyTrades(100, -100), nil, 1000)

	require.Len(t, ms, 1)
	assert.Equal(t, CategoryWarning, ms[0].Category)
	assert.Equal(t, "High risk", ms[0].Title)
	assert.Len(t, ms[0].ActionItems, 3)
	assert.Empty(t, ms[0].PatternType)
}

func TestAnalyzeTradingSession_IgnoresOpenPositionsForStats(t *testing.T) {
	open := &domain.Position{Symbol: "BTCUSDT", OpenTime: monday, Status: domain.StatusOpen}
	ms := NewEngine(nil).AnalyzeTradingSession([]*domain.Position{open}, nil, 10000)
	require.Len(t, ms, 1)
	assert.Equal(t, CategoryPositive, ms[0].Category)
}

func TestRecommendChallenge(t *testing.T) {
	e := NewEngine(nil)

	c := e.RecommendChallenge(nil)
	assert.Equal(t, ChallengeConsistency, c.Type)
	assert.Equal(t, DifficultyEasy, c.Difficulty)
	assert.Empty(t, c.PatternType)

	tests := []struct {
		primary behavior.PatternType
		want    ChallengeType
		diff    Difficulty
	}{
		{behavior.PatternPoorRiskManagement, ChallengeRiskManagement, DifficultyMedium},
		{behavior.PatternMovingStopLoss, ChallengeRiskManagement, DifficultyMedium},
		{behavior.PatternOvertrading, ChallengeDiscipline, DifficultyMedium},
		{behavior.PatternRevengeTrading, ChallengeEmotionControl, DifficultyHard},
		{behavior.PatternImpulsiveBehavior, ChallengeEmotionControl, DifficultyHard},
		{behavior.PatternConsecutiveLosses, ChallengeEmotionControl, DifficultyHard},
	}
	for _, tt := range tests {
		t.Run(string(tt.primary), func(t *testing.T) {
			c := e.RecommendChallenge([]behavior.Pattern{{Type: tt.primary}, {Type: behavior.PatternOvertrading}})
			assert.Equal(t, tt.want, c.Type)
			assert.Equal(t, tt.diff, c.Difficulty)
			assert.Equal(t, tt.primary, c.PatternType)
			assert.Positive(t, c.TargetValue)
			assert.NotEmpty(t, c.TargetType)
		})
	}
}

func TestGenerateWeeklyReport_GoodWeek(t *testing.T) {
	positions := []*domain.Position{
		closedTrade(50, monday.Add(10*time.Hour)),
		closedTrade(-20, monday.Add(34*time.Hour)),
		closedTrade(-500, monday.Add(8*24*time.Hour)),
		{Symbol: "BTCUSDT", OpenTime: monday, Status: domain.StatusOpen},
	}
	journals := append(entries(monday.Add(time.Hour), domain.EmotionFear, domain.EmotionCalm),
		entries(monday.Add(-time.Hour), domain.EmotionRevenge)...)

	r := NewEngine(nil).GenerateWeeklyReport(positions, journals, monday, 10000)

	assert.Equal(t, monday.AddDate(0, 0, 7), r.WeekEnd)
	assert.Equal(t, 2, r.TotalTrades)
	assert.Equal(t, 1, r.WinningTrades)
	assert.Equal(t, 50.0, r.WinRate)
	assert.Equal(t, 30.0, r.TotalPNL)
	assert.Equal(t, 50.0, r.BestTrade)
	assert.Equal(t, -20.0, r.WorstTrade)
	assert.Equal(t, 2, r.JournalEntries)
	assert.Equal(t, 50.0, r.NegativeEmotionRate)
	assert.GreaterOrEqual(t, r.RiskScore, 60.0)
	assert.Empty(t, r.Patterns)
	require.Len(t, r.Suggestions, 1)
	assert.Contains(t, r.Suggestions[0], "Great week")
}

func TestGenerateWeeklyReport_BadWeek(t *testing.T) {
	positions := dailyTrades(-10, -10, -10)
	journals := entries(monday.Add(2*time.Hour), domain.EmotionFOMO, domain.EmotionFOMO, domain.EmotionFOMO)

	r := NewEngine(nil).GenerateWeeklyReport(positions, journals, monday, 10000)

	assert.Equal(t, 0.0, r.WinRate)
	assert.Equal(t, -30.0, r.TotalPNL)
	assert.Equal(t, 100.0, r.NegativeEmotionRate)
	require.Len(t, r.Patterns, 3)
	require.Len(t, r.Suggestions, 4)
	assert.Contains(t, r.Suggestions[0], "win rate")
	assert.Contains(t, r.Suggestions[1], "lost 30.00")
	assert.Contains(t, r.Suggestions[2], "negative")
	assert.Contains(t, r.Suggestions[3], "Consecutive Losses")
}

func TestGenerateWeeklyReport_EmptyWeek(t *testing.T) {
	r := NewEngine(nil).GenerateWeeklyReport(nil, nil, monday, 10000)
	assert.Equal(t, 0, r.TotalTrades)
	assert.Equal(t, 100.0, r.RiskScore)
	assert.Equal(t, []string{"Great week! You traded with discipline. Keep it up."}, r.Suggestions)
}

func TestPatternTitle(t *testing.T) {
	assert.Equal(t, "Poor Risk Management", PatternTitle(behavior.PatternPoorRiskManagement))
	assert.Equal(t, "Overtrading", PatternTitle(behavior.PatternOvertrading))
}
