package coaching

import (
	"fmt"
	"strings"
	"time"

	"paperCoach/internal/analytics"
	"paperCoach/internal/behavior"
	"paperCoach/internal/domain"
	"paperCoach/internal/risk"
)

// WeeklyReport summarizes one week of trading. Rates are percentages.
type WeeklyReport struct {
	WeekStart           time.Time
	WeekEnd             time.Time // exclusive
	TotalTrades         int
	WinningTrades       int
	WinRate             float64
	TotalPNL            float64
	BestTrade           float64
	WorstTrade          float64
	JournalEntries      int
	NegativeEmotionRate float64
	RiskScore           float64
	Patterns            []behavior.Pattern
	Suggestions         []string
}

// GenerateWeeklyReport aggregates positions closed and journal entries written in
// [weekStart, weekStart+7d).
func (e *Engine) GenerateWeeklyReport(positions []*domain.Position, journals []*domain.JournalEntry, weekStart time.Time, initialBalance float64) WeeklyReport {
	weekEnd := weekStart.AddDate(0, 0, 7)
	in := func(t time.Time) bool { return !t.Before(weekStart) && t.Before(weekEnd) }

	week := make([]*domain.Position, 0, len(positions))
	for _, p := range positions {
		if p != nil && !p.IsOpen() && p.CloseTime != nil && in(*p.CloseTime) {
			week = append(week, p)
		}
	}
	weekJournals := make([]*domain.JournalEntry, 0, len(journals))
	var negative int
	for _, j := range journals {
		if j == nil || !in(j.Timestamp) {
			continue
		}
		weekJournals = append(weekJournals, j)
		if j.Emotion.IsNegative() {
			negative++
		}
	}

	perf := analytics.AnalyzePerformance(week, initialBalance)
	r := WeeklyReport{
		WeekStart:      weekStart,
		WeekEnd:        weekEnd,
		TotalTrades:    perf.TotalTrades,
		WinningTrades:  perf.WinningTrades,
		WinRate:        perf.WinRate * 100,
		TotalPNL:       perf.TotalProfit,
		BestTrade:      perf.BestTrade,
		WorstTrade:     perf.WorstTrade,
		JournalEntries: len(weekJournals),
		RiskScore:      risk.RiskScore(week, initialBalance).Score,
		Patterns:       e.analyzer.AnalyzeAllPatterns(week, weekJournals),
	}
	if len(weekJournals) > 0 {
		r.NegativeEmotionRate = float64(negative) / float64(len(weekJournals)) * 100
	}

	if r.TotalTrades > 0 && r.WinRate < 50 {
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("Your win rate was %.0f%%. Review your entry criteria and only take A+ setups.", r.WinRate))
	}
	if r.TotalPNL < 0 {
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("You lost %.2f this week. Reduce position size until you are profitable again.", -r.TotalPNL))
	}
	if r.RiskScore < 60 {
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("Your risk score was %.0f/100. Risk less per trade and keep a stop loss on every position.", r.RiskScore))
	}
	if r.NegativeEmotionRate > 50 {
		r.Suggestions = append(r.Suggestions, fmt.Sprintf("%.0f%% of your journal entries were negative. Take a break after emotional trades.", r.NegativeEmotionRate))
	}
	if len(r.Patterns) > 0 {
		names := make([]string, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			names = append(names, PatternTitle(p.Type))
		}
		r.Suggestions = append(r.Suggestions, "Work on these habits: "+strings.Join(names, ", ")+".")
	}
	if len(r.Suggestions) == 0 {
		r.Suggestions = append(r.Suggestions, "Great week! You traded with discipline. Keep it up.")
	}
	return r
}
