// Package coaching turns risk metrics and detected habits into feedback messages,
// challenges and weekly reports.
package coaching

import (
	"fmt"
	"strings"

	"paperCoach/internal/analytics"
	"paperCoach/internal/behavior"
	"paperCoach/internal/domain"
	"paperCoach/internal/risk"
)

// Category classifies a coaching message.
type Category string

const (
	CategoryWarning    Category = "WARNING"
	CategorySuggestion Category = "SUGGESTION"
	CategoryPositive   Category = "POSITIVE"
)

// Message is one piece of feedback.
type Message struct {
	Category    Category
	Title       string
	Text        string
	ActionItems []string
	PatternType behavior.PatternType // set for pattern warnings
}

// Engine produces coaching feedback. It is stateless.
type Engine struct {
	analyzer *behavior.Analyzer
}

// NewEngine creates a coaching engine backed by analyzer. A nil analyzer uses the
// default overtrading window.
func NewEngine(analyzer *behavior.Analyzer) *Engine {
	if analyzer == nil {
		analyzer = behavior.NewAnalyzer(0)
	}
	return &Engine{analyzer: analyzer}
}

const (
	statsMinTrades         = 5
	reinforcementMinTrades = 10
)

// AnalyzeTradingSession builds the feedback for a trading session: a warning per
// detected pattern, a risk-score message, a statistics message once there are enough
// closed trades, and praise for a clean history.
func (e *Engine) AnalyzeTradingSession(positions []*domain.Position, journals []*domain.JournalEntry, initialBalance float64) []Message {
	if len(positions) == 0 {
		return []Message{{
			Category: CategorySuggestion,
			Title:    "Start your first paper trade",
			Text:     "Place a few simulated trades so your habits can be analyzed.",
			ActionItems: []string{
				"Set your risk per trade in settings",
				"Place a trade with a stop loss and a take profit",
				"Write a journal entry about how you felt",
			},
		}}
	}

	patterns := e.analyzer.AnalyzeAllPatterns(positions, journals)
	messages := make([]Message, 0, len(patterns)+3)
	for _, p := range patterns {
		messages = append(messages, patternMessage(p))
	}

	closed := closedOnly(positions)
	messages = append(messages, riskMessage(risk.RiskScore(closed, initialBalance)))

	if len(closed) >= statsMinTrades {
		if m, ok := statsMessage(analytics.AnalyzePerformance(closed, initialBalance)); ok {
			messages = append(messages, m)
		}
	}

	if len(patterns) == 0 && len(closed) >= reinforcementMinTrades {
		messages = append(messages, Message{
			Category: CategoryPositive,
			Title:    "Disciplined trading",
			Text:     fmt.Sprintf("No harmful patterns across your last %d trades. Keep following your plan.", len(closed)),
		})
	}
	return messages
}

func patternMessage(p behavior.Pattern) Message {
	return Message{
		Category:    CategoryWarning,
		Title:       PatternTitle(p.Type),
		Text:        p.Description,
		ActionItems: append([]string(nil), p.Recommendations...),
		PatternType: p.Type,
	}
}

func riskMessage(m risk.RiskMetrics) Message {
	switch {
	case m.Score >= 70:
		return Message{
			Category: CategoryPositive,
			Title:    "Healthy risk profile",
			Text:     fmt.Sprintf("Your risk score is %.0f/100.", m.Score),
		}
	case m.Score >= 50:
		return Message{
			Category: CategorySuggestion,
			Title:    "Moderate risk",
			Text:     fmt.Sprintf("Your risk score is %.0f/100. A few adjustments would make your results steadier.", m.Score),
			ActionItems: []string{
				"Keep risk per trade at or below 1% of balance",
			},
		}
	default:
		return Message{
			Category: CategoryWarning,
			Title:    "High risk",
			Text: fmt.Sprintf("Your risk score is %.0f/100 with a %.1f%% max drawdown.",
				m.Score, m.MaxDrawdown),
			ActionItems: []string{
				"Halve your position size until the score recovers",
				"Use a stop loss on every trade",
				"Set a daily loss limit and respect it",
			},
		}
	}
}

func statsMessage(perf *analytics.PerformanceMetrics) (Message, bool) {
	winRate := perf.WinRate * 100
	switch {
	case perf.TotalProfit > 0 && winRate >= 50:
		return Message{
			Category: CategoryPositive,
			Title:    "Profitable and consistent",
			Text: fmt.Sprintf("%d trades, %.0f%% win rate, %.2f total profit.",
				perf.TotalTrades, winRate, perf.TotalProfit),
		}, true
	case winRate < 40:
		return Message{
			Category: CategorySuggestion,
			Title:    "Low win rate",
			Text:     fmt.Sprintf("Only %.0f%% of your %d trades were winners.", winRate, perf.TotalTrades),
			ActionItems: []string{
				"Review your losing trades for a common setup",
				"Trade fewer, higher-quality setups",
			},
		}, true
	}
	return Message{}, false
}

// PatternTitle returns a readable title for a pattern type.
func PatternTitle(t behavior.PatternType) string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func closedOnly(positions []*domain.Position) []*domain.Position {
	out := make([]*domain.Position, 0, len(positions))
	for _, p := range positions {
		if p != nil && !p.IsOpen() {
			out = append(out, p)
		}
	}
	return out
}
