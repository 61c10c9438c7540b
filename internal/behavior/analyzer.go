package behavior

import (
	"fmt"
	"math"
	"sort"
	"time"

	"paperCoach/internal/analytics"
	"paperCoach/internal/domain"
	"paperCoach/internal/risk"
)

// Detection thresholds.
const (
	LossAversionShrink     = 0.5 // next notional below this share of the losing trade's
	LossAversionMin        = 3
	LossAversionHigh       = 5
	RevengeReentryWindow   = time.Hour
	RevengeSizeIncrease    = 1.2
	RevengeMin             = 2
	RevengeCritical        = 4
	OvertradingMin         = 10
	OvertradingCritical    = 15
	ImpulsiveRatio         = 0.5
	ImpulsiveHighRatio     = 0.7
	PoorRiskRR             = 0.5
	PoorRiskRatio          = 0.4
	PoorRiskCriticalRatio  = 0.6
	ConsecutiveLossesMin   = 3
	ConsecutiveLossesCrit  = 5
	MovingStopLossTPSL     = 0.5
	MovingStopLossMin      = 3
	ImpulsiveEntryMin      = 3
	DefaultOvertradeWindow = time.Hour
	// MinSample is the smallest sample a ratio-based detector evaluates.
	MinSample = 3
)

// Analyzer runs the pattern detectors. It holds no state between calls and never
// modifies its inputs.
type Analyzer struct {
	overtradingWindow time.Duration
}

// NewAnalyzer creates an analyzer. A non-positive window falls back to one hour.
func NewAnalyzer(overtradingWindow time.Duration) *Analyzer {
	if overtradingWindow <= 0 {
		overtradingWindow = DefaultOvertradeWindow
	}
	return &Analyzer{overtradingWindow: overtradingWindow}
}

// AnalyzeAllPatterns runs every detector and returns the detected patterns in this
// fixed order: loss aversion, revenge trading, overtrading, impulsive behavior, poor
// risk management, consecutive losses, moving stop loss, impulsive entry.
// The first pattern is the primary one.
func (a *Analyzer) AnalyzeAllPatterns(positions []*domain.Position, journals []*domain.JournalEntry) []Pattern {
	closed := closedChronological(positions)
	detectors := []func() *Pattern{
		func() *Pattern { return a.detectLossAversion(closed) },
		func() *Pattern { return a.detectRevengeTrading(closed) },
		func() *Pattern { return a.DetectOvertrading(positions) },
		func() *Pattern { return a.DetectImpulsiveBehavior(journals) },
		func() *Pattern { return a.detectPoorRiskManagement(closed) },
		func() *Pattern { return a.detectConsecutiveLosses(closed) },
		func() *Pattern { return a.detectMovingStopLoss(closed) },
		func() *Pattern { return a.DetectImpulsiveEntry(journals) },
	}
	patterns := make([]Pattern, 0, len(detectors))
	for _, d := range detectors {
		if p := d(); p != nil {
			patterns = append(patterns, *p)
		}
	}
	return patterns
}

// DetectLossAversion flags traders who shrink their next position by more than half
// after a loss.
func (a *Analyzer) DetectLossAversion(positions []*domain.Position) *Pattern {
	return a.detectLossAversion(closedChronological(positions))
}

func (a *Analyzer) detectLossAversion(closed []*domain.Position) *Pattern {
	var count int
	for i := 1; i < len(closed); i++ {
		prev, cur := closed[i-1], closed[i]
		if prev.PNL < 0 && cur.Notional() < prev.Notional()*LossAversionShrink {
			count++
		}
	}
	if count < LossAversionMin {
		return nil
	}
	sev := SeverityMedium
	if count >= LossAversionHigh {
		sev = SeverityHigh
	}
	return &Pattern{
		Type:        PatternLossAversion,
		Severity:    sev,
		Occurrences: count,
		Description: fmt.Sprintf("You cut your position size by more than half after a loss %d times.", count),
		Recommendations: []string{
			"Keep position size tied to your risk rule, not to the last result",
			"Review whether the losing trades followed your plan before changing size",
		},
	}
}

// DetectRevengeTrading flags re-entries within an hour of a loss with a larger position.
func (a *Analyzer) DetectRevengeTrading(positions []*domain.Position) *Pattern {
	return a.detectRevengeTrading(closedChronological(positions))
}

func (a *Analyzer) detectRevengeTrading(closed []*domain.Position) *Pattern {
	var count int
	for i := 1; i < len(closed); i++ {
		prev, cur := closed[i-1], closed[i]
		if prev.PNL >= 0 {
			continue
		}
		gap := cur.OpenTime.Sub(prev.EventTime())
		if gap < 0 || gap > RevengeReentryWindow {
			continue
		}
		if cur.Notional() > prev.Notional()*RevengeSizeIncrease {
			count++
		}
	}
	if count < RevengeMin {
		return nil
	}
	sev := SeverityHigh
	if count >= RevengeCritical {
		sev = SeverityCritical
	}
	return &Pattern{
		Type:        PatternRevengeTrading,
		Severity:    sev,
		Occurrences: count,
		Description: fmt.Sprintf("You opened a bigger position within an hour of a loss %d times.", count),
		Recommendations: []string{
			"Take a break of at least one hour after a losing trade",
			"Never increase size to win back a loss",
			"Write a journal entry before the next trade",
		},
	}
}

// DetectOvertrading flags the largest number of positions opened inside any trailing
// window of the analyzer's length.
func (a *Analyzer) DetectOvertrading(positions []*domain.Position) *Pattern {
	opens := make([]time.Time, 0, len(positions))
	for _, p := range positions {
		if p != nil {
			opens = append(opens, p.OpenTime)
		}
	}
	if len(opens) < OvertradingMin {
		return nil
	}
	sort.Slice(opens, func(i, j int) bool { return opens[i].Before(opens[j]) })

	var best, start int
	for end := range opens {
		for opens[end].Sub(opens[start]) > a.overtradingWindow {
			start++
		}
		if n := end - start + 1; n > best {
			best = n
		}
	}
	if best < OvertradingMin {
		return nil
	}
	sev := SeverityHigh
	if best >= OvertradingCritical {
		sev = SeverityCritical
	}
	return &Pattern{
		Type:        PatternOvertrading,
		Severity:    sev,
		Occurrences: best,
		Description: fmt.Sprintf("You opened %d positions within %s.", best, a.overtradingWindow),
		Recommendations: []string{
			"Set a daily trade limit and stop when you reach it",
			"Only trade setups written in your plan",
		},
	}
}

// DetectImpulsiveBehavior flags journals dominated by FOMO, revenge or greed.
func (a *Analyzer) DetectImpulsiveBehavior(journals []*domain.JournalEntry) *Pattern {
	var total, impulsive int
	for _, j := range journals {
		if j == nil {
			continue
		}
		total++
		if j.Emotion.IsImpulsive() {
			impulsive++
		}
	}
	if total < MinSample {
		return nil
	}
	ratio := float64(impulsive) / float64(total)
	if ratio <= ImpulsiveRatio {
		return nil
	}
	sev := SeverityMedium
	if ratio > ImpulsiveHighRatio {
		sev = SeverityHigh
	}
	return &Pattern{
		Type:        PatternImpulsiveBehavior,
		Severity:    sev,
		Occurrences: impulsive,
		Ratio:       ratio,
		Description: fmt.Sprintf("%.0f%% of your journal entries mention FOMO, revenge or greed.", ratio*100),
		Recommendations: []string{
			"Wait five minutes before entering when you feel FOMO",
			"Check the trade against your written plan first",
		},
	}
}

// DetectPoorRiskManagement flags histories where too many trades risked more than
// twice their potential reward.
func (a *Analyzer) DetectPoorRiskManagement(positions []*domain.Position) *Pattern {
	return a.detectPoorRiskManagement(closedChronological(positions))
}

func (a *Analyzer) detectPoorRiskManagement(closed []*domain.Position) *Pattern {
	if len(closed) < MinSample {
		return nil
	}
	var poor int
	for _, p := range closed {
		if risk.RiskRewardRatio(p.EntryPrice, p.TakeProfit, p.StopLoss, p.IsLong()) < PoorRiskRR {
			poor++
		}
	}
	ratio := float64(poor) / float64(len(closed))
	if ratio <= PoorRiskRatio {
		return nil
	}
	sev := SeverityHigh
	if ratio > PoorRiskCriticalRatio {
		sev = SeverityCritical
	}
	return &Pattern{
		Type:        PatternPoorRiskManagement,
		Severity:    sev,
		Occurrences: poor,
		Ratio:       ratio,
		Description: fmt.Sprintf("%.0f%% of your trades had a reward:risk below %.1f.", ratio*100, PoorRiskRR),
		Recommendations: []string{
			"Aim for a reward:risk of at least 1.5 on every trade",
			"Place the stop loss before choosing the take profit",
		},
	}
}

// DetectConsecutiveLosses flags a run of three or more losing trades in a row.
func (a *Analyzer) DetectConsecutiveLosses(positions []*domain.Position) *Pattern {
	return a.detectConsecutiveLosses(closedChronological(positions))
}

func (a *Analyzer) detectConsecutiveLosses(closed []*domain.Position) *Pattern {
	run := MaxConsecutiveLosses(closed)
	if run < ConsecutiveLossesMin {
		return nil
	}
	sev := SeverityHigh
	if run >= ConsecutiveLossesCrit {
		sev = SeverityCritical
	}
	return &Pattern{
		Type:        PatternConsecutiveLosses,
		Severity:    sev,
		Occurrences: run,
		Description: fmt.Sprintf("You lost %d trades in a row.", run),
		Recommendations: []string{
			"Stop trading for the day after three losses in a row",
			"Reduce position size until you record a win",
		},
	}
}

// MaxConsecutiveLosses returns the longest run of losing trades in chronological order.
func MaxConsecutiveLosses(positions []*domain.Position) int {
	return analytics.AnalyzePerformance(positions, 0).MaxConsecutiveLosses
}

// DetectMovingStopLoss approximates stop-loss widening: trades whose take-profit
// distance is less than half their stop-loss distance.
func (a *Analyzer) DetectMovingStopLoss(positions []*domain.Position) *Pattern {
	return a.detectMovingStopLoss(closedChronological(positions))
}

func (a *Analyzer) detectMovingStopLoss(closed []*domain.Position) *Pattern {
	var count int
	for _, p := range closed {
		slDist := math.Abs(p.EntryPrice - p.StopLoss)
		if slDist == 0 {
			continue
		}
		if math.Abs(p.TakeProfit-p.EntryPrice)/slDist < MovingStopLossTPSL {
			count++
		}
	}
	if count < MovingStopLossMin {
		return nil
	}
	return &Pattern{
		Type:        PatternMovingStopLoss,
		Severity:    SeverityMedium,
		Occurrences: count,
		Ratio:       float64(count) / float64(len(closed)),
		Description: fmt.Sprintf("%d trades had a stop loss more than twice as far as the target.", count),
		Recommendations: []string{
			"Decide the stop loss before entry and do not widen it",
		},
	}
}

// DetectImpulsiveEntry approximates rushed entries from FOMO and greed journal tags.
func (a *Analyzer) DetectImpulsiveEntry(journals []*domain.JournalEntry) *Pattern {
	var count int
	for _, j := range journals {
		if j != nil && (j.Emotion == domain.EmotionFOMO || j.Emotion == domain.EmotionGreedy) {
			count++
		}
	}
	if count < ImpulsiveEntryMin {
		return nil
	}
	return &Pattern{
		Type:        PatternImpulsiveEntry,
		Severity:    SeverityMedium,
		Occurrences: count,
		Description: fmt.Sprintf("%d entries were tagged FOMO or greed.", count),
		Recommendations: []string{
			"Write down the entry reason before clicking buy or sell",
		},
	}
}

func closedChronological(positions []*domain.Position) []*domain.Position {
	sorted := analytics.SortChronologically(positions)
	closed := sorted[:0]
	for _, p := range sorted {
		if !p.IsOpen() {
			closed = append(closed, p)
		}
	}
	return closed
}
