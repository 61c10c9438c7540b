// Package behavior detects harmful trading habits in a trader's history.
package behavior

// PatternType names a detected habit.
type PatternType string

const (
	PatternLossAversion       PatternType = "LOSS_AVERSION"
	PatternRevengeTrading     PatternType = "REVENGE_TRADING"
	PatternOvertrading        PatternType = "OVERTRADING"
	PatternImpulsiveBehavior  PatternType = "IMPULSIVE_BEHAVIOR"
	PatternPoorRiskManagement PatternType = "POOR_RISK_MANAGEMENT"
	PatternConsecutiveLosses  PatternType = "CONSECUTIVE_LOSSES"
	PatternMovingStopLoss     PatternType = "MOVING_STOP_LOSS"
	PatternImpulsiveEntry     PatternType = "IMPULSIVE_ENTRY"
)

// Severity grades a pattern.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities from LOW (1) to CRITICAL (4). Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Pattern is one detected habit.
type Pattern struct {
	Type            PatternType
	Severity        Severity
	Occurrences     int     // number of matching events (or the run length for streaks)
	Ratio           float64 // fraction of the sample that matched, for ratio-based detectors
	Description     string
	Recommendations []string
}
