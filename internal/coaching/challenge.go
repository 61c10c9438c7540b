package coaching

import "paperCoach/internal/behavior"

// ChallengeType identifies a challenge template.
type ChallengeType string

const (
	ChallengeRiskManagement ChallengeType = "RISK_MANAGEMENT"
	ChallengeEmotionControl ChallengeType = "EMOTION_CONTROL"
	ChallengeDiscipline     ChallengeType = "DISCIPLINE"
	ChallengeConsistency    ChallengeType = "CONSISTENCY"
)

// Difficulty grades a challenge.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Challenge is a goal offered to the trader.
type Challenge struct {
	Type         ChallengeType
	Title        string
	Description  string
	TargetValue  float64
	TargetType   string
	Difficulty   Difficulty
	DurationDays int
	// Pattern that triggered the recommendation, empty for the default challenge.
	PatternType behavior.PatternType
}

var (
	riskManagementChallenge = Challenge{
		Type:         ChallengeRiskManagement,
		Title:        "Risk:Reward Master",
		Description:  "Complete 10 trades with a reward:risk of at least 1.5.",
		TargetValue:  10,
		TargetType:   "TRADES_MIN_RR_1_5",
		Difficulty:   DifficultyMedium,
		DurationDays: 14,
	}
	emotionControlChallenge = Challenge{
		Type:         ChallengeEmotionControl,
		Title:        "Calm Trader",
		Description:  "Complete 5 trades journaled as calm.",
		TargetValue:  5,
		TargetType:   "CALM_JOURNALED_TRADES",
		Difficulty:   DifficultyHard,
		DurationDays: 7,
	}
	disciplineChallenge = Challenge{
		Type:         ChallengeDiscipline,
		Title:        "Quality Over Quantity",
		Description:  "Take at most 5 trades per day for 7 days.",
		TargetValue:  5,
		TargetType:   "MAX_TRADES_PER_DAY",
		Difficulty:   DifficultyMedium,
		DurationDays: 7,
	}
	consistencyChallenge = Challenge{
		Type:         ChallengeConsistency,
		Title:        "Consistent Journaling",
		Description:  "Write a journal entry every trading day for 7 days.",
		TargetValue:  7,
		TargetType:   "JOURNAL_DAYS",
		Difficulty:   DifficultyEasy,
		DurationDays: 7,
	}
)

// RecommendChallenge picks the template matching the primary (first) pattern, or the
// consistency challenge when nothing was detected.
func (e *Engine) RecommendChallenge(patterns []behavior.Pattern) Challenge {
	if len(patterns) == 0 {
		return consistencyChallenge
	}
	primary := patterns[0].Type
	var c Challenge
	switch primary {
	case behavior.PatternPoorRiskManagement, behavior.PatternMovingStopLoss:
		c = riskManagementChallenge
	case behavior.PatternOvertrading:
		c = disciplineChallenge
	default:
		c = emotionControlChallenge
	}
	c.PatternType = primary
	return c
}
