package domain

import (
	"fmt"
	"strings"
	"time"
)

// Emotion is the tag a trader attaches to a journal entry.
type Emotion string

const (
	EmotionCalm       Emotion = "CALM"
	EmotionConfident  Emotion = "CONFIDENT"
	EmotionExcited    Emotion = "EXCITED"
	EmotionFOMO       Emotion = "FOMO"
	EmotionFear       Emotion = "FEAR"
	EmotionGreedy     Emotion = "GREEDY"
	EmotionRevenge    Emotion = "REVENGE"
	EmotionAnxious    Emotion = "ANXIOUS"
	EmotionFrustrated Emotion = "FRUSTRATED"
)

var emotions = []Emotion{
	EmotionCalm, EmotionConfident, EmotionExcited, EmotionFOMO, EmotionFear,
	EmotionGreedy, EmotionRevenge, EmotionAnxious, EmotionFrustrated,
}

// ParseEmotion converts a case-insensitive tag into an Emotion.
func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range emotions {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q", s)
}

// IsImpulsive reports whether the emotion signals an impulsive decision.
func (e Emotion) IsImpulsive() bool {
	switch e {
	case EmotionFOMO, EmotionRevenge, EmotionGreedy:
		return true
	}
	return false
}

// IsNegative reports whether the emotion counts toward the negative-emotion ratio.
func (e Emotion) IsNegative() bool {
	if e.IsImpulsive() {
		return true
	}
	switch e {
	case EmotionFear, EmotionAnxious, EmotionFrustrated:
		return true
	}
	return false
}

// JournalEntry is a read-only emotion-tagged note linked to a position.
type JournalEntry struct {
	ID         int64
	UserID     string
	PositionID int64
	Emotion    Emotion
	Note       string
	Timestamp  time.Time
}
