package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DifficultyLevel is a difficulty tier, used both as a question attribute
// and as a learner-progress signal.
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "beginner"
	DifficultyIntermediate DifficultyLevel = "intermediate"
	DifficultyAdvanced     DifficultyLevel = "advanced"
)

// DifficultyLevels lists the tiers from easiest to hardest.
var DifficultyLevels = []DifficultyLevel{
	DifficultyBeginner,
	DifficultyIntermediate,
	DifficultyAdvanced,
}

// Valid reports whether d is a known tier.
func (d DifficultyLevel) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Rank maps the tier onto 1..3. Unknown tiers rank as beginner.
func (d DifficultyLevel) Rank() float64 {
	switch d {
	case DifficultyIntermediate:
		return 2
	case DifficultyAdvanced:
		return 3
	default:
		return 1
	}
}

// ParseDifficulty converts s to a DifficultyLevel.
func ParseDifficulty(s string) (DifficultyLevel, error) {
	d := DifficultyLevel(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

// LearningStyle is the learner's declared preferred modality.
type LearningStyle string

const (
	LearningStyleVisual      LearningStyle = "visual"
	LearningStyleAuditory    LearningStyle = "auditory"
	LearningStyleKinesthetic LearningStyle = "kinesthetic"
	LearningStyleReading     LearningStyle = "reading"
)

// Code encodes the style as 1..4. Unknown styles encode as visual.
func (s LearningStyle) Code() float64 {
	switch s {
	case LearningStyleAuditory:
		return 2
	case LearningStyleKinesthetic:
		return 3
	case LearningStyleReading:
		return 4
	default:
		return 1
	}
}

// SkillLevel is the learner's self-reported proficiency.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// DefaultScore is the expected score for a learner with no attempt history.
func (s SkillLevel) DefaultScore() float64 {
	switch s {
	case SkillBeginner:
		return 45
	case SkillIntermediate:
		return 60
	case SkillAdvanced:
		return 75
	default:
		return 50
	}
}

// LearnerProfile is a learner together with their ordered history.
// The engine reads profiles but never persists them.
type LearnerProfile struct {
	ID            uuid.UUID     `json:"id"`
	Username      string        `json:"username"`
	LearningStyle LearningStyle `json:"learning_style"`
	SkillLevel    SkillLevel    `json:"skill_level"`
	Attempts      []QuizAttempt `json:"attempts"`
	Interactions  []Interaction `json:"interactions"`
	CreatedAt     time.Time     `json:"created_at"`
}

// HasHistory reports whether the learner has completed any attempt.
func (p *LearnerProfile) HasHistory() bool {
	return len(p.Attempts) > 0
}

// AverageScore is the mean attempt score, 0 with no attempts.
func (p *LearnerProfile) AverageScore() float64 {
	if len(p.Attempts) == 0 {
		return 0
	}
	var sum float64
	for _, a := range p.Attempts {
		sum += a.Score
	}
	return sum / float64(len(p.Attempts))
}

// ChronologicalAttempts returns a copy of the attempts ordered by CreatedAt,
// oldest first. Ties keep their stored order.
func (p *LearnerProfile) ChronologicalAttempts() []QuizAttempt {
	out := make([]QuizAttempt, len(p.Attempts))
	copy(out, p.Attempts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// LatestAttempt returns the most recently created attempt, or nil.
func (p *LearnerProfile) LatestAttempt() *QuizAttempt {
	if len(p.Attempts) == 0 {
		return nil
	}
	latest := 0
	for i := 1; i < len(p.Attempts); i++ {
		if !p.Attempts[i].CreatedAt.Before(p.Attempts[latest].CreatedAt) {
			latest = i
		}
	}
	a := p.Attempts[latest]
	return &a
}
