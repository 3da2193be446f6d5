// Package features derives the fixed-shape numeric summary of a learner's
// history that the score regressors consume.
package features

import (
	"math"
	"time"

	"github.com/phrazzld/adaptiq/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// Dimension is the length of every learner feature vector.
const Dimension = 9

// Names labels each position of a Vector, in order.
var Names = [Dimension]string{
	"average_score",
	"attempt_count",
	"mean_time_spent",
	"days_since_last_attempt",
	"difficulty_progression",
	"interaction_frequency",
	"learning_style",
	"subject_consistency",
	"prediction_accuracy",
}

const (
	// noAttemptDays is the recency assumed for a learner who never attempted a quiz.
	noAttemptDays = 30
	// progressionWindow is how many recent attempts the progression feature spans.
	progressionWindow = 5
	// noAttemptTarget is the training target for a learner without attempts.
	noAttemptTarget = 50.0
)

// Vector is a learner feature vector.
type Vector [Dimension]float64

// Slice returns the vector as a freshly allocated slice.
func (v Vector) Slice() []float64 {
	out := make([]float64, Dimension)
	copy(out, v[:])
	return out
}

// Extract computes the feature vector for p as of now.
// Malformed interaction metadata is skipped per record and never fails extraction.
func Extract(p *domain.LearnerProfile, now time.Time) Vector {
	var v Vector
	attempts := p.ChronologicalAttempts()

	v[0] = p.AverageScore()
	v[1] = float64(len(attempts))
	v[2] = meanTimeSpent(attempts)

	days := daysSince(attempts, now)
	v[3] = days
	v[4] = difficultyProgression(attempts)
	v[5] = float64(len(p.Interactions)) / math.Max(1, days)
	v[6] = p.LearningStyle.Code()

	consistency, accuracy := enhancedSignals(p.Interactions)
	v[7] = consistency
	v[8] = accuracy

	return v
}

// Target is the supervised training label for p: the most recent score,
// or 50 for a learner with no attempts.
func Target(p *domain.LearnerProfile) float64 {
	if latest := p.LatestAttempt(); latest != nil {
		return latest.Score
	}
	return noAttemptTarget
}

func meanTimeSpent(attempts []domain.QuizAttempt) float64 {
	if len(attempts) == 0 {
		return 0
	}
	var sum float64
	for _, a := range attempts {
		sum += float64(a.TimeSpentSeconds)
	}
	return sum / float64(len(attempts))
}

// daysSince counts whole days since the newest attempt, never negative.
func daysSince(attempts []domain.QuizAttempt, now time.Time) float64 {
	if len(attempts) == 0 {
		return noAttemptDays
	}
	last := attempts[len(attempts)-1].CreatedAt
	d := math.Floor(now.Sub(last).Hours() / 24)
	return math.Max(0, d)
}

// difficultyProgression is the rank change across the last few attempts.
func difficultyProgression(attempts []domain.QuizAttempt) float64 {
	if len(attempts) < 2 {
		return 0
	}
	window := attempts
	if len(window) > progressionWindow {
		window = window[len(window)-progressionWindow:]
	}
	return window[len(window)-1].DifficultyLevel.Rank() - window[0].DifficultyLevel.Rank()
}

// enhancedSignals returns the subject-consistency and prediction-accuracy
// features from enhanced_quiz records.
//
// Consistency pools every subject ratio across all records. Accuracy averages
// max(0, 100 - mean error) per record; a record with an empty error map has
// zero error.
func enhancedSignals(interactions []domain.Interaction) (consistency, accuracy float64) {
	var ratios []float64
	var accuracies []float64

	for i := range interactions {
		in := &interactions[i]
		if in.Type != domain.InteractionEnhancedQuiz {
			continue
		}
		// A partially decoded payload is still usable; only fields that
		// failed are missing.
		p, _ := in.Payload()
		payload, ok := p.(domain.EnhancedQuizPayload)
		if !ok {
			continue
		}

		for _, b := range payload.SubjectPerformance {
			if r, ok := b.Ratio(); ok {
				ratios = append(ratios, r)
			}
		}

		if payload.ActualVsPredicted != nil {
			var sum float64
			for _, e := range payload.ActualVsPredicted {
				sum += e
			}
			var avgErr float64
			if n := len(payload.ActualVsPredicted); n > 0 {
				avgErr = sum / float64(n)
			}
			accuracies = append(accuracies, math.Max(0, 100-avgErr))
		}
	}

	return mean(ratios), mean(accuracies)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
