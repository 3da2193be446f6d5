package domain

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
)

// ModelType is the opaque label of one regressor in the ensemble.
type ModelType string

const (
	ModelRidge     ModelType = "ridge_regression"
	ModelBoosting  ModelType = "gradient_boosting"
	ModelNeighbors ModelType = "nearest_neighbors"
)

// ModelTypes lists every ensemble member in a stable order.
var ModelTypes = []ModelType{ModelRidge, ModelBoosting, ModelNeighbors}

// EnsembleWeights are the fixed linear-combination weights; they sum to 1.
var EnsembleWeights = map[ModelType]float64{
	ModelRidge:     0.3,
	ModelBoosting:  0.4,
	ModelNeighbors: 0.3,
}

// MissingModelScore stands in for an absent model output in the ensemble.
const MissingModelScore = 50.0

// PredictionSource tells whether scores came from trained models or the
// heuristic fallback.
type PredictionSource string

const (
	SourceTrained PredictionSource = "trained"
	SourceDefault PredictionSource = "default"
)

// ModelScores maps each model to its clamped predicted score for one
// difficulty tier.
type ModelScores struct {
	Difficulty DifficultyLevel       `json:"difficulty"`
	Scores     map[ModelType]float64 `json:"scores"`
	Source     PredictionSource      `json:"source"`
}

// Ensemble combines the scores with EnsembleWeights.
func (m ModelScores) Ensemble() float64 {
	return Ensemble(m.Scores)
}

// Mean is the unweighted mean of the available scores, 0 if there are none.
func (m ModelScores) Mean() float64 {
	if len(m.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range m.Scores {
		sum += s
	}
	return sum / float64(len(m.Scores))
}

// Ensemble combines per-model scores into one estimate, substituting
// MissingModelScore for any model without an output.
func Ensemble(scores map[ModelType]float64) float64 {
	var total float64
	for _, mt := range ModelTypes {
		s, ok := scores[mt]
		if !ok {
			s = MissingModelScore
		}
		total += EnsembleWeights[mt] * s
	}
	return total
}

// ClampScore bounds s to [0, 100]. NaN maps to 0.
func ClampScore(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(0, math.Min(100, s))
}

// Accuracy scores how close a prediction was: 100 for exact, floored at 0.
func Accuracy(predicted, actual float64) float64 {
	return math.Max(0, 100-math.Abs(predicted-actual))
}

var ErrEmptyPredictionLearnerID = errors.New("prediction learner ID cannot be empty")

// Prediction is one model's predicted score for a learner. It is created
// unresolved and resolved exactly once when the next actual score is known.
type Prediction struct {
	ID              uuid.UUID       `json:"id"`
	LearnerID       uuid.UUID       `json:"learner_id"`
	ModelType       ModelType       `json:"model_type"`
	PredictedScore  float64         `json:"predicted_score"`
	ActualScore     *float64        `json:"actual_score,omitempty"`
	Accuracy        *float64        `json:"accuracy,omitempty"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewPrediction creates an unresolved prediction.
func NewPrediction(
	learnerID uuid.UUID,
	model ModelType,
	score float64,
	difficulty DifficultyLevel,
) (*Prediction, error) {
	if learnerID == uuid.Nil {
		return nil, ErrEmptyPredictionLearnerID
	}
	return &Prediction{
		ID:              uuid.New(),
		LearnerID:       learnerID,
		ModelType:       model,
		PredictedScore:  ClampScore(score),
		DifficultyLevel: difficulty,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Resolved reports whether the actual score has been recorded.
func (p *Prediction) Resolved() bool {
	return p.ActualScore != nil
}

// Resolve records the observed score and the resulting accuracy.
func (p *Prediction) Resolve(actual float64) error {
	if p.Resolved() {
		return ErrPredictionResolved
	}
	acc := Accuracy(p.PredictedScore, actual)
	p.ActualScore = &actual
	p.Accuracy = &acc
	return nil
}
