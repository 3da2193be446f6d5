// Package model implements the score regressors, the feature scaler and the
// immutable model Set that bundles them after a training run.
package model

import (
	"errors"
	"fmt"

	"github.com/phrazzld/adaptiq/internal/domain"
)

var (
	// ErrNoSamples is returned when fitting on an empty data set.
	ErrNoSamples = errors.New("no training samples")

	// ErrDimensionMismatch is returned when a row has the wrong number of features.
	ErrDimensionMismatch = errors.New("feature dimension mismatch")

	// ErrNotFitted is returned when predicting with an unfitted regressor.
	ErrNotFitted = errors.New("regressor not fitted")
)

// Regressor is a supervised model mapping a scaled feature row to a score.
type Regressor interface {
	// Fit trains the regressor on rows X and targets y.
	Fit(X [][]float64, y []float64) error
	// Predict returns the raw, unclamped prediction for x.
	Predict(x []float64) float64
}

// Params tunes the three regressors.
type Params struct {
	RidgeLambda    float64
	Neighbors      int
	BoostingRounds int
	LearningRate   float64
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		RidgeLambda:    1.0,
		Neighbors:      5,
		BoostingRounds: 100,
		LearningRate:   0.1,
	}
}

// NewRegressors builds one unfitted regressor per ensemble member.
func NewRegressors(p Params) map[domain.ModelType]Regressor {
	return map[domain.ModelType]Regressor{
		domain.ModelRidge:     NewRidge(p.RidgeLambda),
		domain.ModelBoosting:  NewBoostedStumps(p.BoostingRounds, p.LearningRate),
		domain.ModelNeighbors: NewNeighbors(p.Neighbors),
	}
}

func checkTrainingData(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrNoSamples
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, len(X), len(y))
	}
	dim := len(X[0])
	for i, row := range X {
		if len(row) != dim {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
	}
	return dim, nil
}
