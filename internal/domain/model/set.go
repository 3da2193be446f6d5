package model

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/adaptiq/internal/domain"
)

// Set is the immutable product of one training run: the fitted scaler,
// one regressor per ensemble member and the feature schema they expect.
// A Set is never mutated after Train returns, so it may be shared freely.
type Set struct {
	schema    []string
	scaler    *StandardScaler
	models    map[domain.ModelType]Regressor
	samples   int
	trainedAt time.Time
}

// Train fits a scaler on X, then every regressor on the scaled rows.
// ctx is checked between regressors so a timed-out run is abandoned
// without publishing a partial set.
func Train(ctx context.Context, schema []string, X [][]float64, y []float64, params Params) (*Set, error) {
	dim, err := checkTrainingData(X, y)
	if err != nil {
		return nil, err
	}
	if len(schema) != dim {
		return nil, fmt.Errorf("%w: schema has %d columns, data has %d", ErrDimensionMismatch, len(schema), dim)
	}

	scaler, err := FitScaler(X)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	scaled, err := scaler.TransformAll(X)
	if err != nil {
		return nil, fmt.Errorf("scale training data: %w", err)
	}

	models := NewRegressors(params)
	for _, mt := range domain.ModelTypes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training interrupted before %s: %w", mt, err)
		}
		if err := models[mt].Fit(scaled, y); err != nil {
			return nil, fmt.Errorf("fit %s: %w", mt, err)
		}
	}

	return &Set{
		schema:    append([]string(nil), schema...),
		scaler:    scaler,
		models:    models,
		samples:   len(X),
		trainedAt: time.Now().UTC(),
	}, nil
}

// Schema returns the feature names the set was trained on.
func (s *Set) Schema() []string {
	return append([]string(nil), s.schema...)
}

// Samples is the number of rows the set was trained on.
func (s *Set) Samples() int {
	return s.samples
}

// TrainedAt is when training finished.
func (s *Set) TrainedAt() time.Time {
	return s.trainedAt
}

// Predict scales x and returns every model's output clamped to [0, 100].
func (s *Set) Predict(x []float64) (map[domain.ModelType]float64, error) {
	scaled, err := s.scaler.Transform(x)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.ModelType]float64, len(s.models))
	for mt, m := range s.models {
		out[mt] = domain.ClampScore(m.Predict(scaled))
	}
	return out, nil
}
