package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler maps each column to zero mean and unit variance using the
// statistics of the data it was fitted on.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler computes per-column population mean and standard deviation.
// Constant columns get a scale of 1 so they transform to zero.
func FitScaler(X [][]float64) (*StandardScaler, error) {
	if len(X) == 0 {
		return nil, ErrNoSamples
	}
	dim := len(X[0])
	s := &StandardScaler{
		Mean:  make([]float64, dim),
		Scale: make([]float64, dim),
	}

	col := make([]float64, len(X))
	for j := 0; j < dim; j++ {
		for i, row := range X {
			if len(row) != dim {
				return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), dim)
			}
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return s, nil
}

// Dimension is the number of columns the scaler was fitted on.
func (s *StandardScaler) Dimension() int {
	return len(s.Mean)
}

// Transform returns the scaled copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll scales every row of X.
func (s *StandardScaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}
