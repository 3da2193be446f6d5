package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ridge is L2-regularised least squares with an unpenalised intercept,
// solved in closed form.
type Ridge struct {
	lambda    float64
	coef      []float64
	intercept float64
	fitted    bool
}

// NewRidge returns an unfitted ridge regressor with penalty lambda.
func NewRidge(lambda float64) *Ridge {
	if lambda < 0 {
		lambda = 0
	}
	return &Ridge{lambda: lambda}
}

// ErrSingular is returned when the normal equations have no unique solution,
// which happens with lambda 0 and collinear features.
var ErrSingular = errors.New("ridge system is singular")

// Fit solves (XcᵀXc + λI)β = Xcᵀ(y − ȳ) on column-centred X. Constant
// columns carry no signal and get a zero coefficient without entering the
// solve.
func (r *Ridge) Fit(X [][]float64, y []float64) error {
	dim, err := checkTrainingData(X, y)
	if err != nil {
		return err
	}
	n := len(X)

	means := make([]float64, dim)
	col := make([]float64, n)
	var active []int
	for j := 0; j < dim; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		means[j] = stat.Mean(col, nil)
		floats.AddConst(-means[j], col)
		if floats.Dot(col, col) > 0 {
			active = append(active, j)
		}
	}
	yMean := stat.Mean(y, nil)

	r.coef = make([]float64, dim)
	if len(active) > 0 {
		beta, err := r.solve(X, y, means, yMean, active)
		if err != nil {
			return err
		}
		for k, j := range active {
			r.coef[j] = beta.AtVec(k)
		}
	}

	r.intercept = yMean - floats.Dot(r.coef, means)
	r.fitted = true
	return nil
}

func (r *Ridge) solve(X [][]float64, y, means []float64, yMean float64, active []int) (*mat.VecDense, error) {
	n, k := len(X), len(active)

	xc := mat.NewDense(n, k, nil)
	yc := mat.NewVecDense(n, nil)
	for i := range X {
		for c, j := range active {
			xc.Set(i, c, X[i][j]-means[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var gram mat.Dense
	gram.Mul(xc.T(), xc)
	for c := 0; c < k; c++ {
		gram.Set(c, c, gram.At(c, c)+r.lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(xc.T(), yc)

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &rhs); err != nil {
		// A finite condition number is only a precision warning.
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %w", ErrSingular, err)
		}
	}
	return &beta, nil
}

// Predict returns intercept + β·x. An unfitted or mismatched model predicts 0.
func (r *Ridge) Predict(x []float64) float64 {
	if !r.fitted || len(x) != len(r.coef) {
		return 0
	}
	return r.intercept + floats.Dot(r.coef, x)
}
