package model

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/phrazzld/adaptiq/internal/domain"
)

// Evaluation reports holdout mean absolute error per model.
type Evaluation struct {
	TrainRows   int                          `json:"train_rows"`
	HoldoutRows int                          `json:"holdout_rows"`
	MAE         map[domain.ModelType]float64 `json:"mae"`
	EnsembleMAE float64                      `json:"ensemble_mae"`
}

// Evaluate shuffles the rows with rng, trains on the first (1 − holdout)
// share and measures error on the rest.
func Evaluate(
	ctx context.Context,
	schema []string,
	X [][]float64,
	y []float64,
	holdout float64,
	rng *rand.Rand,
	params Params,
) (*Evaluation, error) {
	if _, err := checkTrainingData(X, y); err != nil {
		return nil, err
	}
	if holdout <= 0 || holdout >= 1 {
		return nil, fmt.Errorf("holdout fraction must be in (0, 1), got %v", holdout)
	}

	idx := rng.Perm(len(X))
	nHold := int(math.Round(float64(len(X)) * holdout))
	if nHold < 1 || nHold >= len(X) {
		return nil, fmt.Errorf("%w: %d rows cannot be split with holdout %v", ErrNoSamples, len(X), holdout)
	}

	trainX := make([][]float64, 0, len(X)-nHold)
	trainY := make([]float64, 0, len(X)-nHold)
	for _, i := range idx[nHold:] {
		trainX = append(trainX, X[i])
		trainY = append(trainY, y[i])
	}

	set, err := Train(ctx, schema, trainX, trainY, params)
	if err != nil {
		return nil, err
	}

	eval := &Evaluation{
		TrainRows:   len(trainX),
		HoldoutRows: nHold,
		MAE:         make(map[domain.ModelType]float64, len(domain.ModelTypes)),
	}
	for _, i := range idx[:nHold] {
		scores, err := set.Predict(X[i])
		if err != nil {
			return nil, err
		}
		for mt, s := range scores {
			eval.MAE[mt] += math.Abs(s-y[i]) / float64(nHold)
		}
		eval.EnsembleMAE += math.Abs(domain.Ensemble(scores)-y[i]) / float64(nHold)
	}
	return eval, nil
}
