package model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// stump is a depth-one regression tree.
type stump struct {
	feature   int
	threshold float64
	left      float64
	right     float64
}

func (s stump) predict(x []float64) float64 {
	if x[s.feature] <= s.threshold {
		return s.left
	}
	return s.right
}

// BoostedStumps is gradient boosting with squared loss over regression stumps.
type BoostedStumps struct {
	rounds       int
	learningRate float64
	base         float64
	stumps       []stump
	dim          int
	fitted       bool
}

// NewBoostedStumps returns an unfitted ensemble of rounds stumps.
func NewBoostedStumps(rounds int, learningRate float64) *BoostedStumps {
	if rounds < 1 {
		rounds = 1
	}
	if learningRate <= 0 || learningRate > 1 {
		learningRate = 0.1
	}
	return &BoostedStumps{rounds: rounds, learningRate: learningRate}
}

// Fit starts from the target mean and adds one stump per round fitted to the
// current residuals. Fitting stops early once no split reduces the error.
func (b *BoostedStumps) Fit(X [][]float64, y []float64) error {
	dim, err := checkTrainingData(X, y)
	if err != nil {
		return err
	}

	b.dim = dim
	b.base = stat.Mean(y, nil)
	b.stumps = b.stumps[:0]

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = b.base
	}
	residual := make([]float64, len(y))

	for round := 0; round < b.rounds; round++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		s, ok := bestStump(X, residual)
		if !ok {
			break
		}
		s.left *= b.learningRate
		s.right *= b.learningRate
		b.stumps = append(b.stumps, s)
		for i, row := range X {
			pred[i] += s.predict(row)
		}
	}

	b.fitted = true
	return nil
}

// Predict sums the base value and every stump's contribution.
func (b *BoostedStumps) Predict(x []float64) float64 {
	if !b.fitted || len(x) != b.dim {
		return 0
	}
	out := b.base
	for _, s := range b.stumps {
		out += s.predict(x)
	}
	return out
}

// bestStump finds the single split minimising squared error of r.
func bestStump(X [][]float64, r []float64) (stump, bool) {
	n := len(X)
	if n < 2 {
		return stump{}, false
	}

	var total, totalSq float64
	for _, v := range r {
		total += v
		totalSq += v * v
	}
	baseline := totalSq - total*total/float64(n)

	best := stump{}
	bestErr := math.Inf(1)
	order := make([]int, n)

	for j := 0; j < len(X[0]); j++ {
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, c int) bool { return X[order[a]][j] < X[order[c]][j] })

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			v := r[order[k]]
			leftSum += v
			leftSq += v * v

			cur, next := X[order[k]][j], X[order[k+1]][j]
			if cur == next {
				continue
			}
			nl := float64(k + 1)
			nr := float64(n - k - 1)
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if sse < bestErr {
				bestErr = sse
				best = stump{
					feature:   j,
					threshold: (cur + next) / 2,
					left:      leftSum / nl,
					right:     rightSum / nr,
				}
			}
		}
	}

	if math.IsInf(bestErr, 1) || bestErr >= baseline-1e-12 {
		return stump{}, false
	}
	return best, true
}
