package model

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Neighbors is distance-weighted k-nearest-neighbour regression.
type Neighbors struct {
	k      int
	X      [][]float64
	y      []float64
	fitted bool
}

// NewNeighbors returns an unfitted regressor averaging the k closest rows.
func NewNeighbors(k int) *Neighbors {
	if k < 1 {
		k = 1
	}
	return &Neighbors{k: k}
}

// Fit memorises a copy of the training data.
func (n *Neighbors) Fit(X [][]float64, y []float64) error {
	if _, err := checkTrainingData(X, y); err != nil {
		return err
	}
	n.X = make([][]float64, len(X))
	for i, row := range X {
		n.X[i] = append([]float64(nil), row...)
	}
	n.y = append([]float64(nil), y...)
	n.fitted = true
	return nil
}

// Predict weights the k nearest targets by inverse Euclidean distance.
// Exact matches short-circuit to their mean target.
func (n *Neighbors) Predict(x []float64) float64 {
	if !n.fitted || len(x) != len(n.X[0]) {
		return 0
	}

	type neighbor struct {
		dist   float64
		target float64
	}
	all := make([]neighbor, len(n.X))
	for i, row := range n.X {
		all[i] = neighbor{dist: floats.Distance(row, x, 2), target: n.y[i]}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].dist < all[j].dist })

	k := n.k
	if k > len(all) {
		k = len(all)
	}

	var exactSum float64
	var exact int
	for _, nb := range all[:k] {
		if nb.dist == 0 {
			exactSum += nb.target
			exact++
		}
	}
	if exact > 0 {
		return exactSum / float64(exact)
	}

	var num, den float64
	for _, nb := range all[:k] {
		w := 1 / nb.dist
		num += w * nb.target
		den += w
	}
	return num / den
}
