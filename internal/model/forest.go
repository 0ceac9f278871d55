package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// TreeNode is a regression tree node. Leaves have Feature == -1.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
	Value     float64
}

// RandomForest is a bagged ensemble of variance-split regression trees.
// Every split considers all features, trees grow until a node is pure or
// holds fewer than MinSamplesSplit rows.
type RandomForest struct {
	Trees           []*TreeNode
	NEstimators     int
	MinSamplesSplit int
	// MaxDepth <= 0 means unlimited.
	MaxDepth int
	Seed     int64
}

// NewRandomForest returns an untrained forest with n trees.
func NewRandomForest(n int, seed int64) *RandomForest {
	return &RandomForest{NEstimators: n, MinSamplesSplit: 2, Seed: seed}
}

// Fit grows NEstimators trees, each on a bootstrap sample of the rows.
func (rf *RandomForest) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return errors.New("forest: no training rows")
	}
	if len(x) != len(y) {
		return fmt.Errorf("forest: %d rows but %d targets", len(x), len(y))
	}
	if rf.NEstimators < 1 {
		return fmt.Errorf("forest: need at least one tree, got %d", rf.NEstimators)
	}
	if rf.MinSamplesSplit < 2 {
		rf.MinSamplesSplit = 2
	}
	rnd := rand.New(rand.NewSource(rf.Seed))
	n := len(y)
	rf.Trees = make([]*TreeNode, rf.NEstimators)
	for t := range rf.Trees {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rnd.Intn(n)
		}
		rf.Trees[t] = rf.grow(x, y, idx, 0)
	}
	return nil
}

func (rf *RandomForest) grow(x [][]float64, y []float64, idx []int, depth int) *TreeNode {
	ys := make([]float64, len(idx))
	for k, i := range idx {
		ys[k] = y[i]
	}
	leaf := &TreeNode{Feature: -1, Value: stat.Mean(ys, nil)}
	if len(idx) < rf.MinSamplesSplit || (rf.MaxDepth > 0 && depth >= rf.MaxDepth) {
		return leaf
	}
	if stat.PopVariance(ys, nil) == 0 {
		return leaf
	}

	bestFeat, bestThr, bestScore := -1, 0.0, math.Inf(1)
	order := make([]int, len(idx))
	for f := range x[idx[0]] {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		// prefix sums over the sorted order give each split's SSE in O(1)
		var totSum, totSq float64
		for _, i := range order {
			totSum += y[i]
			totSq += y[i] * y[i]
		}
		var lSum, lSq float64
		for k := 0; k < len(order)-1; k++ {
			v := y[order[k]]
			lSum += v
			lSq += v * v
			lo, hi := x[order[k]][f], x[order[k+1]][f]
			if lo == hi {
				continue
			}
			ln, rn := float64(k+1), float64(len(order)-k-1)
			rSum, rSq := totSum-lSum, totSq-lSq
			score := (lSq - lSum*lSum/ln) + (rSq - rSum*rSum/rn)
			if score < bestScore {
				bestFeat, bestThr, bestScore = f, (lo+hi)/2, score
			}
		}
	}
	if bestFeat == -1 {
		return leaf
	}

	var left, right []int
	for _, i := range idx {
		if x[i][bestFeat] <= bestThr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}
	return &TreeNode{
		Feature:   bestFeat,
		Threshold: bestThr,
		Left:      rf.grow(x, y, left, depth+1),
		Right:     rf.grow(x, y, right, depth+1),
	}
}

// PredictRow implements Regressor: the mean of every tree's prediction.
func (rf *RandomForest) PredictRow(x []float64) float64 {
	if len(rf.Trees) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, t := range rf.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(rf.Trees))
}

func (n *TreeNode) predict(x []float64) float64 {
	for n.Feature >= 0 && n.Left != nil && n.Right != nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}
