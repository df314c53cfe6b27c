// Package tree provides the decision-tree capability used for rule
// extraction: a Trainer grows a tree on a sub-sample and the resulting
// Tree enumerates the decision paths that end in positive leaves.
package tree

import (
	"errors"
	"math"
	"math/rand"

	"github.com/hed1ad/fraudrules/pkg/rules"
)

// Trainer grows a single decision tree on labeled data. Implementations
// must be deterministic given the same data and seed.
type Trainer interface {
	Train(x [][]float64, y []int, seed int64) (Tree, error)
}

// Tree is a trained decision tree that can enumerate its positive paths.
type Tree interface {
	// PositivePaths returns one predicate conjunction per leaf whose
	// positive fraction is above purityMin (strictly above zero when
	// purityMin is zero). Feature indices refer to the training matrix
	// the tree was grown on.
	PositivePaths(purityMin float64) [][]rules.Predicate
}

// CART is the reference in-process trainer: binary splits chosen by gini
// impurity over a random subset of candidate thresholds.
type CART struct {
	// MaxDepth limits tree depth. Values <= 0 mean unlimited.
	MaxDepth int
	// MinSamplesSplit is the minimum node size to consider a split.
	// Values < 2 are treated as 2.
	MinSamplesSplit int
	// MaxFeatures is the number of features examined per split.
	// Values <= 0 mean all features.
	MaxFeatures int
	// MaxThresholds caps the candidate thresholds drawn per feature.
	// Values <= 0 default to 32.
	MaxThresholds int
}

func (c CART) Train(x [][]float64, y []int, seed int64) (Tree, error) {
	if len(x) == 0 {
		return nil, errors.New("tree: empty training data")
	}
	if len(x) != len(y) {
		return nil, errors.New("tree: len(x) != len(y)")
	}

	g := &grower{
		cfg: c,
		x:   x,
		y:   y,
		rng: rand.New(rand.NewSource(seed)),
	}
	if g.cfg.MinSamplesSplit < 2 {
		g.cfg.MinSamplesSplit = 2
	}
	if g.cfg.MaxThresholds <= 0 {
		g.cfg.MaxThresholds = 32
	}

	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	return &grown{root: g.build(idx, 0)}, nil
}

type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node

	leaf    bool
	size    int
	posFrac float64
}

type grown struct {
	root *node
}

func (t *grown) PositivePaths(purityMin float64) [][]rules.Predicate {
	var paths [][]rules.Predicate
	var walk func(n *node, path []rules.Predicate)
	walk = func(n *node, path []rules.Predicate) {
		if n.leaf {
			if n.posFrac > 0 && n.posFrac >= purityMin {
				paths = append(paths, append([]rules.Predicate(nil), path...))
			}
			return
		}
		walk(n.left, append(path, rules.Predicate{
			Feature: n.feature, Op: rules.LE, Threshold: n.threshold,
		}))
		walk(n.right, append(path, rules.Predicate{
			Feature: n.feature, Op: rules.GT, Threshold: n.threshold,
		}))
	}
	walk(t.root, nil)
	return paths
}

type grower struct {
	cfg CART
	x   [][]float64
	y   []int
	rng *rand.Rand
}

func (g *grower) build(idx []int, depth int) *node {
	p := g.posFrac(idx)
	n := &node{leaf: true, size: len(idx), posFrac: p}

	if len(idx) < g.cfg.MinSamplesSplit || p == 0 || p == 1 {
		return n
	}
	if g.cfg.MaxDepth > 0 && depth >= g.cfg.MaxDepth {
		return n
	}

	feature, threshold, left, right, ok := g.bestSplit(idx)
	if !ok {
		return n
	}

	n.leaf = false
	n.feature = feature
	n.threshold = threshold
	n.left = g.build(left, depth+1)
	n.right = g.build(right, depth+1)
	return n
}

func (g *grower) bestSplit(idx []int) (feature int, threshold float64, left, right []int, ok bool) {
	bestImp := math.MaxFloat64
	nFeats := len(g.x[idx[0]])

	for _, f := range g.pickFeatures(nFeats) {
		for _, thr := range g.candidateThresholds(idx, f) {
			l, r := split(g.x, idx, f, thr)
			if len(l) == 0 || len(r) == 0 {
				continue
			}
			imp := g.giniImpurity(l, r)
			if imp < bestImp {
				bestImp = imp
				feature, threshold = f, thr
				left, right = l, r
				ok = true
			}
		}
	}
	return feature, threshold, left, right, ok
}

// pickFeatures returns the feature indices examined for one split, in a
// stable order so training is reproducible for a given seed.
func (g *grower) pickFeatures(nFeats int) []int {
	out := make([]int, nFeats)
	for i := range out {
		out[i] = i
	}
	if g.cfg.MaxFeatures <= 0 || g.cfg.MaxFeatures >= nFeats {
		return out
	}
	g.rng.Shuffle(nFeats, func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out[:g.cfg.MaxFeatures]
}

// candidateThresholds draws up to MaxThresholds distinct values of
// feature f among the node's rows.
func (g *grower) candidateThresholds(idx []int, f int) []float64 {
	values := make([]float64, len(idx))
	for j, i := range idx {
		values[j] = g.x[i][f]
	}
	g.rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	m := g.cfg.MaxThresholds
	if m > len(values) {
		m = len(values)
	}
	seen := make(map[float64]struct{}, m)
	out := make([]float64, 0, m)
	for _, v := range values {
		if len(out) == m {
			break
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (g *grower) posFrac(idx []int) float64 {
	sum := 0
	for _, i := range idx {
		sum += g.y[i]
	}
	return float64(sum) / float64(len(idx))
}

func (g *grower) giniImpurity(left, right []int) float64 {
	gini := func(ids []int) float64 {
		p := g.posFrac(ids)
		return p * (1 - p)
	}
	wl := float64(len(left))
	wr := float64(len(right))
	n := wl + wr
	return (wl/n)*gini(left) + (wr/n)*gini(right)
}

func split(x [][]float64, idx []int, f int, thr float64) (left, right []int) {
	left = make([]int, 0, len(idx))
	right = make([]int, 0, len(idx))
	for _, i := range idx {
		if x[i][f] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}
