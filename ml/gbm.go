package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Params configures the boosted tree ensemble.
type Params struct {
	NEstimators     int     `json:"n_estimators" yaml:"n_estimators"`
	MaxDepth        int     `json:"max_depth" yaml:"max_depth"`
	LearningRate    float64 `json:"learning_rate" yaml:"learning_rate"`
	Subsample       float64 `json:"subsample" yaml:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree" yaml:"colsample_bytree"`
	Lambda          float64 `json:"lambda" yaml:"lambda"`
	MinChildWeight  float64 `json:"min_child_weight" yaml:"min_child_weight"`
	MaxBins         int     `json:"max_bins" yaml:"max_bins"`
	Seed            int64   `json:"seed" yaml:"seed"`
}

func DefaultParams() Params {
	return Params{
		NEstimators:     100,
		MaxDepth:        6,
		LearningRate:    0.1,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		Lambda:          1,
		MinChildWeight:  1,
		MaxBins:         64,
		Seed:            42,
	}
}

func (p Params) validate() error {
	switch {
	case p.NEstimators < 1:
		return errors.New("n_estimators must be positive")
	case p.MaxDepth < 1:
		return errors.New("max_depth must be positive")
	case p.LearningRate <= 0:
		return errors.New("learning_rate must be positive")
	case p.Subsample <= 0 || p.Subsample > 1:
		return errors.New("subsample must be in (0, 1]")
	case p.ColsampleByTree <= 0 || p.ColsampleByTree > 1:
		return errors.New("colsample_bytree must be in (0, 1]")
	case p.Lambda < 0 || p.MinChildWeight < 0:
		return errors.New("lambda and min_child_weight must not be negative")
	case p.MaxBins < 2 || p.MaxBins > math.MaxUint16:
		return errors.New("max_bins out of range")
	}
	return nil
}

// Node is a split (Leaf=false) or a leaf carrying its scaled weight.
// Rows with x[Feature] < Threshold go Left.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// GradientBoosting is a multiclass softmax ensemble of regression trees,
// one tree per class per boosting round.
type GradientBoosting struct {
	Params      Params    `json:"params"`
	NumClasses  int       `json:"num_classes"`
	NumFeatures int       `json:"num_features"`
	Rounds      [][]Tree  `json:"rounds"`
	Importance  []float64 `json:"importance"`
}

func NewGradientBoosting(p Params) *GradientBoosting {
	return &GradientBoosting{Params: p}
}

// Fit trains on X (rows of equal width) and labels y in [0, numClasses).
// All randomness comes from Params.Seed.
func (m *GradientBoosting) Fit(ctx context.Context, X [][]float64, y []int, numClasses int) error {
	p := m.Params
	if err := p.validate(); err != nil {
		return err
	}
	if numClasses < 2 {
		return fmt.Errorf("need at least 2 classes, got %d", numClasses)
	}
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("got %d rows and %d labels", len(X), len(y))
	}
	n, nf := len(X), len(X[0])
	if nf == 0 {
		return errors.New("no feature columns")
	}
	for i := range X {
		if len(X[i]) != nf {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrFeatureWidth, i, len(X[i]), nf)
		}
		if y[i] < 0 || y[i] >= numClasses {
			return fmt.Errorf("label %d at row %d outside [0, %d)", y[i], i, numClasses)
		}
	}

	cuts := make([][]float64, nf)
	col := make([]float64, n)
	for f := range cuts {
		for i := range X {
			col[i] = X[i][f]
		}
		cuts[f] = binCuts(col, p.MaxBins)
	}
	binned := make([][]uint16, n)
	for i := range X {
		binned[i] = make([]uint16, nf)
		for f, v := range X[i] {
			binned[i][f] = uint16(binOf(cuts[f], v))
		}
	}

	rng := rand.New(rand.NewSource(p.Seed))
	margins := make([][]float64, n)
	for i := range margins {
		margins[i] = make([]float64, numClasses)
	}
	probs := make([][]float64, n)
	grad := make([]float64, n)
	hess := make([]float64, n)
	gain := make([]float64, nf)
	rounds := make([][]Tree, 0, p.NEstimators)

	for r := 0; r < p.NEstimators; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows := sampleRows(rng, n, p.Subsample)
		for _, i := range rows {
			probs[i] = softmax(margins[i])
		}

		round := make([]Tree, numClasses)
		for c := 0; c < numClasses; c++ {
			for _, i := range rows {
				pc := probs[i][c]
				target := 0.0
				if y[i] == c {
					target = 1
				}
				grad[i] = pc - target
				hess[i] = math.Max(2*pc*(1-pc), 1e-6)
			}
			b := treeBuilder{
				binned:   binned,
				cuts:     cuts,
				grad:     grad,
				hess:     hess,
				features: sampleFeatures(rng, nf, p.ColsampleByTree),
				params:   p,
				gain:     gain,
			}
			b.grow(rows, 0)
			round[c] = Tree{Nodes: b.nodes}
		}

		for i := range margins {
			for c := range round {
				margins[i][c] += round[c].Predict(X[i])
			}
		}
		rounds = append(rounds, round)
	}

	if total := floats.Sum(gain); total > 0 {
		floats.Scale(1/total, gain)
	}
	m.NumClasses = numClasses
	m.NumFeatures = nf
	m.Rounds = rounds
	m.Importance = gain
	return nil
}

// PredictProba returns per-class probabilities summing to 1.
func (m *GradientBoosting) PredictProba(x []float64) ([]float64, error) {
	if len(x) != m.NumFeatures {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureWidth, len(x), m.NumFeatures)
	}
	if m.NumClasses < 2 || len(m.Rounds) == 0 {
		return nil, errors.New("model is not fitted")
	}
	margin := make([]float64, m.NumClasses)
	for _, round := range m.Rounds {
		for c := range round {
			margin[c] += round[c].Predict(x)
		}
	}
	return softmax(margin), nil
}

func (m *GradientBoosting) Predict(x []float64) (int, error) {
	p, err := m.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return floats.MaxIdx(p), nil
}

// FeatureImportances returns total split gain per feature, normalized to 1.
func (m *GradientBoosting) FeatureImportances() []float64 {
	out := make([]float64, len(m.Importance))
	copy(out, m.Importance)
	return out
}

type treeBuilder struct {
	binned   [][]uint16
	cuts     [][]float64
	grad     []float64
	hess     []float64
	features []int
	params   Params
	gain     []float64
	nodes    []Node
}

func (b *treeBuilder) grow(rows []int, depth int) int {
	var G, H float64
	for _, i := range rows {
		G += b.grad[i]
		H += b.hess[i]
	}
	lambda := b.params.Lambda
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Value: -G / (H + lambda) * b.params.LearningRate})
	if depth >= b.params.MaxDepth || len(rows) < 2 {
		return idx
	}

	parent := G * G / (H + lambda)
	bestGain, bestFeature, bestBin := 0.0, -1, -1
	for _, f := range b.features {
		nb := len(b.cuts[f]) + 1
		if nb < 2 {
			continue
		}
		hg := make([]float64, nb)
		hh := make([]float64, nb)
		for _, i := range rows {
			bin := b.binned[i][f]
			hg[bin] += b.grad[i]
			hh[bin] += b.hess[i]
		}
		var GL, HL float64
		for j := 0; j < nb-1; j++ {
			GL += hg[j]
			HL += hh[j]
			GR, HR := G-GL, H-HL
			if HL < b.params.MinChildWeight || HR < b.params.MinChildWeight {
				continue
			}
			g := 0.5 * (GL*GL/(HL+lambda) + GR*GR/(HR+lambda) - parent)
			if g > bestGain+1e-12 {
				bestGain, bestFeature, bestBin = g, f, j
			}
		}
	}
	if bestFeature < 0 {
		return idx
	}

	var left, right []int
	for _, i := range rows {
		if int(b.binned[i][bestFeature]) <= bestBin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	b.gain[bestFeature] += bestGain
	b.nodes[idx] = Node{Feature: bestFeature, Threshold: b.cuts[bestFeature][bestBin]}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

// binCuts returns ascending split candidates: midpoints between distinct
// values, thinned to at most maxBins-1 when there are many.
func binCuts(values []float64, maxBins int) []float64 {
	u := make([]float64, len(values))
	copy(u, values)
	sort.Float64s(u)
	u = uniqueSorted(u)
	if len(u) < 2 {
		return nil
	}

	var cuts []float64
	if len(u) <= maxBins {
		cuts = make([]float64, len(u)-1)
		for i := range cuts {
			cuts[i] = (u[i] + u[i+1]) / 2
		}
		return cuts
	}
	for q := 1; q < maxBins; q++ {
		k := q * len(u) / maxBins
		if k < 1 {
			k = 1
		}
		c := (u[k-1] + u[k]) / 2
		if len(cuts) == 0 || c > cuts[len(cuts)-1] {
			cuts = append(cuts, c)
		}
	}
	return cuts
}

func uniqueSorted(s []float64) []float64 {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// binOf counts the cuts <= x, so x < cuts[j] exactly when binOf(x) <= j.
func binOf(cuts []float64, x float64) int {
	return sort.Search(len(cuts), func(i int) bool { return cuts[i] > x })
}

func sampleRows(rng *rand.Rand, n int, frac float64) []int {
	rows := make([]int, 0, n)
	if frac >= 1 {
		for i := 0; i < n; i++ {
			rows = append(rows, i)
		}
		return rows
	}
	for i := 0; i < n; i++ {
		if rng.Float64() < frac {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rng.Intn(n))
	}
	return rows
}

func sampleFeatures(rng *rand.Rand, nf int, frac float64) []int {
	m := int(math.Round(frac * float64(nf)))
	if m < 1 {
		m = 1
	}
	if m > nf {
		m = nf
	}
	features := rng.Perm(nf)[:m]
	sort.Ints(features)
	return features
}

func softmax(z []float64) []float64 {
	p := make([]float64, len(z))
	hi := floats.Max(z)
	for i, v := range z {
		p[i] = math.Exp(v - hi)
	}
	floats.Scale(1/floats.Sum(p), p)
	return p
}
