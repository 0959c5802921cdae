package artifact

import (
	"errors"
	"fmt"
	"math"
)

// Supported values of the "algorithm" field in price_model.json
const (
	AlgorithmRandomForest = "random_forest"
	AlgorithmLinear       = "linear"
)

// ErrDimensionMismatch is returned when a vector does not match the model width
var ErrDimensionMismatch = errors.New("feature vector dimension mismatch")

// Regressor is a fitted regression model
type Regressor interface {
	Predict(x []float64) (float64, error)
	NumFeatures() int
}

// Tree is one regression tree in the array layout used by scikit-learn:
// node i is a leaf when ChildrenLeft[i] == -1, otherwise samples with
// x[Feature[i]] <= Threshold[i] go left.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

const leaf = -1

func (t *Tree) validate(nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree arrays have different lengths (%d nodes)", n)
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leaf || r == leaf {
			if l != r {
				return fmt.Errorf("node %d has exactly one child", i)
			}
			if math.IsNaN(t.Value[i]) || math.IsInf(t.Value[i], 0) {
				return fmt.Errorf("leaf %d has non-finite value", i)
			}
			continue
		}
		// children always come after their parent, so traversal terminates
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, l, r)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d of %d", i, f, nFeatures)
		}
	}
	return nil
}

func (t *Tree) predict(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// Forest averages the output of its trees
type Forest struct {
	Trees     []Tree
	nFeatures int
}

func NewForest(trees []Tree, nFeatures int) (*Forest, error) {
	if nFeatures <= 0 {
		return nil, fmt.Errorf("invalid n_features %d", nFeatures)
	}
	if len(trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	for i := range trees {
		if err := trees[i].validate(nFeatures); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &Forest{Trees: trees, nFeatures: nFeatures}, nil
}

func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x), f.nFeatures)
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

func (f *Forest) NumFeatures() int { return f.nFeatures }

// Linear is y = intercept + sum(coef[i] * x[i])
type Linear struct {
	Coefficients []float64
	Intercept    float64
}

func NewLinear(coef []float64, intercept float64, nFeatures int) (*Linear, error) {
	if len(coef) == 0 || len(coef) != nFeatures {
		return nil, fmt.Errorf("linear model has %d coefficients for %d features", len(coef), nFeatures)
	}
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	return &Linear{Coefficients: append([]float64(nil), coef...), Intercept: intercept}, nil
}

func (l *Linear) Predict(x []float64) (float64, error) {
	if len(x) != len(l.Coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x), len(l.Coefficients))
	}
	y := l.Intercept
	for i, c := range l.Coefficients {
		y += c * x[i]
	}
	return y, nil
}

func (l *Linear) NumFeatures() int { return len(l.Coefficients) }
