package predictors

import (
	"context"
	"fmt"

	"NextClose/internal/domain/models"
	domsvc "NextClose/internal/domain/service"
)

// TreeNode is a node of a fitted binary decision tree. A node is a leaf when Value is set.
// Numeric splits send x <= Threshold left; categorical splits (Equals set) send
// x == Equals left.
type TreeNode struct {
	Feature   string    `yaml:"feature" json:"feature,omitempty"`
	Threshold float64   `yaml:"threshold" json:"threshold,omitempty"`
	Equals    *string   `yaml:"equals" json:"equals,omitempty"`
	Left      *TreeNode `yaml:"left" json:"left,omitempty"`
	Right     *TreeNode `yaml:"right" json:"right,omitempty"`
	Value     *float64  `yaml:"value" json:"value,omitempty"`
}

func (n *TreeNode) validate(path string) error {
	if n == nil {
		return fmt.Errorf("tree: missing node at %s", path)
	}
	if n.Value != nil {
		return nil
	}
	if n.Feature == "" {
		return fmt.Errorf("tree: split without feature at %s", path)
	}
	if err := n.Left.validate(path + ".left"); err != nil {
		return err
	}
	return n.Right.validate(path + ".right")
}

// TreePredictor walks a decision tree for every row.
type TreePredictor struct {
	root *TreeNode
}

func NewTreePredictor(root *TreeNode) (*TreePredictor, error) {
	if err := root.validate("root"); err != nil {
		return nil, err
	}
	return &TreePredictor{root: root}, nil
}

func (p *TreePredictor) Predict(ctx context.Context, m models.Matrix) ([]float64, error) {
	if err := checkShape(m); err != nil {
		return nil, err
	}
	out := make([]float64, m.Rows())
	for i := range out {
		v, err := p.walk(m, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (p *TreePredictor) walk(m models.Matrix, row int) (float64, error) {
	n := p.root
	for n.Value == nil {
		left := false
		if n.Equals != nil {
			idx := m.CategoricalIndex(n.Feature)
			if idx < 0 {
				return 0, fmt.Errorf("%w: categorical column %q", ErrFeatureMismatch, n.Feature)
			}
			left = m.Categorical[row][idx] == *n.Equals
		} else {
			idx := m.NumericIndex(n.Feature)
			if idx < 0 {
				return 0, fmt.Errorf("%w: numeric column %q", ErrFeatureMismatch, n.Feature)
			}
			left = m.Numeric[row][idx] <= n.Threshold
		}
		if left {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return *n.Value, nil
}

var _ domsvc.Predictor = (*TreePredictor)(nil)
