package predictors

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"NextClose/internal/domain/models"
	domsvc "NextClose/internal/domain/service"
)

// ErrFeatureMismatch is returned when a predictor references a column the matrix lacks.
var ErrFeatureMismatch = errors.New("feature mismatch")

// LinearSpec is the fitted state of a linear pipeline: optional standard scaling,
// one-hot encoded categoricals and a linear head.
type LinearSpec struct {
	Intercept    float64                       `yaml:"intercept" json:"intercept"`
	Coefficients map[string]float64            `yaml:"coefficients" json:"coefficients"`
	Categories   map[string]map[string]float64 `yaml:"categories" json:"categories"`
	// Standardize scales every numeric column by the mean and standard deviation of the
	// matrix being predicted, so a row's score depends on the whole matrix.
	Standardize bool `yaml:"standardize" json:"standardize"`
}

// LinearPredictor is a regressor over the feature matrix.
type LinearPredictor struct {
	spec LinearSpec
}

func NewLinearPredictor(spec LinearSpec) *LinearPredictor {
	return &LinearPredictor{spec: spec}
}

func (p *LinearPredictor) Predict(ctx context.Context, m models.Matrix) ([]float64, error) {
	return p.spec.scores(m)
}

type numericTerm struct {
	idx         int
	coef        float64
	mean, std   float64
	standardize bool
}

type categoricalTerm struct {
	idx     int
	weights map[string]float64
}

func (s LinearSpec) scores(m models.Matrix) ([]float64, error) {
	if err := checkShape(m); err != nil {
		return nil, err
	}

	// fixed summation order; map iteration is randomized
	nums := make([]numericTerm, 0, len(s.Coefficients))
	for _, col := range slices.Sorted(maps.Keys(s.Coefficients)) {
		coef := s.Coefficients[col]
		idx := m.NumericIndex(col)
		if idx < 0 {
			return nil, fmt.Errorf("%w: numeric column %q", ErrFeatureMismatch, col)
		}
		t := numericTerm{idx: idx, coef: coef, standardize: s.Standardize}
		if s.Standardize {
			t.mean, t.std = columnStats(m, idx)
		}
		nums = append(nums, t)
	}
	cats := make([]categoricalTerm, 0, len(s.Categories))
	for _, col := range slices.Sorted(maps.Keys(s.Categories)) {
		w := s.Categories[col]
		idx := m.CategoricalIndex(col)
		if idx < 0 {
			return nil, fmt.Errorf("%w: categorical column %q", ErrFeatureMismatch, col)
		}
		cats = append(cats, categoricalTerm{idx: idx, weights: w})
	}

	out := make([]float64, m.Rows())
	for i := range out {
		y := s.Intercept
		for _, t := range nums {
			x := m.Numeric[i][t.idx]
			if t.standardize {
				if t.std == 0 {
					x = 0
				} else {
					x = (x - t.mean) / t.std
				}
			}
			y += t.coef * x
		}
		for _, t := range cats {
			// unknown levels encode to all zeros
			y += t.weights[m.Categorical[i][t.idx]]
		}
		out[i] = y
	}
	return out, nil
}

// checkShape rejects matrices whose rows do not match the column headers.
func checkShape(m models.Matrix) error {
	if len(m.Categorical) != m.Rows() {
		return fmt.Errorf("%w: %d numeric rows, %d categorical rows", ErrFeatureMismatch, m.Rows(), len(m.Categorical))
	}
	for i := 0; i < m.Rows(); i++ {
		if len(m.Numeric[i]) != len(m.NumericColumns) || len(m.Categorical[i]) != len(m.CategoricalColumns) {
			return fmt.Errorf("%w: row %d has wrong width", ErrFeatureMismatch, i)
		}
	}
	return nil
}

// columnStats returns the mean and population standard deviation of a numeric column.
func columnStats(m models.Matrix, idx int) (float64, float64) {
	n := float64(m.Rows())
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, row := range m.Numeric {
		sum += row[idx]
	}
	mean := sum / n
	ss := 0.0
	for _, row := range m.Numeric {
		d := row[idx] - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / n)
}

var _ domsvc.Predictor = (*LinearPredictor)(nil)
