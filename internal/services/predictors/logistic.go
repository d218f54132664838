package predictors

import (
	"context"
	"math"

	"NextClose/internal/domain/models"
	domsvc "NextClose/internal/domain/service"
)

// LogisticSpec is a binary classifier: a linear score squashed by a sigmoid and
// mapped to one of two class values.
type LogisticSpec struct {
	LinearSpec `yaml:",inline"`
	Threshold  float64   `yaml:"threshold" json:"threshold"`
	Classes    []float64 `yaml:"classes" json:"classes"`
}

// LogisticPredictor returns the predicted class value per row.
type LogisticPredictor struct {
	spec LogisticSpec
}

func NewLogisticPredictor(spec LogisticSpec) *LogisticPredictor {
	if spec.Threshold <= 0 || spec.Threshold >= 1 {
		spec.Threshold = 0.5
	}
	if len(spec.Classes) != 2 {
		spec.Classes = []float64{0, 1}
	}
	return &LogisticPredictor{spec: spec}
}

func (p *LogisticPredictor) Predict(ctx context.Context, m models.Matrix) ([]float64, error) {
	scores, err := p.spec.scores(m)
	if err != nil {
		return nil, err
	}
	for i, z := range scores {
		if sigmoid(z) >= p.spec.Threshold {
			scores[i] = p.spec.Classes[1]
		} else {
			scores[i] = p.spec.Classes[0]
		}
	}
	return scores, nil
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

var _ domsvc.Predictor = (*LogisticPredictor)(nil)
