package service

import (
	"context"

	"NextClose/internal/domain/models"
)

// Predictor is an opaque, already-fitted model. It returns one value per matrix row.
type Predictor interface {
	Predict(ctx context.Context, m models.Matrix) ([]float64, error)
}

// PredictorFunc adapts a plain function to Predictor.
type PredictorFunc func(ctx context.Context, m models.Matrix) ([]float64, error)

func (f PredictorFunc) Predict(ctx context.Context, m models.Matrix) ([]float64, error) {
	return f(ctx, m)
}
