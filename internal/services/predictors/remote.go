package predictors

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"NextClose/internal/domain/models"
	domsvc "NextClose/internal/domain/service"
)

// RemotePredictor delegates prediction to a model server that hosts the fitted pipeline.
type RemotePredictor struct {
	base     *HTTPServiceBase
	model    string
	attempts int
}

func NewRemotePredictor(baseURL, model string, timeout time.Duration, attempts int) *RemotePredictor {
	return &RemotePredictor{base: NewHTTPServiceBase(baseURL, timeout), model: model, attempts: attempts}
}

type predictRequest struct {
	Model  string        `json:"model"`
	Matrix models.Matrix `json:"matrix"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
}

func (p *RemotePredictor) Predict(ctx context.Context, m models.Matrix) ([]float64, error) {
	var pr predictResponse
	path := "/predict/" + url.PathEscape(p.model)
	if err := p.base.PostJSONWithRetry(ctx, path, predictRequest{Model: p.model, Matrix: m}, &pr, p.attempts); err != nil {
		return nil, fmt.Errorf("remote predict: %w", err)
	}
	return pr.Predictions, nil
}

var _ domsvc.Predictor = (*RemotePredictor)(nil)
