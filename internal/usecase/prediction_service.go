package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
	domsvc "NextClose/internal/domain/service"
	"NextClose/internal/services/features"
	applogger "NextClose/pkg/logger"
)

// FailurePolicy decides what a single failing predictor does to the whole request.
type FailurePolicy string

const (
	// PolicyIsolate records the failure and keeps the other predictors' values.
	PolicyIsolate FailurePolicy = "isolate"
	// PolicyAbort stops at the first failing predictor.
	PolicyAbort FailurePolicy = "abort"
)

// ParseFailurePolicy maps a config value to a policy. Empty means isolate.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", PolicyIsolate:
		return PolicyIsolate, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// PredictorSet is the read-only view of the predictor registry.
type PredictorSet interface {
	Names() []string
	Get(name string) (domsvc.Predictor, bool)
}

// Prediction holds the last-row value of every predictor that succeeded.
type Prediction struct {
	Values   map[string]float64
	Failures []*domsvc.PredictorError
}

// Errors flattens failures for transport, nil when there are none.
func (p *Prediction) Errors() map[string]string {
	if len(p.Failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(p.Failures))
	for _, f := range p.Failures {
		out[f.Predictor] = f.Err.Error()
	}
	return out
}

// PredictionService runs every registered predictor over the feature matrix.
type PredictionService struct {
	predictors PredictorSet
	policy     FailurePolicy
	metrics    domrepo.Metrics
	l          *applogger.Logger
}

func NewPredictionService(predictors PredictorSet, policy FailurePolicy, metrics domrepo.Metrics) *PredictionService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if policy == "" {
		policy = PolicyIsolate
	}
	return &PredictionService{predictors: predictors, policy: policy, metrics: metrics}
}

// SetLogger injects a structured logger.
func (s *PredictionService) SetLogger(l *applogger.Logger) { s.l = l }

// Names lists the registered predictors in order.
func (s *PredictionService) Names() []string { return s.predictors.Names() }

// Predict hands the whole matrix to each predictor and keeps the value for the final row.
// Cancellation is observed between predictors only.
func (s *PredictionService) Predict(ctx context.Context, rows []models.FeatureRow) (*Prediction, error) {
	if len(rows) == 0 {
		return nil, domsvc.ErrEmptyInput
	}
	m := features.Matrix(rows)
	names := s.predictors.Names()
	res := &Prediction{Values: make(map[string]float64, len(names))}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, ok := s.predictors.Get(name)
		if !ok {
			continue
		}

		start := time.Now()
		out, err := p.Predict(ctx, m)
		s.metrics.RecordPredictorLatency(name, time.Since(start).Seconds())
		if err == nil && len(out) != m.Rows() {
			err = fmt.Errorf("%w: got %d values for %d rows", domsvc.ErrShapeMismatch, len(out), m.Rows())
		}
		if err == nil {
			if last := out[len(out)-1]; math.IsNaN(last) || math.IsInf(last, 0) {
				err = domsvc.ErrNonFinite
			}
		}
		if err != nil {
			perr := &domsvc.PredictorError{Predictor: name, Err: err}
			s.metrics.RecordPredictorFailure(name)
			if s.policy == PolicyAbort {
				return nil, perr
			}
			if s.l != nil {
				s.l.Warn("predictor failed",
					applogger.String("predictor", name),
					applogger.Int("rows", m.Rows()),
					applogger.Error(err),
				)
			}
			res.Failures = append(res.Failures, perr)
			continue
		}
		res.Values[name] = out[len(out)-1]
	}

	if len(res.Values) == 0 && len(res.Failures) > 0 {
		return nil, &domsvc.AllPredictorsFailedError{Failures: res.Failures}
	}
	return res, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordForecast(string, string)          {}
func (noopMetrics) RecordError(string)                     {}
func (noopMetrics) RecordRows(string, int)                 {}
func (noopMetrics) RecordPredictorLatency(string, float64) {}
func (noopMetrics) RecordPredictorFailure(string)          {}
func (noopMetrics) RecordLatency(string, float64)          {}
