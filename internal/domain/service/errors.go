package service

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when prediction is asked over zero feature rows.
	ErrEmptyInput = errors.New("no feature rows to predict on")
	// ErrInvalidTicker is returned for blank ticker symbols.
	ErrInvalidTicker = errors.New("ticker is required")
	// ErrShapeMismatch is returned when a predictor output does not cover every row.
	ErrShapeMismatch = errors.New("prediction length does not match row count")
	// ErrNonFinite is returned when a predictor yields NaN or an infinity for the last row.
	ErrNonFinite = errors.New("non-finite prediction")
)

// NoDataError reports that a ticker has no usable feature rows.
type NoDataError struct {
	Ticker string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no usable data for ticker %s", e.Ticker)
}

// PredictorError reports that a single predictor rejected its input.
type PredictorError struct {
	Predictor string
	Err       error
}

func (e *PredictorError) Error() string {
	return fmt.Sprintf("predictor %s: %v", e.Predictor, e.Err)
}

func (e *PredictorError) Unwrap() error { return e.Err }

// AllPredictorsFailedError is returned when no predictor produced a value.
type AllPredictorsFailedError struct {
	Failures []*PredictorError
}

func (e *AllPredictorsFailedError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	return fmt.Sprintf("all %d predictors failed; first: %v", len(e.Failures), e.Failures[0])
}

func (e *AllPredictorsFailedError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}
