package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictionResult is the last-row output of one predictor.
type PredictionResult struct {
	Predictor string  `json:"predictor"`
	Value     float64 `json:"value"`
}

// Forecast is the consolidated next-close forecast for a ticker.
// Note: no transport (json/http) concerns beyond field tags.
type Forecast struct {
	Ticker      string             `json:"ticker"`
	AsOf        time.Time          `json:"as_of"`
	Predictions map[string]float64 `json:"predictions"`
	Errors      map[string]string  `json:"errors,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Results flattens predictions into a slice ordered as given by names.
func (f *Forecast) Results(names []string) []PredictionResult {
	out := make([]PredictionResult, 0, len(f.Predictions))
	for _, n := range names {
		if v, ok := f.Predictions[n]; ok {
			out = append(out, PredictionResult{Predictor: n, Value: v})
		}
	}
	return out
}

// ForecastEvent is the message published for every produced forecast.
type ForecastEvent struct {
	ID          string             `json:"id"`
	Source      string             `json:"source"` // "api" | "batch"
	Ticker      string             `json:"ticker"`
	AsOf        string             `json:"as_of"`
	Predictions map[string]float64 `json:"predictions"`
	Errors      map[string]string  `json:"errors,omitempty"`
	Timestamp   int64              `json:"t"`
}

// NewForecastEvent builds an event with a fresh ID.
func NewForecastEvent(source string, f *Forecast) ForecastEvent {
	return ForecastEvent{
		ID:          uuid.NewString(),
		Source:      source,
		Ticker:      f.Ticker,
		AsOf:        f.AsOf.Format(time.DateOnly),
		Predictions: f.Predictions,
		Errors:      f.Errors,
		Timestamp:   f.GeneratedAt.Unix(),
	}
}
