package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts         *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	rows              *prometheus.GaugeVec
	predictorLatency  *prometheus.HistogramVec
	predictorFailures *prometheus.CounterVec
	latency           *prometheus.HistogramVec
}

// New creates a recorder on the default registry.
func New() *Recorder { return NewWithRegisterer(prometheus.DefaultRegisterer) }

// NewWithRegisterer creates a recorder on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nextclose_forecasts_total",
				Help: "Total number of forecasts produced",
			},
			[]string{"source", "ticker"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nextclose_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		rows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nextclose_feature_rows",
				Help: "Feature rows produced by the last transform of a ticker",
			},
			[]string{"ticker"},
		),
		predictorLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nextclose_predictor_duration_seconds",
				Help:    "Duration of a single predictor invocation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"predictor"},
		),
		predictorFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nextclose_predictor_failures_total",
				Help: "Predictor invocations that returned an error or a bad shape",
			},
			[]string{"predictor"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nextclose_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordForecast counts a produced forecast.
func (r *Recorder) RecordForecast(source, ticker string) {
	r.forecasts.WithLabelValues(source, ticker).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordRows(ticker string, rows int) {
	r.rows.WithLabelValues(ticker).Set(float64(rows))
}

func (r *Recorder) RecordPredictorLatency(predictor string, seconds float64) {
	r.predictorLatency.WithLabelValues(predictor).Observe(seconds)
}

func (r *Recorder) RecordPredictorFailure(predictor string) {
	r.predictorFailures.WithLabelValues(predictor).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
