package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
	domsvc "NextClose/internal/domain/service"
	"NextClose/internal/services/features"
	applogger "NextClose/pkg/logger"
)

// Forecast sources.
const (
	SourceAPI   = "api"
	SourceBatch = "batch"
)

// ForecastUseCase is the request boundary around feature building and prediction.
type ForecastUseCase struct {
	table   domrepo.RawTable
	svc     *PredictionService
	pub     domrepo.Publisher
	metrics domrepo.Metrics
	timeout time.Duration
	now     func() time.Time
	l       *applogger.Logger
}

// NewForecastUseCase wires the use case. pub may be nil when event publishing is disabled.
func NewForecastUseCase(table domrepo.RawTable, svc *PredictionService, pub domrepo.Publisher, metrics domrepo.Metrics) *ForecastUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ForecastUseCase{
		table:   table,
		svc:     svc,
		pub:     pub,
		metrics: metrics,
		timeout: 10 * time.Second,
		now:     time.Now,
	}
}

// SetLogger injects a structured logger.
func (uc *ForecastUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

// SetTimeout bounds a single forecast. Zero disables the bound.
func (uc *ForecastUseCase) SetTimeout(d time.Duration) { uc.timeout = d }

// NormalizeTicker trims and uppercases a ticker symbol.
func NormalizeTicker(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if t == "" {
		return "", domsvc.ErrInvalidTicker
	}
	return t, nil
}

type ForecastParams struct {
	Ticker string
	Source string
}

// Forecast builds the feature rows for a ticker and returns every predictor's next-close value.
func (uc *ForecastUseCase) Forecast(ctx context.Context, p ForecastParams) (*models.Forecast, error) {
	start := time.Now()
	ticker, err := NormalizeTicker(p.Ticker)
	if err != nil {
		uc.metrics.RecordError("validation")
		return nil, err
	}
	if p.Source == "" {
		p.Source = SourceAPI
	}
	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	rows := features.Transform(uc.table.Records(), ticker)
	uc.metrics.RecordRows(ticker, len(rows))
	if len(rows) == 0 {
		uc.metrics.RecordError("no_data")
		return nil, &domsvc.NoDataError{Ticker: ticker}
	}

	pred, err := uc.svc.Predict(ctx, rows)
	if err != nil {
		uc.metrics.RecordError(errorKind(err))
		return nil, fmt.Errorf("predict %s: %w", ticker, err)
	}

	f := &models.Forecast{
		Ticker:      ticker,
		AsOf:        rows[len(rows)-1].Date,
		Predictions: pred.Values,
		Errors:      pred.Errors(),
		GeneratedAt: uc.now().UTC(),
	}
	uc.publish(ctx, p.Source, f)

	uc.metrics.RecordForecast(p.Source, ticker)
	uc.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	return f, nil
}

// publish is best effort; a broker outage never fails a forecast.
func (uc *ForecastUseCase) publish(ctx context.Context, source string, f *models.Forecast) {
	if uc.pub == nil {
		return
	}
	if err := uc.pub.Publish(ctx, models.NewForecastEvent(source, f)); err != nil {
		uc.metrics.RecordError("publish")
		if uc.l != nil {
			uc.l.Warn("forecast publish failed",
				applogger.String("ticker", f.Ticker),
				applogger.String("source", source),
				applogger.Error(err),
			)
		}
	}
}

type FeaturesParams struct {
	Ticker string
	Limit  int
}

type FeaturesResult struct {
	Ticker string              `json:"ticker"`
	Total  int                 `json:"total"`
	Count  int                 `json:"count"`
	Rows   []models.FeatureRow `json:"rows"`
}

// Features returns the most recent feature rows for a ticker, oldest first.
func (uc *ForecastUseCase) Features(ctx context.Context, p FeaturesParams) (*FeaturesResult, error) {
	ticker, err := NormalizeTicker(p.Ticker)
	if err != nil {
		return nil, err
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	rows := features.Transform(uc.table.Records(), ticker)
	if len(rows) == 0 {
		return nil, &domsvc.NoDataError{Ticker: ticker}
	}
	total := len(rows)
	if total > p.Limit {
		rows = rows[total-p.Limit:]
	}
	return &FeaturesResult{Ticker: ticker, Total: total, Count: len(rows), Rows: rows}, nil
}

// Tickers lists the distinct tickers of the raw table.
func (uc *ForecastUseCase) Tickers() []string { return uc.table.Tickers() }

// Predictors lists the registered predictor names.
func (uc *ForecastUseCase) Predictors() []string { return uc.svc.Names() }

func errorKind(err error) string {
	var perr *domsvc.PredictorError
	var all *domsvc.AllPredictorsFailedError
	switch {
	case errors.As(err, &perr), errors.As(err, &all):
		return "predictor"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
