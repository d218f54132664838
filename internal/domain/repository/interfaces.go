package repository

import (
	"context"
	"time"

	"NextClose/internal/domain/models"
)

// RawSource loads the raw OHLCV table once at process start.
type RawSource interface {
	Load(ctx context.Context) ([]models.RawRecord, error)
	Name() string
}

// RawTable is the immutable, process-wide raw table.
type RawTable interface {
	Records() []models.RawRecord
	Tickers() []string
}

// Publisher emits forecast events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, ev models.ForecastEvent) error
	Close() error
}

// SnapshotStore keeps the latest batch forecast per ticker.
type SnapshotStore interface {
	Put(ctx context.Context, f *models.Forecast, ttl time.Duration) error
	Get(ctx context.Context, ticker string) (*models.Forecast, bool, error)
}

type Metrics interface {
	RecordForecast(source, ticker string)
	RecordError(kind string)
	RecordRows(ticker string, rows int)
	RecordPredictorLatency(predictor string, seconds float64)
	RecordPredictorFailure(predictor string)
	RecordLatency(op string, seconds float64)
}
