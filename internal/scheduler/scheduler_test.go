package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"NextClose/internal/domain/models"
	domsvc "NextClose/internal/domain/service"
	"NextClose/internal/service/cache"
	"NextClose/internal/usecase"
)

type fakeForecaster struct {
	calls []usecase.ForecastParams
}

func (f *fakeForecaster) Forecast(ctx context.Context, p usecase.ForecastParams) (*models.Forecast, error) {
	f.calls = append(f.calls, p)
	if p.Ticker == "MISSING" {
		return nil, &domsvc.NoDataError{Ticker: p.Ticker}
	}
	return &models.Forecast{
		Ticker:      p.Ticker,
		AsOf:        time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC),
		Predictions: map[string]float64{"reg": 42},
	}, nil
}

type countingMetrics struct {
	errors int
}

func (m *countingMetrics) RecordForecast(string, string)          {}
func (m *countingMetrics) RecordError(string)                     { m.errors++ }
func (m *countingMetrics) RecordRows(string, int)                 {}
func (m *countingMetrics) RecordPredictorLatency(string, float64) {}
func (m *countingMetrics) RecordPredictorFailure(string)          {}
func (m *countingMetrics) RecordLatency(string, float64)          {}

func TestRunNowStoresSnapshotsAndIsolatesFailures(t *testing.T) {
	fc := &fakeForecaster{}
	store := cache.NewSnapshotStore(cache.NewTTLCache())
	m := &countingMetrics{}
	s := New(Config{Spec: "0 0 18 * * 1-5", Watchlist: []string{" abc", "MISSING", "xyz"}}, fc, store, m)

	res := s.RunNow(context.Background())
	if len(res.Succeeded) != 2 || res.Succeeded[0] != "ABC" || res.Succeeded[1] != "XYZ" {
		t.Fatalf("succeeded: %v", res.Succeeded)
	}
	var nd *domsvc.NoDataError
	if !errors.As(res.Failed["MISSING"], &nd) {
		t.Fatalf("expected no data failure, got %v", res.Failed)
	}
	if m.errors != 1 {
		t.Fatalf("expected 1 error recorded, got %d", m.errors)
	}
	for _, c := range fc.calls {
		if c.Source != usecase.SourceBatch {
			t.Fatalf("expected batch source, got %q", c.Source)
		}
	}

	got, ok, err := store.Get(context.Background(), "abc")
	if err != nil || !ok {
		t.Fatalf("snapshot missing: ok=%v err=%v", ok, err)
	}
	if got.Predictions["reg"] != 42 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if _, ok, _ := store.Get(context.Background(), "MISSING"); ok {
		t.Fatalf("failed ticker must not be stored")
	}
}

func TestRunNowCancelled(t *testing.T) {
	fc := &fakeForecaster{}
	s := New(Config{Watchlist: []string{"ABC", "XYZ"}}, fc, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.RunNow(ctx)
	if len(fc.calls) != 0 || len(res.Failed) != 2 {
		t.Fatalf("expected no calls and 2 failures, got calls=%d failed=%v", len(fc.calls), res.Failed)
	}
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := New(Config{Spec: "not a cron"}, &fakeForecaster{}, nil, nil)
	if err := s.Register(); err == nil {
		t.Fatalf("expected invalid spec error")
	}
	s = New(Config{Spec: "0 30 18 * * 1-5"}, &fakeForecaster{}, nil, nil)
	if err := s.Register(); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
