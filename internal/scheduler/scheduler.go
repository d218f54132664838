package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
	"NextClose/internal/usecase"
	applogger "NextClose/pkg/logger"
)

// Forecaster is the slice of ForecastUseCase the batch job needs.
type Forecaster interface {
	Forecast(ctx context.Context, p usecase.ForecastParams) (*models.Forecast, error)
}

// Config controls the batch forecaster.
type Config struct {
	Spec        string
	Watchlist   []string
	SnapshotTTL time.Duration
}

// BatchResult summarizes one run over the watchlist.
type BatchResult struct {
	Succeeded []string
	Failed    map[string]error
}

// Scheduler runs watchlist forecasts on a cron schedule and stores the latest result per ticker.
type Scheduler struct {
	cron      *cron.Cron
	cfg       Config
	fc        Forecaster
	snapshots domrepo.SnapshotStore
	metrics   domrepo.Metrics
	l         *applogger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex // serializes runs
}

func New(cfg Config, fc Forecaster, snapshots domrepo.SnapshotStore, metrics domrepo.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 24 * time.Hour
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		cfg:       cfg,
		fc:        fc,
		snapshots: snapshots,
		metrics:   metrics,
		l:         applogger.Nop(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetLogger injects a structured logger.
func (s *Scheduler) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

// Register adds the watchlist job to the cron table.
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.cfg.Spec, func() { s.RunNow(s.ctx) }); err != nil {
		return fmt.Errorf("register batch forecast %q: %w", s.cfg.Spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started",
		applogger.String("spec", s.cfg.Spec),
		applogger.Strings("watchlist", s.cfg.Watchlist),
	)
}

// Stop cancels any in-flight run and waits for running jobs to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.l.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow forecasts every watchlist ticker once. A failing ticker never aborts the batch.
func (s *Scheduler) RunNow(ctx context.Context) BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res := BatchResult{Failed: make(map[string]error)}
	for _, raw := range s.cfg.Watchlist {
		ticker := strings.ToUpper(strings.TrimSpace(raw))
		if err := ctx.Err(); err != nil {
			res.Failed[ticker] = err
			continue
		}
		if err := s.runOne(ctx, ticker); err != nil {
			res.Failed[ticker] = err
			s.metrics.RecordError("batch")
			s.l.Warn("batch forecast failed",
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
			continue
		}
		res.Succeeded = append(res.Succeeded, ticker)
	}
	s.metrics.RecordLatency("batch", time.Since(start).Seconds())
	s.l.Info("batch forecast done",
		applogger.Int("ok", len(res.Succeeded)),
		applogger.Int("failed", len(res.Failed)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return res
}

func (s *Scheduler) runOne(ctx context.Context, ticker string) error {
	f, err := s.fc.Forecast(ctx, usecase.ForecastParams{Ticker: ticker, Source: usecase.SourceBatch})
	if err != nil {
		return err
	}
	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.Put(ctx, f, s.cfg.SnapshotTTL); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

type noopMetrics struct{}

func (noopMetrics) RecordForecast(string, string)          {}
func (noopMetrics) RecordError(string)                     {}
func (noopMetrics) RecordRows(string, int)                 {}
func (noopMetrics) RecordPredictorLatency(string, float64) {}
func (noopMetrics) RecordPredictorFailure(string)          {}
func (noopMetrics) RecordLatency(string, float64)          {}
