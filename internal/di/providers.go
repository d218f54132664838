package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"NextClose/internal/domain/repository"
	"NextClose/internal/handler/api"
	internalrepo "NextClose/internal/repository"
	"NextClose/internal/scheduler"
	"NextClose/internal/service/cache"
	"NextClose/internal/services/predictors"
	"NextClose/internal/usecase"
	pkgch "NextClose/pkg/clickhouse"
	"NextClose/pkg/config"
	xhttp "NextClose/pkg/http"
	pkgkafka "NextClose/pkg/kafka"
	applogger "NextClose/pkg/logger"
	"NextClose/pkg/metrics"
	pkgpg "NextClose/pkg/postgres"
	"NextClose/pkg/server"
)

// startup I/O (raw table load, pings) must finish within this window
const startupTimeout = 30 * time.Second

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideRawSource opens the configured raw table backend. The cleanup closes its connection.
func ProvideRawSource(cfg *config.Config, l *applogger.Logger) (repository.RawSource, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	switch cfg.Data.Source {
	case "clickhouse":
		client, err := pkgch.NewClient(ctx,
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		src, err := internalrepo.NewCHRawSource(client, cfg.Data.Table)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		src.SetLogger(l)
		return src, func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := pkgpg.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		src, err := internalrepo.NewPGRawSource(pool, cfg.Data.Table)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		src.SetLogger(l)
		return src, pool.Close, nil

	case "sqlite":
		src, err := internalrepo.OpenSQLiteRawSource(cfg.SQLite.Path, cfg.Data.Table)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil

	default:
		return internalrepo.NewCSVSource(cfg.Data.Path, cfg.Delimiter()), func() {}, nil
	}
}

// ProvideRawTable loads the raw table once. Malformed input is fatal.
func ProvideRawTable(src repository.RawSource, l *applogger.Logger) (*internalrepo.MemoryTable, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	start := time.Now()
	table, err := internalrepo.LoadTable(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load raw table from %s: %w", src.Name(), err)
	}
	l.Info("raw table loaded",
		applogger.String("source", src.Name()),
		applogger.Int("records", table.Len()),
		applogger.Int("tickers", len(table.Tickers())),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return table, nil
}

// ProvidePredictorRegistry loads every model artifact from the model directory.
func ProvidePredictorRegistry(cfg *config.Config, l *applogger.Logger) (*predictors.Registry, error) {
	reg, err := predictors.LoadDir(cfg.Predictors.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("load predictors: %w", err)
	}
	l.Info("predictors loaded",
		applogger.String("dir", cfg.Predictors.ModelDir),
		applogger.Strings("names", reg.Names()),
	)
	return reg, nil
}

// ProvidePredictionService applies the configured failure policy to the registry.
func ProvidePredictionService(set usecase.PredictorSet, m repository.Metrics, cfg *config.Config, l *applogger.Logger) (*usecase.PredictionService, error) {
	policy, err := usecase.ParseFailurePolicy(cfg.Prediction.FailurePolicy)
	if err != nil {
		return nil, err
	}
	svc := usecase.NewPredictionService(set, policy, m)
	svc.SetLogger(l)
	return svc, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideKafkaPublisher wraps the producer for forecast events; nil without a producer.
func ProvideKafkaPublisher(producer *pkgkafka.Producer, cfg *config.Config) *internalrepo.KafkaPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvidePublisher exposes the Kafka publisher as a domain publisher, keeping a nil interface when disabled.
func ProvidePublisher(kp *internalrepo.KafkaPublisher) repository.Publisher {
	if kp == nil {
		return nil
	}
	return kp
}

// ProvideBytesCache returns Redis when enabled, otherwise an in-process TTL cache.
func ProvideBytesCache(cfg *config.Config, l *applogger.Logger) (cache.BytesCache, func(), error) {
	if !cfg.Redis.Enabled {
		l.Info("redis disabled, snapshots kept in memory")
		return cache.NewTTLCache(), func() {}, nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, err
	}
	return rc, func() { _ = rc.Close() }, nil
}

// ProvideSnapshotStore keeps batch forecasts in the bytes cache.
func ProvideSnapshotStore(c cache.BytesCache) repository.SnapshotStore {
	return cache.NewSnapshotStore(c)
}

// ProvideForecastUseCase creates the forecast request boundary.
func ProvideForecastUseCase(
	table repository.RawTable,
	svc *usecase.PredictionService,
	pub repository.Publisher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	uc := usecase.NewForecastUseCase(table, svc, pub, m)
	uc.SetLogger(l)
	if cfg.Prediction.Timeout > 0 {
		uc.SetTimeout(cfg.Prediction.Timeout)
	}
	return uc
}

// ProvideScheduler registers the watchlist job, or returns nil when the scheduler is disabled.
func ProvideScheduler(
	cfg *config.Config,
	uc *usecase.ForecastUseCase,
	snapshots repository.SnapshotStore,
	m repository.Metrics,
	l *applogger.Logger,
) (*scheduler.Scheduler, error) {
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	s := scheduler.New(scheduler.Config{
		Spec:        cfg.Scheduler.Spec,
		Watchlist:   cfg.Scheduler.Watchlist,
		SnapshotTTL: cfg.Scheduler.SnapshotTTL,
	}, uc, snapshots, m)
	s.SetLogger(l)
	if err := s.Register(); err != nil {
		return nil, err
	}
	return s, nil
}

// ProvideForecastHandler creates the echo handler and its health probes.
func ProvideForecastHandler(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.ForecastUseCase,
	snapshots repository.SnapshotStore,
	table *internalrepo.MemoryTable,
	c cache.BytesCache,
) *api.ForecastEchoHandler {
	h := api.NewForecastEchoHandler(l, uc, snapshots, api.RateLimit{
		Capacity:     cfg.RateLimit.Capacity,
		RefillPerSec: cfg.RateLimit.RefillPerSec,
	})
	h.AddHealthCheck("raw_table", func(ctx context.Context) error {
		if table.Len() == 0 {
			return errors.New("raw table is empty")
		}
		return nil
	})
	if rc, ok := c.(*cache.RedisCache); ok {
		h.AddHealthCheck("redis", rc.Ping)
	}
	return h
}

// ProvideHTTPServer creates the echo server from the server and metrics sections.
func ProvideHTTPServer(cfg *config.Config, h *api.ForecastEchoHandler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server and attaches the log collector when configured.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	h *api.ForecastEchoHandler,
	sched *scheduler.Scheduler,
	kp *internalrepo.KafkaPublisher,
) *server.App {
	if cfg.Logging.Collect.Enabled && kp != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collect.Interval,
			CountThreshold: cfg.Logging.Collect.CountThreshold,
			Topic:          cfg.Logging.Collect.Topic,
			Publisher:      kp,
		})
	}
	return server.New(cfg, l, srv, h, sched)
}
