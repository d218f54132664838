package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NextClose/internal/handler/api"
	"NextClose/internal/scheduler"
	"NextClose/pkg/config"
	xhttp "NextClose/pkg/http"
	applogger "NextClose/pkg/logger"
)

// rate limiter buckets idle longer than this are dropped
const sweepIdle = 10 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	handler    *api.ForecastEchoHandler
	sched      *scheduler.Scheduler
}

// New creates a new App instance with all dependencies. sched may be nil when batch forecasts are disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	handler *api.ForecastEchoHandler,
	sched *scheduler.Scheduler,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		httpServer: httpServer,
		handler:    handler,
		sched:      sched,
	}
}

// Run starts the application and blocks until interrupted or the HTTP server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := a.httpServer.Start()

	if a.sched != nil {
		if a.cfg.Scheduler.RunOnStart {
			go a.sched.RunNow(ctx)
		}
		a.sched.Start()
	}

	go a.sweepLoop(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.l.Error("http server error", applogger.Error(err))
			runErr = err
		}
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (a *App) sweepLoop(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.handler.SweepRateLimiter(sweepIdle); n > 0 {
				a.l.Debug("rate limiter swept", applogger.Int("buckets", n))
			}
		}
	}
}

// shutdown gracefully stops all services. Infrastructure clients are closed by the DI cleanup.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	if a.sched != nil {
		if err := a.sched.Stop(ctx); err != nil {
			a.l.Warn("scheduler stop error", applogger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	// flush pending aggregated logs while the producer is still open
	a.l.RemoveCollector()

	a.l.Info("shutdown complete")
	return firstErr
}
