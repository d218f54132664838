package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"NextClose/internal/domain/models"
	domrepo "NextClose/internal/domain/repository"
	domsvc "NextClose/internal/domain/service"
	"NextClose/internal/service/metrics"
	"NextClose/internal/service/ratelimit"
	"NextClose/internal/usecase"
	xhttp "NextClose/pkg/http"
	xlogger "NextClose/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RateLimit configures the per-client token bucket. Zero capacity disables it.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// HealthCheck reports the state of one dependency.
type HealthCheck func(ctx context.Context) error

// ForecastEchoHandler serves the forecast API.
type ForecastEchoHandler struct {
	logger    *xlogger.Logger
	uc        *usecase.ForecastUseCase
	snapshots domrepo.SnapshotStore
	rl        *ratelimit.Limiter
	rlCfg     RateLimit
	checks    map[string]HealthCheck
}

func NewForecastEchoHandler(logger *xlogger.Logger, uc *usecase.ForecastUseCase, snapshots domrepo.SnapshotStore, rl RateLimit) *ForecastEchoHandler {
	metrics.Register()
	return &ForecastEchoHandler{
		logger:    logger,
		uc:        uc,
		snapshots: snapshots,
		rl:        ratelimit.New(),
		rlCfg:     rl,
		checks:    map[string]HealthCheck{},
	}
}

// AddHealthCheck registers a dependency probe for /healthz.
func (h *ForecastEchoHandler) AddHealthCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api", h.rateLimit)
	g.POST("/forecast", h.Forecast)
	g.GET("/forecast", h.Forecast)
	g.GET("/forecast/latest", h.Latest)
	g.GET("/features", h.Features)
	g.GET("/tickers", h.Tickers)
	g.GET("/predictors", h.Predictors)

	e.POST("/prever/", h.LegacyForecast, h.rateLimit)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	const endpoint = "forecast"
	defer observe(endpoint, time.Now())

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Forecast(c.Request().Context(), usecase.ForecastParams{Ticker: req.Ticker, Source: usecase.SourceAPI})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// LegacyForecast keeps the original {"ativo": ...} contract.
func (h *ForecastEchoHandler) LegacyForecast(c echo.Context) error {
	const endpoint = "prever"
	defer observe(endpoint, time.Now())

	req := &models.LegacyForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Forecast(c.Request().Context(), usecase.ForecastParams{Ticker: req.Ativo, Source: usecase.SourceAPI})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return c.JSON(http.StatusOK, models.LegacyForecastResponse{
		Ativos:    res.Ticker,
		Previsoes: res.Predictions,
		Erros:     res.Errors,
	})
}

func (h *ForecastEchoHandler) Features(c echo.Context) error {
	const endpoint = "features"
	defer observe(endpoint, time.Now())

	req := &models.FeaturesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Features(c.Request().Context(), usecase.FeaturesParams{Ticker: req.Ticker, Limit: req.Limit})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Latest returns the most recent batch snapshot without recomputing.
func (h *ForecastEchoHandler) Latest(c echo.Context) error {
	const endpoint = "latest"
	defer observe(endpoint, time.Now())

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker, err := usecase.NormalizeTicker(req.Ticker)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	if h.snapshots == nil {
		return h.fail(c, endpoint, xhttp.NotFoundError("batch forecasts are disabled"))
	}
	f, ok, err := h.snapshots.Get(c.Request().Context(), ticker)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	if !ok {
		return h.fail(c, endpoint, xhttp.NotFoundErrorf("no batch forecast for %s", ticker))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, f)
}

func (h *ForecastEchoHandler) Tickers(c echo.Context) error {
	tickers := h.uc.Tickers()
	return xhttp.ListResponse(c, tickers, int64(len(tickers)))
}

func (h *ForecastEchoHandler) Predictors(c echo.Context) error {
	names := h.uc.Predictors()
	return xhttp.ListResponse(c, names, int64(len(names)))
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, status)
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *ForecastEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rlCfg.Capacity <= 0 {
			return next(c)
		}
		if !h.rl.Allow(c.RealIP(), h.rlCfg.Capacity, h.rlCfg.RefillPerSec) {
			metrics.RateLimited.WithLabelValues(c.Path()).Inc()
			if h.logger != nil {
				h.logger.Warn("rate limited",
					xlogger.String("remote", c.RealIP()),
					xlogger.String("route", c.Path()),
				)
			}
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
		}
		return next(c)
	}
}

// SweepRateLimiter drops idle client buckets.
func (h *ForecastEchoHandler) SweepRateLimiter(idle time.Duration) int { return h.rl.Sweep(idle) }

func (h *ForecastEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.EndpointErrors.WithLabelValues(endpoint, appErr.Code).Inc()
	if h.logger != nil {
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
		} else {
			h.logger.Debug(endpoint+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
		}
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors onto client or server errors.
func toAppError(err error) *xhttp.AppError {
	var (
		appErr *xhttp.AppError
		noData *domsvc.NoDataError
		perr   *domsvc.PredictorError
		all    *domsvc.AllPredictorsFailedError
	)
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domsvc.ErrInvalidTicker):
		return xhttp.NewAppError("ERR_REQUIRED", "ticker", err.Error(), http.StatusBadRequest)
	case errors.As(err, &noData):
		return xhttp.NewAppError("ERR_NO_DATA", "ticker", err.Error(), http.StatusBadRequest).
			WithParam("ticker", noData.Ticker).WithError(err)
	case errors.As(err, &all):
		failed := make([]string, len(all.Failures))
		for i, f := range all.Failures {
			failed[i] = f.Predictor
		}
		return xhttp.NewAppError("ERR_PREDICTOR", "", err.Error(), http.StatusBadRequest).
			WithParam("predictors", failed).WithError(err)
	case errors.As(err, &perr):
		return xhttp.NewAppError("ERR_PREDICTOR", "", perr.Error(), http.StatusBadRequest).
			WithParam("predictor", perr.Predictor).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

func observe(endpoint string, start time.Time) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
