package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"NextClose/internal/domain/models"
	domsvc "NextClose/internal/domain/service"
	"NextClose/internal/repository"
	"NextClose/internal/service/cache"
	"NextClose/internal/services/predictors"
	"NextClose/internal/usecase"

	"github.com/labstack/echo/v4"
)

var day0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func rawSeries(ticker string, n int) []models.RawRecord {
	out := make([]models.RawRecord, n)
	for i := range out {
		c := float64(i + 1)
		out[i] = models.RawRecord{Ticker: ticker, Date: day0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: int64(10 + i)}
	}
	return out
}

var lastClose = domsvc.PredictorFunc(func(ctx context.Context, m models.Matrix) ([]float64, error) {
	idx := m.NumericIndex("close")
	out := make([]float64, m.Rows())
	for i, row := range m.Numeric {
		out[i] = row[idx] + 1
	}
	return out, nil
})

var broken = domsvc.PredictorFunc(func(ctx context.Context, m models.Matrix) ([]float64, error) {
	return nil, errors.New("model exploded")
})

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, rl RateLimit, entries ...predictors.Entry) (*echo.Echo, *cache.SnapshotStore) {
	t.Helper()
	tbl, err := repository.NewMemoryTable(append(rawSeries("ABC", 25), rawSeries("SHORT", 10)...))
	if err != nil {
		t.Fatalf("table: %v", err)
	}
	if len(entries) == 0 {
		entries = []predictors.Entry{{Name: "reg", Predictor: lastClose}}
	}
	reg, err := predictors.NewRegistry(entries...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	svc := usecase.NewPredictionService(reg, usecase.PolicyIsolate, nil)
	uc := usecase.NewForecastUseCase(tbl, svc, nil, nil)
	snaps := cache.NewSnapshotStore(cache.NewTTLCache())
	h := NewForecastEchoHandler(nil, uc, snaps, rl)
	h.AddHealthCheck("table", func(context.Context) error { return nil })
	e := echo.New()
	h.RegisterRoutes(e)
	return e, snaps
}

func do(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestForecastEndpoint(t *testing.T) {
	e, _ := newTestServer(t, RateLimit{})
	for _, tc := range []struct{ method, target, body string }{
		{http.MethodPost, "/api/forecast", `{"ticker":"abc"}`},
		{http.MethodGet, "/api/forecast?ticker=ABC", ""},
	} {
		rec, env := do(e, tc.method, tc.target, tc.body)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: status %d body %s", tc.method, tc.target, rec.Code, rec.Body)
		}
		var f models.Forecast
		if err := json.Unmarshal(env.Data, &f); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if f.Ticker != "ABC" || f.Predictions["reg"] != 25 {
			t.Fatalf("unexpected forecast %+v", f)
		}
	}
}

func TestForecastNoData(t *testing.T) {
	e, _ := newTestServer(t, RateLimit{})
	for _, ticker := range []string{"SHORT", "NOPE"} {
		rec, env := do(e, http.MethodPost, "/api/forecast", `{"ticker":"`+ticker+`"}`)
		if rec.Code != http.StatusBadRequest || env.Status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", ticker, rec.Code)
		}
		if !strings.Contains(string(env.Data), "ERR_NO_DATA") {
			t.Fatalf("%s: expected ERR_NO_DATA, got %s", ticker, env.Data)
		}
	}
}

func TestForecastValidation(t *testing.T) {
	e, _ := newTestServer(t, RateLimit{})
	rec, env := do(e, http.MethodPost, "/api/forecast", `{}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(string(env.Data), "ERR_REQUIRED") {
		t.Fatalf("expected required error, got %d %s", rec.Code, rec.Body)
	}
	rec, _ = do(e, http.MethodPost, "/api/forecast", `{"ticker":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank ticker: expected 400, got %d", rec.Code)
	}
}

func TestForecastPredictorFailure(t *testing.T) {
	e, _ := newTestServer(t, RateLimit{}, predictors.Entry{Name: "bad", Predictor: broken})
	rec, env := do(e, http.MethodPost, "/api/forecast", `{"ticker":"ABC"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(string(env.Data), "ERR_PREDICTOR") {
		t.Fatalf("expected ERR_PREDICTOR, got %d %s", rec.Code, rec.Body)
	}

	e, _ = newTestServer(t, RateLimit{},
		predictors.Entry{Name: "bad", Predictor: broken},
		predictors.Entry{Name: "reg", Predictor: lastClose},
	)
	rec, env = do(e, http.MethodPost, "/api/forecast", `{"ticker":"ABC"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("isolated failure must not fail the request: %d %s", rec.Code, rec.Body)
	}
	var f models.Forecast
	_ = json.Unmarshal(env.Data, &f)
	if f.Errors["bad"] == "" || f.Predictions["reg"] != 25 {
		t.Fatalf("unexpected forecast %+v", f)
	}
}

func TestLegacyForecast(t *testing.T) {
	e, _ := newTestServer(t, RateLimit{})
	req := httptest.NewRequest(http.MethodPost, "/prever/", strings.NewReader(`{"ativo":"abc"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body)
	}
	var res models.LegacyForecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Ativos != "ABC" || res.Previsoes["reg"] != 25 {
		t.Fatalf("unexpected legacy response %+v", res)
	}
	if strings.Contains(rec.Body.String(), "erros") {
		t.Fatalf("erros must be omitted when every predictor succeeds: %s", rec.Body)
	}
}

func TestLegacyForecastReportsPartialFailure(t *testing.T) {
	e, _ := newTestServer(t, RateLimit{},
		predictors.Entry{Name: "bad", Predictor: broken},
		predictors.Entry{Name: "reg", Predictor: lastClose},
	)
	req := httptest.NewRequest(http.MethodPost, "/prever/", strings.NewReader(`{"ativo":"ABC"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body)
	}
	var res models.LegacyForecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := res.Previsoes["bad"]; ok || res.Previsoes["reg"] != 25 {
		t.Fatalf("unexpected predictions %+v", res.Previsoes)
	}
	if res.Erros["bad"] == "" {
		t.Fatalf("expected failure for bad predictor, got %+v", res.Erros)
	}
}

func TestFeaturesAndTickers(t *testing.T) {
	e, _ := newTestServer(t, RateLimit{})
	rec, env := do(e, http.MethodGet, "/api/features?ticker=abc&limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("features: %d %s", rec.Code, rec.Body)
	}
	var fr usecase.FeaturesResult
	_ = json.Unmarshal(env.Data, &fr)
	if fr.Total != 4 || fr.Count != 2 || len(fr.Rows) != 2 {
		t.Fatalf("unexpected features %+v", fr)
	}
	rec, _ = do(e, http.MethodGet, "/api/features?ticker=abc&limit=0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("limit=0 falls back to the default, got %d", rec.Code)
	}
	rec, _ = do(e, http.MethodGet, "/api/features?ticker=abc&limit=999999", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected limit validation error, got %d", rec.Code)
	}

	rec, env = do(e, http.MethodGet, "/api/tickers", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"SHORT"`) {
		t.Fatalf("tickers: %d %s", rec.Code, rec.Body)
	}
}

func TestLatestSnapshot(t *testing.T) {
	e, snaps := newTestServer(t, RateLimit{})
	rec, _ := do(e, http.MethodGet, "/api/forecast/latest?ticker=ABC", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before the batch ran, got %d", rec.Code)
	}
	_ = snaps.Put(context.Background(), &models.Forecast{Ticker: "ABC", Predictions: map[string]float64{"reg": 7}}, time.Minute)
	rec, env := do(e, http.MethodGet, "/api/forecast/latest?ticker=abc", "")
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"reg":7`) {
		t.Fatalf("latest: %d %s", rec.Code, rec.Body)
	}
}

func TestRateLimit(t *testing.T) {
	e, _ := newTestServer(t, RateLimit{Capacity: 2, RefillPerSec: 0})
	for i := 0; i < 2; i++ {
		if rec, _ := do(e, http.MethodGet, "/api/tickers", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, rec.Code)
		}
	}
	if rec, _ := do(e, http.MethodGet, "/api/tickers", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec, _ := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("health must not be rate limited, got %d", rec.Code)
	}
}
