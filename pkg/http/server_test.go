package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestNewServerRoutes(t *testing.T) {
	h := HandlerFunc(func(e *echo.Echo) {
		e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
		e.GET("/missing", func(c echo.Context) error { return AppErrorResponse(c, NotFoundError("no snapshot")) })
	})
	s := NewServer(h, WithMetrics(true, 0))

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ping: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected real 404 status, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestNewServerWithoutMetrics(t *testing.T) {
	s := NewServer(nil, WithMetrics(false, 0))
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without metrics, got %d", rec.Code)
	}
}
