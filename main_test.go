package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gowa-pairing/config"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func testConfig() *config.Config {
	return &config.Config{
		CORSAllowOrigins: []string{"https://panel.example"},
		RateLimit:        1,
		RateBurst:        2,
		RateWindow:       time.Minute,
	}
}

func TestNewServerCORS(t *testing.T) {
	e := newServer(testConfig(), zerolog.Nop())
	e.GET("/api/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
	req.Header.Set(echo.HeaderOrigin, "https://panel.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://panel.example" {
		t.Errorf("Allow-Origin = %q, want the configured origin", got)
	}
}

func TestNewServerRateLimit(t *testing.T) {
	e := newServer(testConfig(), zerolog.Nop())
	e.GET("/api/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var last int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status after exceeding burst = %d, want 429", last)
	}
}
