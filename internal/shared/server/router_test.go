package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cvgen-backend/internal/services/health"
	"cvgen-backend/internal/shared/config"
)

func TestAddr(t *testing.T) {
	tests := map[string]string{
		"":      ":8000",
		"9000":  ":9000",
		":7000": ":7000",
	}
	for in, want := range tests {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHealthReportsUnavailableDependency(t *testing.T) {
	healthSvc := health.NewService()
	healthSvc.Register("database", func(ctx context.Context) error { return errors.New("down") })

	r := NewRouter(RouterDeps{
		Config: config.Config{Env: "dev", CORSAllowOrigin: []string{"*"}},
		Health: healthSvc,
	})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"database":"down"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestMetricsRouteIsRegistered(t *testing.T) {
	r := NewRouter(RouterDeps{Config: config.Config{Env: "dev"}})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id middleware to run")
	}
}
