package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")
	t.Setenv("TRANSCRIBE_TIMEOUT", "")
	t.Setenv("ARCHIVE_STORE", "")
	t.Setenv("AUDIT_LOG_PATH", "")
	t.Setenv("GENERATIONS_API_ENABLED", "")

	cfg := Load()
	if cfg.Port != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.Port)
	}
	if len(cfg.CORSAllowOrigin) != 1 || cfg.CORSAllowOrigin[0] != "*" {
		t.Fatalf("expected wildcard CORS, got %v", cfg.CORSAllowOrigin)
	}
	if cfg.TranscribeTimeout != 120*time.Second {
		t.Fatalf("expected 120s transcribe timeout, got %s", cfg.TranscribeTimeout)
	}
	if cfg.ArchiveStore != "none" {
		t.Fatalf("expected archive store none, got %q", cfg.ArchiveStore)
	}
	if cfg.GenerationsAPI {
		t.Fatalf("expected generations API disabled by default")
	}
	if cfg.AuditLogPath != "data/test_logs.csv" {
		t.Fatalf("unexpected audit log path %q", cfg.AuditLogPath)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{name: "empty", raw: "", want: time.Minute},
		{name: "seconds", raw: "30", want: 30 * time.Second},
		{name: "go duration", raw: "2m", want: 2 * time.Minute},
		{name: "invalid", raw: "soon", want: time.Minute},
		{name: "negative", raw: "-5s", want: time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.raw)
			if got := getEnvDuration("TEST_DURATION", time.Minute); got != tt.want {
				t.Fatalf("getEnvDuration(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected split result %v", got)
	}
}
