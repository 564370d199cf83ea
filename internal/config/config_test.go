package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "arena-api" {
		t.Fatalf("unexpected ServiceName: %q", cfg.ServiceName)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.SnapshotCacheTTL != 60*time.Second {
		t.Fatalf("unexpected SnapshotCacheTTL: %s", cfg.SnapshotCacheTTL)
	}
	if cfg.FetchConcurrency != 4 {
		t.Fatalf("unexpected FetchConcurrency: %d", cfg.FetchConcurrency)
	}
	if cfg.TeamSize != 3 || cfg.MinChoices != 2 || cfg.MaxChoices != 8 {
		t.Fatalf("unexpected formation defaults: %d/%d/%d", cfg.TeamSize, cfg.MinChoices, cfg.MaxChoices)
	}
	if cfg.WindowScoreSpan != 5.0 || cfg.WindowMinSize != 5 {
		t.Fatalf("unexpected window defaults: %v/%d", cfg.WindowScoreSpan, cfg.WindowMinSize)
	}
	if cfg.JudgeMaxRetries != 1 {
		t.Fatalf("unexpected JudgeMaxRetries: %d", cfg.JudgeMaxRetries)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected ShutdownTimeout: %s", cfg.ShutdownTimeout)
	}
}

func TestLoad_FormationOverrides(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("FORMATION_TEAM_SIZE", "4")
	t.Setenv("FORMATION_MIN_CHOICES", "3")
	t.Setenv("FORMATION_MAX_CHOICES", "10")
	t.Setenv("FORMATION_WINDOW_SCORE_SPAN", "7.5")
	t.Setenv("FORMATION_WINDOW_MIN_SIZE", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.TeamSize != 4 || cfg.MinChoices != 3 || cfg.MaxChoices != 10 {
		t.Fatalf("unexpected formation overrides: %d/%d/%d", cfg.TeamSize, cfg.MinChoices, cfg.MaxChoices)
	}
	if cfg.WindowScoreSpan != 7.5 || cfg.WindowMinSize != 6 {
		t.Fatalf("unexpected window overrides: %v/%d", cfg.WindowScoreSpan, cfg.WindowMinSize)
	}
}

func TestLoad_MaxChoicesBelowMinFails(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("FORMATION_MIN_CHOICES", "5")
	t.Setenv("FORMATION_MAX_CHOICES", "4")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when FORMATION_MAX_CHOICES < FORMATION_MIN_CHOICES")
	}
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origin: %q", cfg.CORSAllowedOrigins[1])
	}
}

func TestLoad_PyroscopeRequiresAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}
