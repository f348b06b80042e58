package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "development-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Forecast.Steps != 6 {
		t.Errorf("Forecast.Steps = %d, want 6", cfg.Forecast.Steps)
	}
	if cfg.Forecast.ChartDir != "static/forecast_plots" {
		t.Errorf("Forecast.ChartDir = %q", cfg.Forecast.ChartDir)
	}
	if cfg.Session.Store != "memory" {
		t.Errorf("Session.Store = %q, want memory", cfg.Session.Store)
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("Server.Address() = %q", cfg.Server.Address())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "development-secret")
	t.Setenv("FORECAST_STEPS", "12")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SESSION_STORE", "redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Forecast.Steps != 12 {
		t.Errorf("Forecast.Steps = %d, want 12", cfg.Forecast.Steps)
	}
	if cfg.JWT.AccessTokenTTL != 30*time.Minute {
		t.Errorf("AccessTokenTTL = %v", cfg.JWT.AccessTokenTTL)
	}
	if got := strings.Join(cfg.CORS.AllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("AllowedOrigins = %q", got)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"short secret in production", map[string]string{
			"JWT_SECRET": "short", "APP_ENV": "production", "DB_PASSWORD": "pw",
		}, "at least 32 characters"},
		{"unknown session store", map[string]string{
			"JWT_SECRET": "development-secret", "SESSION_STORE": "memcached",
		}, "SESSION_STORE"},
		{"non-positive steps", map[string]string{
			"JWT_SECRET": "development-secret", "FORECAST_STEPS": "0",
		}, "FORECAST_STEPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}
