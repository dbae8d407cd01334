package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BEDROCK_MODEL_ID", "")
	t.Setenv("PROVIDER_ORDER", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BedrockModelID != "" {
		t.Fatalf("expected default bedrock model empty, got %s", cfg.BedrockModelID)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected default session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Fatalf("expected default sweep interval, got %s", cfg.SweepInterval)
	}
	if cfg.RateLimitRequests != 15 {
		t.Fatalf("expected default rate limit, got %d", cfg.RateLimitRequests)
	}
	if len(cfg.ProviderOrder) != 3 || cfg.ProviderOrder[0] != "openai" {
		t.Fatalf("expected default provider order, got %v", cfg.ProviderOrder)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("INFERENCE_BASE_URL", "http://ai.internal:8000")
	t.Setenv("INFERENCE_PROBE_INTERVAL", "45s")
	t.Setenv("PROVIDER_ORDER", "gemini, openai")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.InferenceBaseURL != "http://ai.internal:8000" {
		t.Fatalf("expected inference url override, got %s", cfg.InferenceBaseURL)
	}
	if cfg.InferenceProbeInterval != 45*time.Second {
		t.Fatalf("expected probe interval override, got %s", cfg.InferenceProbeInterval)
	}
	if len(cfg.ProviderOrder) != 2 || cfg.ProviderOrder[0] != "gemini" || cfg.ProviderOrder[1] != "openai" {
		t.Fatalf("expected provider order override, got %v", cfg.ProviderOrder)
	}
	if cfg.SessionBackend != "redis" {
		t.Fatalf("expected normalized session backend, got %s", cfg.SessionBackend)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected session ttl override, got %s", cfg.SessionTTL)
	}
	if cfg.RateLimitRequests != 5 {
		t.Fatalf("expected rate limit override, got %d", cfg.RateLimitRequests)
	}
}

func TestLoadHTTPSurface(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")
	t.Setenv("HTTP_RATE_PER_SECOND", "2.5")
	t.Setenv("HTTP_RATE_BURST", "7")
	cfg := Load()
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("expected cors origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.HTTPRatePerSecond != 2.5 {
		t.Fatalf("expected rate per second override, got %v", cfg.HTTPRatePerSecond)
	}
	if cfg.HTTPRateBurst != 7 {
		t.Fatalf("expected burst override, got %d", cfg.HTTPRateBurst)
	}
}
