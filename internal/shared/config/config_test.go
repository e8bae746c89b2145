package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("SCREENING_WORKERS", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.LLMProvider != "gemini" {
		t.Fatalf("expected gemini provider, got %q", cfg.LLMProvider)
	}
	if cfg.DecisionTimeout != 60*time.Second {
		t.Fatalf("expected 60s decision timeout, got %s", cfg.DecisionTimeout)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("expected 30m token ttl, got %s", cfg.AccessTokenTTL)
	}
	if cfg.ScreeningWorkers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.ScreeningWorkers)
	}
	if cfg.SMTP.Port != 587 || !cfg.SMTP.UseTLS {
		t.Fatalf("unexpected smtp defaults: %+v", cfg.SMTP)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("SCREENING_DECISION_TIMEOUT", "5s")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "90")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SMTP_USERNAME", "mailer@example.com")
	t.Setenv("SMTP_FROM", "")
	t.Setenv("NOTIFY_PROVIDER", "SMTP")
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_PING_TIMEOUT", "2s")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai, got %q", cfg.LLMProvider)
	}
	if cfg.DecisionTimeout != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.DecisionTimeout)
	}
	if cfg.AccessTokenTTL != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", cfg.AccessTokenTTL)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
	if cfg.SMTP.From != "mailer@example.com" {
		t.Fatalf("expected from to fall back to username, got %q", cfg.SMTP.From)
	}
	if cfg.NotifyProvider != "smtp" {
		t.Fatalf("expected smtp notifier, got %q", cfg.NotifyProvider)
	}
	if cfg.DB.MaxOpenConns != 4 || cfg.DB.PingTimeout != 2*time.Second || cfg.DB.MaxIdleConns != 0 {
		t.Fatalf("unexpected pool overrides %+v", cfg.DB)
	}
}

func TestSMTPConfigured(t *testing.T) {
	if (SMTPConfig{Host: "smtp.example.com"}).Configured() {
		t.Fatalf("expected unconfigured without credentials")
	}
	if !(SMTPConfig{Host: "h", Username: "u", Password: "p"}).Configured() {
		t.Fatalf("expected configured")
	}
}
