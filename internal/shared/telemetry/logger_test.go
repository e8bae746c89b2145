package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	Info("screening.status", map[string]any{
		"application_id":    "app-1",
		"status_transition": "NOT_STARTED->RUNNING",
	})
	Error("screening.failed", map[string]any{"error": errors.New("boom")})

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["application_id"] != "app-1" {
		t.Fatalf("unexpected application_id: %v", ctx["application_id"])
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[1].Level)
	}
	if got := entries[1].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected error string field, got %v", got)
	}
}

func TestConfigureRejectsUnknownLevel(t *testing.T) {
	if err := Configure("json", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestSetLoggerNilFallsBackToNop(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	SetLogger(nil)
	Info("nothing", nil)
	if Logger() == nil {
		t.Fatalf("expected nop logger")
	}
}
