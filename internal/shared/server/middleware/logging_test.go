package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jobboard-backend/internal/shared/auth"
	"jobboard-backend/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, observed := observer.New(zapcore.InfoLevel)
	prev := telemetry.Logger()
	telemetry.SetLogger(zap.New(core))
	defer telemetry.SetLogger(prev)

	signer := newTestSigner(t)
	router := gin.New()
	router.Use(RequestID(), Auth(signer), Logging())
	router.GET("/test", func(c *gin.Context) {
		c.Set(ApplicationIDKey, "app-1")
		c.Set(JobIDKey, "job-1")
		c.Set(StatusTransitionKey, "PENDING->ACCEPTED")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", bearer(t, signer, auth.Claims{Sub: "alice", UID: "u-1", Role: "ADMIN"}))
	req.Header.Set("X-Request-Id", "req-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	entries := observed.FilterMessage("request.complete").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 access log entry, got %d", len(entries))
	}
	payload := entries[0].ContextMap()

	required := []string{"request_id", "user_id", "application_id", "job_id", "duration_ms", "status", "status_transition"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["user_id"] != "u-1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["status_transition"] != "PENDING->ACCEPTED" {
		t.Fatalf("unexpected status_transition: %v", payload["status_transition"])
	}
	if resp.Header().Get("X-Request-Id") != "req-123" {
		t.Fatalf("expected request id echoed in header")
	}
}
