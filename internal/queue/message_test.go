package queue

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestMessageWireFormat(t *testing.T) {
	msg := Message{
		ApplicationID: "app-123",
		JobID:         "job-9",
		RequestID:     "request-456",
		EnqueuedAt:    "2026-01-30T22:00:00Z",
		Version:       MessageVersion,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	for _, key := range []string{`"applicationId":"app-123"`, `"jobId":"job-9"`, `"version":1`} {
		if !strings.Contains(string(payload), key) {
			t.Fatalf("expected %s in %s", key, payload)
		}
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got != msg {
		t.Fatalf("decoded %+v, want %+v", got, msg)
	}
	if _, err := DecodeMessage([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewScreeningMessageStampsVersionAndUTC(t *testing.T) {
	local := time.Date(2026, time.March, 2, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	msg := NewScreeningMessage("app-1", "job-1", "req-1", local)

	if msg.Version != MessageVersion {
		t.Fatalf("expected version %d, got %d", MessageVersion, msg.Version)
	}
	if msg.EnqueuedAt != "2026-03-02T09:30:00Z" {
		t.Fatalf("expected UTC timestamp, got %q", msg.EnqueuedAt)
	}
}

func TestClientFuncForwards(t *testing.T) {
	var got Message
	var client Client = ClientFunc(func(_ context.Context, msg Message) error {
		got = msg
		return nil
	})
	if err := client.Send(context.Background(), Message{ApplicationID: "app-2"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.ApplicationID != "app-2" {
		t.Fatalf("expected forwarded message, got %+v", got)
	}
}
