package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestDetachKeepsOnlyRequestID(t *testing.T) {
	parent, cancel := context.WithTimeout(WithRequestID(context.Background(), "req-1"), time.Millisecond)
	defer cancel()

	detached := Detach(parent)
	cancel()
	if detached.Err() != nil {
		t.Fatalf("expected detached context to survive parent cancel")
	}
	if got := RequestIDFromContext(detached); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := RequestIDFromContext(Detach(context.Background())); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}
