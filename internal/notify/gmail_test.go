package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func TestGmailSenderPostsRawMessage(t *testing.T) {
	var (
		path string
		raw  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		var msg struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode body: %v", err)
		}
		raw = msg.Raw
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"m-1"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	sender, err := newGmailSender(ctx, srv.Client(), "recruiting@example.com", option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("newGmailSender: %v", err)
	}
	if err := sender.Send(ctx, "jane@example.com", "Update", "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if !strings.HasSuffix(path, "/users/me/messages/send") {
		t.Fatalf("unexpected path %q", path)
	}
	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw not base64url: %v", err)
	}
	for _, want := range []string{"From: recruiting@example.com\r\n", "To: jane@example.com\r\n", "hello\r\n"} {
		if !strings.Contains(string(decoded), want) {
			t.Fatalf("expected %q in message, got %q", want, decoded)
		}
	}
}

func TestGmailSenderSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	ctx := context.Background()
	sender, err := newGmailSender(ctx, srv.Client(), "", option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("newGmailSender: %v", err)
	}
	if err := sender.Send(ctx, "jane@example.com", "s", "b"); err == nil || !strings.Contains(err.Error(), "gmail send") {
		t.Fatalf("expected wrapped gmail error, got %v", err)
	}
}

func TestNewGmailSenderMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewGmailSender(context.Background(), filepath.Join(dir, "nope.json"), filepath.Join(dir, "token.json"), ""); err == nil {
		t.Fatalf("expected error for missing credentials")
	}

	creds := filepath.Join(dir, "credentials.json")
	secret := `{"installed":{"client_id":"id","client_secret":"secret","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`
	if err := os.WriteFile(creds, []byte(secret), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}
	_, err := NewGmailSender(context.Background(), creds, filepath.Join(dir, "token.json"), "")
	if err == nil || !strings.Contains(err.Error(), "read gmail token") {
		t.Fatalf("expected token error, got %v", err)
	}
}
