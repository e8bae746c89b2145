package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender delivers through the Gmail API as the authorized user.
type GmailSender struct {
	svc    *gmail.Service
	sender string
	now    func() time.Time
}

// NewGmailSender reads the OAuth client secret and a cached user token. The
// token must already exist; run the consent flow out of band to create it.
func NewGmailSender(ctx context.Context, credentialsFile, tokenFile, sender string) (*GmailSender, error) {
	secret, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(secret, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail token: %w", err)
	}
	return newGmailSender(ctx, cfg.Client(ctx, tok), sender)
}

func newGmailSender(ctx context.Context, httpClient *http.Client, sender string, opts ...option.ClientOption) (*GmailSender, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return &GmailSender{svc: svc, sender: sender, now: time.Now}, nil
}

func (g *GmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	if g == nil || g.svc == nil {
		return errors.New("gmail sender not configured")
	}
	from := g.sender
	if from == "" {
		from = "me"
	}
	raw := composeMessage(from, recipient, subject, body, g.now())
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	if _, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

var _ Sender = (*GmailSender)(nil)
