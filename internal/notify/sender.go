package notify

import (
	"bytes"
	"context"
	"mime"
	"strings"
	"time"

	"jobboard-backend/internal/shared/telemetry"
)

// Sender delivers one plain-text email.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogSender records messages in the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	telemetry.Info("notify.logged", map[string]any{
		"recipient":  recipient,
		"subject":    subject,
		"body_bytes": len(body),
	})
	return nil
}

// composeMessage renders an RFC 5322 plain-text message.
func composeMessage(from, to, subject, body string, now time.Time) []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	header("From", from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

var _ Sender = LogSender{}
