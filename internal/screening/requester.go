package screening

import (
	"context"
	"errors"
	"time"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/llm"
	"jobboard-backend/internal/shared/telemetry"
)

// DefaultDecisionTimeout bounds one decision call.
const DefaultDecisionTimeout = 60 * time.Second

// Decider turns an application into a decision. It never fails.
type Decider interface {
	Decide(ctx context.Context, job jobs.Job, app applications.Application, resumeText string) Result
}

// Requester asks the decision service once and parses its reply.
type Requester struct {
	LLM     llm.Completer
	Timeout time.Duration
}

func NewRequester(completer llm.Completer, timeout time.Duration) *Requester {
	if timeout <= 0 {
		timeout = DefaultDecisionTimeout
	}
	return &Requester{LLM: completer, Timeout: timeout}
}

// Decide returns the parsed decision, or a PENDING fallback naming the cause
// when the call or the parse fails.
func (r *Requester) Decide(ctx context.Context, job jobs.Job, app applications.Application, resumeText string) Result {
	if r == nil || r.LLM == nil {
		return Fallback(llm.ErrNotConfigured)
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultDecisionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := r.complete(ctx, BuildPrompt(job, app, resumeText))
	if err != nil {
		telemetry.Warn("screening.decision_failed", map[string]any{
			"application_id": app.ID,
			"request_id":     telemetry.RequestIDFromContext(ctx),
			"error":          err,
		})
		return Fallback(err)
	}
	result, err := ParseDecision(raw)
	if err != nil {
		telemetry.Warn("screening.decision_unparseable", map[string]any{
			"application_id": app.ID,
			"request_id":     telemetry.RequestIDFromContext(ctx),
			"reply_bytes":    len(raw),
			"error":          err,
		})
		return Fallback(err)
	}
	return result
}

type completion struct {
	text string
	err  error
}

// complete returns when the deadline passes even if the client ignores ctx.
func (r *Requester) complete(ctx context.Context, prompt string) (string, error) {
	done := make(chan completion, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- completion{err: errors.New("decision client panicked")}
			}
		}()
		text, err := r.LLM.Complete(ctx, prompt)
		done <- completion{text: text, err: err}
	}()
	select {
	case out := <-done:
		return out.text, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var _ Decider = (*Requester)(nil)
