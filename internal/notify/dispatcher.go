package notify

import (
	"context"
	"sync"
	"time"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/users"
)

const DefaultTimeout = 30 * time.Second

type UserLookup interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

type JobLookup interface {
	Get(ctx context.Context, jobID string) (jobs.Job, error)
}

// Dispatcher sends decision emails off the request path. Failures are logged
// and counted, never returned to the caller.
type Dispatcher struct {
	Users   UserLookup
	Jobs    JobLookup
	Sender  Sender
	Timeout time.Duration

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(users UserLookup, jobs JobLookup, sender Sender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if sender == nil {
		sender = LogSender{}
	}
	return &Dispatcher{Users: users, Jobs: jobs, Sender: sender, Timeout: timeout}
}

// Dispatch returns immediately; delivery runs on its own goroutine. After
// Shutdown the message is logged and dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, app applications.Application, status applications.Status) {
	if d == nil || !status.Final() {
		return
	}
	detached := telemetry.Detach(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.IncNotificationFailed()
		telemetry.Warn("notify.dropped", map[string]any{
			"application_id": app.ID,
			"status":         string(status),
			"request_id":     telemetry.RequestIDFromContext(detached),
			"reason":         "dispatcher_closed",
		})
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(detached, app, status)
	}()
}

// Wait blocks until every dispatched delivery has finished. It must not run
// concurrently with Dispatch; use Shutdown for that.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Shutdown stops accepting deliveries and waits for the ones in flight or
// ctx, whichever comes first.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, app applications.Application, status applications.Status) {
	fields := map[string]any{
		"application_id": app.ID,
		"job_id":         app.JobID,
		"status":         string(status),
		"request_id":     telemetry.RequestIDFromContext(ctx),
	}
	defer func() {
		if rec := recover(); rec != nil {
			fields["panic"] = rec
			telemetry.Error("notify.panic", fields)
			metrics.IncNotificationFailed()
		}
	}()

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	candidate, err := d.Users.GetByID(ctx, app.CandidateID)
	if err != nil {
		d.fail(fields, "candidate lookup", err)
		return
	}
	job, err := d.Jobs.Get(ctx, app.JobID)
	if err != nil {
		d.fail(fields, "job lookup", err)
		return
	}
	subject, body, ok := BuildStatusEmail(candidate, job, status)
	if !ok {
		return
	}
	if candidate.Email == "" {
		d.fail(fields, "candidate email", errMissingEmail)
		return
	}
	sender := d.Sender
	if sender == nil {
		sender = LogSender{}
	}
	if err := sender.Send(ctx, candidate.Email, subject, body); err != nil {
		d.fail(fields, "send", err)
		return
	}
	metrics.IncNotificationSent()
	fields["recipient"] = candidate.Email
	telemetry.Info("notify.sent", fields)
}

func (d *Dispatcher) fail(fields map[string]any, stage string, err error) {
	fields["stage"] = stage
	fields["error"] = err.Error()
	telemetry.Error("notify.send_failed", fields)
	metrics.IncNotificationFailed()
}

var _ applications.Notifier = (*Dispatcher)(nil)
