package screening

import (
	"context"
	"time"

	"jobboard-backend/internal/queue"
	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/telemetry"
)

const defaultEnqueueTimeout = 5 * time.Second

// QueueScheduler hands screening to an out-of-process worker through a queue.
type QueueScheduler struct {
	Client  queue.Client
	Timeout time.Duration
	Now     func() time.Time
}

func NewQueueScheduler(client queue.Client) *QueueScheduler {
	return &QueueScheduler{Client: client, Timeout: defaultEnqueueTimeout, Now: time.Now}
}

// Schedule publishes a screening message. A failed send is logged and the
// application stays PENDING.
func (q *QueueScheduler) Schedule(ctx context.Context, applicationID, jobID string) {
	requestID := telemetry.RequestIDFromContext(ctx)
	timeout := q.Timeout
	if timeout <= 0 {
		timeout = defaultEnqueueTimeout
	}
	sendCtx, cancel := context.WithTimeout(telemetry.Detach(ctx), timeout)
	defer cancel()

	now := time.Now
	if q.Now != nil {
		now = q.Now
	}
	msg := queue.NewScreeningMessage(applicationID, jobID, requestID, now())
	if q.Client == nil {
		metrics.IncScreeningDropped()
		telemetry.Error("screening.enqueue_failed", map[string]any{
			"application_id": applicationID,
			"error":          "queue client not configured",
		})
		return
	}
	if err := q.Client.Send(sendCtx, msg); err != nil {
		metrics.IncScreeningDropped()
		telemetry.Error("screening.enqueue_failed", map[string]any{
			"application_id": applicationID,
			"job_id":         jobID,
			"request_id":     requestID,
			"error":          err,
		})
		return
	}
	telemetry.Info("screening.enqueued", map[string]any{
		"application_id": applicationID,
		"job_id":         jobID,
		"request_id":     requestID,
	})
}

var _ Scheduler = (*QueueScheduler)(nil)
