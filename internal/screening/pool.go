package screening

import (
	"context"
	"errors"
	"sync"

	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/telemetry"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 100
)

// Scheduler starts screening without waiting for it. Implementations must
// not block on the screening work.
type Scheduler interface {
	Schedule(ctx context.Context, applicationID, jobID string)
}

// Runner executes one screening unit.
type Runner interface {
	Run(ctx context.Context, applicationID, jobID string) error
}

type task struct {
	ctx           context.Context
	applicationID string
	jobID         string
}

// Pool is an in-process bounded worker pool. A full queue drops the task and
// the application stays PENDING.
type Pool struct {
	runner Runner
	tasks  chan task
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewPool(runner Runner, workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &Pool{runner: runner, tasks: make(chan task, queueSize)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

// Schedule enqueues a screening run on a context detached from ctx.
func (p *Pool) Schedule(ctx context.Context, applicationID, jobID string) {
	t := task{ctx: telemetry.Detach(ctx), applicationID: applicationID, jobID: jobID}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop(t, "pool_closed")
		return
	}
	select {
	case p.tasks <- t:
	default:
		p.drop(t, "queue_full")
	}
}

// Shutdown stops accepting work, drains the queue and waits for running tasks
// or ctx, whichever comes first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(t)
	}
}

func (p *Pool) run(t task) {
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("screening.panic", map[string]any{
				"application_id": t.applicationID,
				"job_id":         t.jobID,
				"panic":          rec,
			})
		}
	}()
	if err := p.runner.Run(t.ctx, t.applicationID, t.jobID); err != nil && !errors.Is(err, ErrAborted) {
		telemetry.Error("screening.failed", map[string]any{
			"application_id": t.applicationID,
			"job_id":         t.jobID,
			"request_id":     telemetry.RequestIDFromContext(t.ctx),
			"error":          err,
		})
	}
}

func (p *Pool) drop(t task, reason string) {
	metrics.IncScreeningDropped()
	telemetry.Error("screening.dropped", map[string]any{
		"application_id": t.applicationID,
		"job_id":         t.jobID,
		"request_id":     telemetry.RequestIDFromContext(t.ctx),
		"reason":         reason,
	})
}

var _ Scheduler = (*Pool)(nil)
