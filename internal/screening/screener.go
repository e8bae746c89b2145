package screening

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/extract"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/metrics"
	"jobboard-backend/internal/shared/storage/object"
	"jobboard-backend/internal/shared/telemetry"
)

// ErrAborted is returned when the application or job was not found. The
// application is left untouched.
var ErrAborted = errors.New("screening aborted")

const (
	stateNotStarted = "NOT_STARTED"
	stateRunning    = "RUNNING"
	stateDone       = "DONE"
	stateAborted    = "ABORTED"
)

// Screener runs one screening unit of work per application.
type Screener struct {
	Store   Store
	Objects object.ObjectStore
	Decider Decider
	Now     func() time.Time
}

func NewScreener(store Store, objects object.ObjectStore, decider Decider) *Screener {
	return &Screener{Store: store, Objects: objects, Decider: decider, Now: time.Now}
}

type runInfo struct {
	applicationID string
	jobID         string
	requestID     string
}

// Run screens one application: refetch, extract, decide, then write the
// result in a single commit. A run on an already reviewed application is a
// no-op. No storage session stays open while the resume is read or the
// decision service is called.
func (s *Screener) Run(ctx context.Context, applicationID, jobID string) (err error) {
	if s == nil || s.Store == nil || s.Decider == nil {
		return errors.New("screener not configured")
	}
	info := runInfo{applicationID: applicationID, jobID: jobID, requestID: telemetry.RequestIDFromContext(ctx)}
	start := time.Now()
	metrics.IncScreeningStarted()
	s.transition(info, stateNotStarted, stateRunning, nil)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("screening panic: %v", rec)
		}
		if err != nil && !errors.Is(err, ErrAborted) {
			metrics.IncScreeningFailed()
			s.transition(info, stateRunning, stateAborted, map[string]any{"error": err})
		}
		metrics.ObserveScreeningDurationMs(metrics.SinceMillis(start))
	}()

	app, job, err := s.load(ctx, info)
	if err != nil {
		return err
	}
	if app.Screened() {
		s.duplicate(info)
		return nil
	}

	text := extract.ResumeText(ctx, s.Objects, app.ResumePath, app.ResumePath)
	if extract.IsErrorPlaceholder(text) {
		telemetry.Warn("screening.resume_unreadable", info.fields(map[string]any{"storage_key": app.ResumePath}))
	}

	result := s.Decider.Decide(ctx, job, app, text)
	saved, err := s.save(ctx, info, applications.ScreeningResult{
		ResumeText: text,
		Status:     result.Status,
		Reasoning:  result.Reasoning,
		ReviewedAt: s.now(),
	})
	if err != nil || !saved {
		return err
	}

	metrics.IncScreeningCompleted()
	metrics.IncDecision(string(result.Status))
	s.transition(info, stateRunning, stateDone, map[string]any{"decision": string(result.Status)})
	return nil
}

// load refetches both records in a read session that is closed on return.
func (s *Screener) load(ctx context.Context, info runInfo) (applications.Application, jobs.Job, error) {
	sess, err := s.Store.Begin(ctx)
	if err != nil {
		return applications.Application{}, jobs.Job{}, err
	}
	defer s.rollback(sess, info)

	app, err := sess.GetApplication(ctx, info.applicationID)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			return applications.Application{}, jobs.Job{}, s.abort(info, "application_not_found")
		}
		return applications.Application{}, jobs.Job{}, fmt.Errorf("load application: %w", err)
	}
	job, err := sess.GetJob(ctx, info.jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return applications.Application{}, jobs.Job{}, s.abort(info, "job_not_found")
		}
		return applications.Application{}, jobs.Job{}, fmt.Errorf("load job: %w", err)
	}
	return app, job, nil
}

// save writes the result in its own short session. It reports false when the
// application was reviewed by another run in the meantime.
func (s *Screener) save(ctx context.Context, info runInfo, result applications.ScreeningResult) (bool, error) {
	sess, err := s.Store.Begin(ctx)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			s.rollback(sess, info)
		}
	}()

	app, err := sess.GetApplication(ctx, info.applicationID)
	if err != nil {
		if errors.Is(err, applications.ErrNotFound) {
			return false, s.abort(info, "application_not_found")
		}
		return false, fmt.Errorf("reload application: %w", err)
	}
	if app.Screened() {
		s.duplicate(info)
		return false, nil
	}
	if err := sess.SaveResult(ctx, app.ID, result); err != nil {
		return false, fmt.Errorf("save screening result: %w", err)
	}
	if err := sess.Commit(); err != nil {
		return false, fmt.Errorf("commit screening result: %w", err)
	}
	committed = true
	return true, nil
}

func (s *Screener) rollback(sess Session, info runInfo) {
	if err := sess.Rollback(); err != nil {
		telemetry.Warn("screening.rollback_failed", info.fields(map[string]any{"error": err}))
	}
}

func (s *Screener) duplicate(info runInfo) {
	telemetry.Info("screening.duplicate", info.fields(nil))
	s.transition(info, stateRunning, stateDone, map[string]any{"reason": "already_reviewed"})
}

func (s *Screener) abort(info runInfo, reason string) error {
	metrics.IncScreeningAborted()
	s.transition(info, stateRunning, stateAborted, map[string]any{"reason": reason})
	return fmt.Errorf("%w: %s", ErrAborted, reason)
}

func (s *Screener) transition(info runInfo, from, to string, extra map[string]any) {
	fields := info.fields(extra)
	fields["status_transition"] = from + "->" + to
	if to == stateAborted {
		telemetry.Warn("screening.status", fields)
		return
	}
	telemetry.Info("screening.status", fields)
}

func (i runInfo) fields(extra map[string]any) map[string]any {
	fields := map[string]any{
		"application_id": i.applicationID,
		"job_id":         i.jobID,
	}
	if i.requestID != "" {
		fields["request_id"] = i.requestID
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

func (s *Screener) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
