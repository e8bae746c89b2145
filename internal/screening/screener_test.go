package screening

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/llm"
	localstore "jobboard-backend/internal/shared/storage/object/local"
)

type env struct {
	apps     *applications.MemoryRepo
	jobs     *jobs.MemoryRepo
	objects  *localstore.Store
	screener *Screener
	calls    *int32
	app      applications.Application
	job      jobs.Job
}

var reviewTime = time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC)

func newEnv(t *testing.T, reply func(ctx context.Context) (string, error)) env {
	t.Helper()
	ctx := context.Background()
	appsRepo := applications.NewMemoryRepo()
	jobsRepo := jobs.NewMemoryRepo()
	objects := localstore.New(t.TempDir())

	job := jobs.Job{ID: "job-1", Title: "Engineer", RequiredSkills: []string{"Go", "SQL"}, OwnerID: "admin-1"}
	if err := jobsRepo.Create(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	stored, err := objects.Save(ctx, applications.ResumeNamespace, "cand-1", "cv.txt", strings.NewReader("Go and SQL for 5 years"))
	if err != nil {
		t.Fatalf("save resume: %v", err)
	}
	app := applications.Application{
		ID:          "app-1",
		JobID:       job.ID,
		CandidateID: "cand-1",
		Skills:      []string{"Go"},
		ResumePath:  stored.Key,
		Status:      applications.StatusPending,
	}
	if err := appsRepo.Create(ctx, app); err != nil {
		t.Fatalf("create application: %v", err)
	}

	var calls int32
	completer := llm.CompleterFunc(func(ctx context.Context, _ string) (string, error) {
		atomic.AddInt32(&calls, 1)
		return reply(ctx)
	})
	screener := NewScreener(&RepoStore{Applications: appsRepo, Jobs: jobsRepo}, objects, NewRequester(completer, 50*time.Millisecond))
	screener.Now = func() time.Time { return reviewTime }
	return env{apps: appsRepo, jobs: jobsRepo, objects: objects, screener: screener, calls: &calls, app: app, job: job}
}

func (e env) reload(t *testing.T) applications.Application {
	t.Helper()
	got, err := e.apps.GetByID(context.Background(), e.app.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	return got
}

func TestRunAcceptedScenario(t *testing.T) {
	e := newEnv(t, func(context.Context) (string, error) {
		return `{"decision":"accepted","reasoning":"Matches core skills"}`, nil
	})

	if err := e.screener.Run(context.Background(), e.app.ID, e.job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := e.reload(t)
	if got.Status != applications.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", got.Status)
	}
	if got.AIReasoning == nil || *got.AIReasoning != "Matches core skills" {
		t.Fatalf("unexpected reasoning %v", got.AIReasoning)
	}
	if got.ReviewedAt == nil || !got.ReviewedAt.Equal(reviewTime) {
		t.Fatalf("expected reviewed_at %v, got %v", reviewTime, got.ReviewedAt)
	}
	if got.ResumeText != "Go and SQL for 5 years" {
		t.Fatalf("expected extracted resume text, got %q", got.ResumeText)
	}
}

func TestRunTimeoutScenario(t *testing.T) {
	e := newEnv(t, func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	if err := e.screener.Run(context.Background(), e.app.ID, e.job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := e.reload(t)
	if got.Status != applications.StatusPending {
		t.Fatalf("expected PENDING, got %s", got.Status)
	}
	if got.AIReasoning == nil || !strings.Contains(*got.AIReasoning, "failed") {
		t.Fatalf("expected failure reasoning, got %v", got.AIReasoning)
	}
	if got.ReviewedAt == nil {
		t.Fatalf("expected reviewed_at to be set after a completed run")
	}
}

func TestRunDeletedJobScenario(t *testing.T) {
	e := newEnv(t, func(context.Context) (string, error) {
		return `{"decision":"ACCEPTED","reasoning":"x"}`, nil
	})
	if err := e.jobs.Delete(context.Background(), e.job.ID); err != nil {
		t.Fatalf("delete job: %v", err)
	}

	err := e.screener.Run(context.Background(), e.app.ID, e.job.ID)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	got := e.reload(t)
	if got.Status != applications.StatusPending || got.ReviewedAt != nil || got.AIReasoning != nil {
		t.Fatalf("expected untouched application, got %+v", got)
	}
	if atomic.LoadInt32(e.calls) != 0 {
		t.Fatalf("expected no decision call")
	}
}

func TestRunMissingApplicationAborts(t *testing.T) {
	e := newEnv(t, func(context.Context) (string, error) { return `{}`, nil })
	if err := e.screener.Run(context.Background(), "nope", e.job.ID); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRunTwiceIsGuarded(t *testing.T) {
	replies := []string{
		`{"decision":"REJECTED","reasoning":"first"}`,
		`{"decision":"ACCEPTED","reasoning":"second"}`,
	}
	var n int32
	e := newEnv(t, func(context.Context) (string, error) {
		i := atomic.AddInt32(&n, 1) - 1
		return replies[i], nil
	})

	ctx := context.Background()
	if err := e.screener.Run(ctx, e.app.ID, e.job.ID); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := e.screener.Run(ctx, e.app.ID, e.job.ID); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	got := e.reload(t)
	if got.Status != applications.StatusRejected || *got.AIReasoning != "first" {
		t.Fatalf("second run must not overwrite, got %+v", got)
	}
	if atomic.LoadInt32(e.calls) != 1 {
		t.Fatalf("expected exactly one decision call, got %d", atomic.LoadInt32(e.calls))
	}
}

func TestRunUnreadableResumeStillDecides(t *testing.T) {
	var prompt string
	e := newEnv(t, func(context.Context) (string, error) {
		return `{"decision":"PENDING","reasoning":"Resume unreadable"}`, nil
	})
	stored, err := e.objects.Save(context.Background(), applications.ResumeNamespace, "cand-2", "broken.pdf", strings.NewReader("not a pdf"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	app := applications.Application{ID: "app-2", JobID: e.job.ID, CandidateID: "cand-2", ResumePath: stored.Key, Status: applications.StatusPending}
	if err := e.apps.Create(context.Background(), app); err != nil {
		t.Fatalf("create: %v", err)
	}
	e.screener.Decider = NewRequester(llm.CompleterFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return `{"decision":"PENDING","reasoning":"Resume unreadable"}`, nil
	}), time.Second)

	if err := e.screener.Run(context.Background(), app.ID, e.job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := e.apps.GetByID(context.Background(), app.ID)
	if !strings.HasPrefix(got.ResumeText, "Error: Could not parse resume file. ") {
		t.Fatalf("expected placeholder resume text, got %q", got.ResumeText)
	}
	if !strings.Contains(prompt, "Error: Could not parse resume file.") {
		t.Fatalf("expected placeholder to flow into the prompt")
	}
}

type panickingDecider struct{}

func (panickingDecider) Decide(context.Context, jobs.Job, applications.Application, string) Result {
	panic("decider exploded")
}

func TestRunRecoversPanicAndRollsBack(t *testing.T) {
	e := newEnv(t, func(context.Context) (string, error) { return `{}`, nil })
	e.screener.Decider = panickingDecider{}

	err := e.screener.Run(context.Background(), e.app.ID, e.job.ID)
	if err == nil || !strings.Contains(err.Error(), "decider exploded") {
		t.Fatalf("expected panic error, got %v", err)
	}
	if got := e.reload(t); got.Status != applications.StatusPending || got.ReviewedAt != nil {
		t.Fatalf("expected untouched application, got %+v", got)
	}
}

type countingStore struct {
	inner Store
	open  int32
}

func (c *countingStore) Begin(ctx context.Context) (Session, error) {
	sess, err := c.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	atomic.AddInt32(&c.open, 1)
	return &countingSession{Session: sess, store: c}, nil
}

type countingSession struct {
	Session
	store  *countingStore
	closed bool
}

func (s *countingSession) Commit() error {
	s.release()
	return s.Session.Commit()
}

func (s *countingSession) Rollback() error {
	s.release()
	return s.Session.Rollback()
}

func (s *countingSession) release() {
	if !s.closed {
		s.closed = true
		atomic.AddInt32(&s.store.open, -1)
	}
}

func TestRunHoldsNoSessionDuringDecision(t *testing.T) {
	var openDuringDecide int32 = -1
	e := newEnv(t, func(context.Context) (string, error) {
		return `{"decision":"ACCEPTED","reasoning":"ok"}`, nil
	})
	store := &countingStore{inner: e.screener.Store}
	e.screener.Store = store
	e.screener.Decider = NewRequester(llm.CompleterFunc(func(context.Context, string) (string, error) {
		atomic.StoreInt32(&openDuringDecide, atomic.LoadInt32(&store.open))
		return `{"decision":"ACCEPTED","reasoning":"ok"}`, nil
	}), time.Second)

	if err := e.screener.Run(context.Background(), e.app.ID, e.job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := atomic.LoadInt32(&openDuringDecide); got != 0 {
		t.Fatalf("expected no open session during the decision call, got %d", got)
	}
	if got := atomic.LoadInt32(&store.open); got != 0 {
		t.Fatalf("expected every session closed after Run, got %d", got)
	}
	if got := e.reload(t); got.Status != applications.StatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", got.Status)
	}
}

func TestRunKeepsResultWrittenDuringDecision(t *testing.T) {
	e := newEnv(t, func(context.Context) (string, error) {
		return `{"decision":"ACCEPTED","reasoning":"late"}`, nil
	})
	e.screener.Decider = NewRequester(llm.CompleterFunc(func(ctx context.Context, _ string) (string, error) {
		if err := e.apps.SaveScreeningResult(ctx, e.app.ID, applications.ScreeningResult{
			Status:     applications.StatusRejected,
			Reasoning:  "earlier",
			ReviewedAt: reviewTime,
		}); err != nil {
			return "", err
		}
		return `{"decision":"ACCEPTED","reasoning":"late"}`, nil
	}), time.Second)

	if err := e.screener.Run(context.Background(), e.app.ID, e.job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := e.reload(t)
	if got.Status != applications.StatusRejected || got.AIReasoning == nil || *got.AIReasoning != "earlier" {
		t.Fatalf("expected the earlier result to stand, got %+v", got)
	}
}

func TestRunNonUTF8ResumeStoresPlaceholder(t *testing.T) {
	e := newEnv(t, func(context.Context) (string, error) {
		return `{"decision":"PENDING","reasoning":"Resume unreadable"}`, nil
	})
	var prompt string
	e.screener.Decider = NewRequester(llm.CompleterFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return `{"decision":"PENDING","reasoning":"Resume unreadable"}`, nil
	}), time.Second)
	stored, err := e.objects.Save(context.Background(), applications.ResumeNamespace, "cand-3", "cv.txt", strings.NewReader("R\xe9sum\xe9 Go SQL"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	app := applications.Application{ID: "app-3", JobID: e.job.ID, CandidateID: "cand-3", ResumePath: stored.Key, Status: applications.StatusPending}
	if err := e.apps.Create(context.Background(), app); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := e.screener.Run(context.Background(), app.ID, e.job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := e.apps.GetByID(context.Background(), app.ID)
	if !strings.HasPrefix(got.ResumeText, "Error: Could not parse resume file. ") || !utf8.ValidString(got.ResumeText) {
		t.Fatalf("expected valid placeholder resume text, got %q", got.ResumeText)
	}
	if !utf8.ValidString(prompt) {
		t.Fatalf("expected a valid UTF-8 prompt")
	}
	if got.ReviewedAt == nil {
		t.Fatalf("expected screening to complete")
	}
}
