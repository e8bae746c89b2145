package applications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"jobboard-backend/internal/jobs"
	localstore "jobboard-backend/internal/shared/storage/object/local"
	"jobboard-backend/internal/users"
)

type scheduled struct {
	applicationID string
	jobID         string
}

type recordingScheduler struct {
	mu    sync.Mutex
	calls []scheduled
}

func (r *recordingScheduler) Schedule(_ context.Context, applicationID, jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, scheduled{applicationID: applicationID, jobID: jobID})
}

type recordingNotifier struct {
	statuses []Status
}

func (r *recordingNotifier) Dispatch(_ context.Context, _ Application, status Status) {
	r.statuses = append(r.statuses, status)
}

type fixture struct {
	svc       *Service
	store     *localstore.Store
	scheduler *recordingScheduler
	notifier  *recordingNotifier
	job       jobs.Job
	candidate users.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	userRepo := users.NewMemoryRepo()
	candidate := users.User{ID: "cand-1", Name: "Casey", Username: "casey", Email: "casey@example.com", Role: users.RoleCandidate}
	if err := userRepo.Create(ctx, candidate); err != nil {
		t.Fatalf("create candidate: %v", err)
	}
	jobSvc := jobs.NewService(jobs.NewMemoryRepo(), userRepo)
	job, err := jobSvc.Create(ctx, "admin-1", jobs.Input{
		Title:          "Engineer",
		Role:           "Backend",
		Description:    "Build services",
		Company:        "Acme",
		Location:       "Remote",
		RequiredSkills: []string{"Go", "SQL"},
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	store := localstore.New(t.TempDir())
	scheduler := &recordingScheduler{}
	notifier := &recordingNotifier{}
	svc := &Service{
		Repo:       NewMemoryRepo(),
		Store:      store,
		Jobs:       jobSvc,
		Candidates: userRepo,
		Scheduler:  scheduler,
		Notifier:   notifier,
		Now:        func() time.Time { return time.Date(2026, time.May, 5, 12, 0, 0, 0, time.UTC) },
	}
	return fixture{svc: svc, store: store, scheduler: scheduler, notifier: notifier, job: job, candidate: candidate}
}

func (f fixture) submit(t *testing.T) Application {
	t.Helper()
	app, err := f.svc.Submit(context.Background(), SubmitInput{
		JobID:       f.job.ID,
		CandidateID: f.candidate.ID,
		CoverLetter: "Hire me",
		Skills:      []string{"Go"},
		FileName:    "cv.txt",
		Resume:      strings.NewReader("Go and SQL"),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return app
}

func TestSubmitCreatesPendingAndSchedules(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)

	if app.Status != StatusPending || app.ResumeText != "" || app.ReviewedAt != nil || app.AIReasoning != nil {
		t.Fatalf("expected untouched pending application, got %+v", app)
	}
	if !strings.HasPrefix(app.ResumePath, ResumeNamespace+"/") || !strings.HasSuffix(app.ResumePath, ".txt") {
		t.Fatalf("unexpected resume path %q", app.ResumePath)
	}
	if app.Certifications == nil {
		t.Fatalf("expected empty certifications slice")
	}
	if len(f.scheduler.calls) != 1 || f.scheduler.calls[0] != (scheduled{app.ID, f.job.ID}) {
		t.Fatalf("expected one schedule call, got %+v", f.scheduler.calls)
	}

	body, err := f.store.Open(context.Background(), app.ResumePath)
	if err != nil {
		t.Fatalf("resume not stored: %v", err)
	}
	body.Close()
}

func TestSubmitUnknownJob(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit(context.Background(), SubmitInput{
		JobID:       "missing",
		CandidateID: f.candidate.ID,
		FileName:    "cv.txt",
		Resume:      strings.NewReader("x"),
	})
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if len(f.scheduler.calls) != 0 {
		t.Fatalf("expected no screening for unknown job")
	}
}

func TestUpdateNotifiesOnlyFinalStatuses(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)
	ctx := context.Background()

	reasoning := "Manual review"
	pending := "pending"
	view, previous, err := f.svc.Update(ctx, app.ID, Patch{Status: &pending, AIReasoning: &reasoning})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if previous != StatusPending || view.Status != StatusPending || *view.AIReasoning != reasoning {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(f.notifier.statuses) != 0 {
		t.Fatalf("expected no notification for PENDING")
	}

	accepted := "ACCEPTED"
	view, _, err = f.svc.Update(ctx, app.ID, Patch{Status: &accepted})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if view.Status != StatusAccepted || view.ReviewedAt != nil {
		t.Fatalf("manual update must not set reviewed_at, got %+v", view)
	}
	if len(f.notifier.statuses) != 1 || f.notifier.statuses[0] != StatusAccepted {
		t.Fatalf("expected one ACCEPTED notification, got %v", f.notifier.statuses)
	}
	if view.Job == nil || view.Candidate == nil || view.Candidate.Username != "casey" {
		t.Fatalf("expected embedded job and candidate, got %+v", view)
	}

	bogus := "MAYBE"
	if _, _, err := f.svc.Update(ctx, app.ID, Patch{Status: &bogus}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if len(f.scheduler.calls) != 1 {
		t.Fatalf("manual update must not reschedule screening")
	}
}

func TestGetForChecksOwnership(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)
	ctx := context.Background()

	if _, err := f.svc.GetFor(ctx, app.ID, f.candidate.ID, false); err != nil {
		t.Fatalf("owner GetFor: %v", err)
	}
	if _, err := f.svc.GetFor(ctx, app.ID, "someone-else", false); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.GetFor(ctx, app.ID, "admin-1", true); err != nil {
		t.Fatalf("admin GetFor: %v", err)
	}
}

func TestDeleteRemovesResume(t *testing.T) {
	f := newFixture(t)
	app := f.submit(t)
	ctx := context.Background()

	if n, _ := f.svc.CountByJob(ctx, f.job.ID); n != 1 {
		t.Fatalf("expected one application for job, got %d", n)
	}
	if err := f.svc.Delete(ctx, app.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.store.Open(ctx, app.ResumePath); err == nil {
		t.Fatalf("expected resume to be removed")
	}
	if _, err := f.svc.Get(ctx, app.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoSaveScreeningResult(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, Application{ID: "a-1", Status: StatusPending}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	at := time.Date(2026, time.May, 5, 12, 30, 0, 0, time.UTC)
	if err := repo.SaveScreeningResult(ctx, "a-1", ScreeningResult{ResumeText: "cv", Status: StatusRejected, Reasoning: "No match", ReviewedAt: at}); err != nil {
		t.Fatalf("SaveScreeningResult: %v", err)
	}
	got, err := repo.GetByID(ctx, "a-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusRejected || got.ResumeText != "cv" || !got.Screened() || !got.ReviewedAt.Equal(at) {
		t.Fatalf("unexpected record %+v", got)
	}
	if err := repo.SaveScreeningResult(ctx, "missing", ScreeningResult{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
