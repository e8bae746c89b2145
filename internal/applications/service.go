package applications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard-backend/internal/jobs"
	"jobboard-backend/internal/shared/storage/object"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/users"
)

// ResumeNamespace prefixes every stored resume key.
const ResumeNamespace = "resumes"

// Scheduler starts screening for a freshly created application. It must not
// block on the screening work.
type Scheduler interface {
	Schedule(ctx context.Context, applicationID, jobID string)
}

// Notifier delivers a status-change message for a manual decision.
type Notifier interface {
	Dispatch(ctx context.Context, app Application, status Status)
}

// JobLookup resolves the job embedded in a view.
type JobLookup interface {
	GetView(ctx context.Context, jobID string) (jobs.View, error)
}

// CandidateLookup resolves the candidate embedded in a view.
type CandidateLookup interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

type Service struct {
	Repo       Repo
	Store      object.ObjectStore
	Jobs       JobLookup
	Candidates CandidateLookup
	Scheduler  Scheduler
	Notifier   Notifier
	Now        func() time.Time
}

// SubmitInput carries one multipart application.
type SubmitInput struct {
	JobID          string
	CandidateID    string
	CoverLetter    string
	Skills         []string
	Certifications []string
	FileName       string
	Resume         io.Reader
}

// Patch is the admin update; nil fields are left unchanged.
type Patch struct {
	Status      *string
	AIReasoning *string
}

// Submit stores the resume, records a PENDING application and schedules screening.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Application, error) {
	if s == nil || s.Repo == nil || s.Store == nil {
		return Application{}, errors.New("applications service not configured")
	}
	if strings.TrimSpace(in.CandidateID) == "" {
		return Application{}, fmt.Errorf("%w: candidate is required", ErrInvalidInput)
	}
	if in.Resume == nil || strings.TrimSpace(in.FileName) == "" {
		return Application{}, fmt.Errorf("%w: resume_file is required", ErrInvalidInput)
	}
	if s.Jobs != nil {
		if _, err := s.Jobs.GetView(ctx, in.JobID); err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				return Application{}, ErrJobNotFound
			}
			return Application{}, err
		}
	}

	stored, err := s.Store.Save(ctx, ResumeNamespace, in.CandidateID, in.FileName, in.Resume)
	if err != nil {
		return Application{}, fmt.Errorf("save resume: %w", err)
	}

	app := Application{
		ID:             uuid.NewString(),
		JobID:          in.JobID,
		CandidateID:    in.CandidateID,
		CoverLetter:    in.CoverLetter,
		Skills:         nonNil(in.Skills),
		Certifications: nonNil(in.Certifications),
		ResumePath:     stored.Key,
		Status:         StatusPending,
		SubmittedAt:    s.now(),
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		s.removeResume(ctx, stored.Key)
		return Application{}, err
	}

	telemetry.Info("application.submitted", map[string]any{
		"application_id": app.ID,
		"job_id":         app.JobID,
		"candidate_id":   app.CandidateID,
		"resume_bytes":   stored.Size,
	})
	if s.Scheduler != nil {
		s.Scheduler.Schedule(ctx, app.ID, app.JobID)
	}
	return app, nil
}

func (s *Service) Get(ctx context.Context, applicationID string) (Application, error) {
	if s == nil || s.Repo == nil {
		return Application{}, errors.New("applications service not configured")
	}
	if strings.TrimSpace(applicationID) == "" {
		return Application{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, applicationID)
}

// GetFor returns the application when requesterID owns it or isAdmin is set.
func (s *Service) GetFor(ctx context.Context, applicationID, requesterID string, isAdmin bool) (View, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return View{}, err
	}
	if !isAdmin && app.CandidateID != requesterID {
		return View{}, ErrForbidden
	}
	return s.view(ctx, app)
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]View, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("applications service not configured")
	}
	offset, limit = clampPage(offset, limit)
	list, err := s.Repo.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, list)
}

func (s *Service) ListByCandidate(ctx context.Context, candidateID string, offset, limit int) ([]View, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("applications service not configured")
	}
	offset, limit = clampPage(offset, limit)
	list, err := s.Repo.ListByCandidate(ctx, candidateID, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, list)
}

// Update applies a manual review. It never schedules screening. A status of
// ACCEPTED or REJECTED is handed to the notifier.
func (s *Service) Update(ctx context.Context, applicationID string, p Patch) (View, Status, error) {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return View{}, "", err
	}
	previous := app.Status
	if p.Status == nil && p.AIReasoning == nil {
		view, err := s.view(ctx, app)
		return view, previous, err
	}

	if p.Status != nil {
		status, ok := ParseStatus(*p.Status)
		if !ok {
			return View{}, "", ErrInvalidStatus
		}
		app.Status = status
	}
	if p.AIReasoning != nil {
		reasoning := *p.AIReasoning
		app.AIReasoning = &reasoning
	}
	if err := s.Repo.UpdateReview(ctx, app.ID, app.Status, app.AIReasoning); err != nil {
		return View{}, "", err
	}

	telemetry.Info("application.reviewed", map[string]any{
		"application_id":    app.ID,
		"status_transition": string(previous) + "->" + string(app.Status),
	})
	if p.Status != nil && app.Status.Final() && s.Notifier != nil {
		s.Notifier.Dispatch(ctx, app, app.Status)
	}
	view, err := s.view(ctx, app)
	return view, previous, err
}

// Delete removes the application and its stored resume.
func (s *Service) Delete(ctx context.Context, applicationID string) error {
	app, err := s.Get(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, app.ID); err != nil {
		return err
	}
	s.removeResume(ctx, app.ResumePath)
	return nil
}

// CountByJob satisfies jobs.ApplicationCounter.
func (s *Service) CountByJob(ctx context.Context, jobID string) (int, error) {
	return s.Repo.CountByJob(ctx, jobID)
}

// CountByCandidate satisfies users.ReferenceCounter.
func (s *Service) CountByCandidate(ctx context.Context, candidateID string) (int, error) {
	return s.Repo.CountByCandidate(ctx, candidateID)
}

func (s *Service) views(ctx context.Context, list []Application) ([]View, error) {
	out := make([]View, 0, len(list))
	for _, app := range list {
		view, err := s.view(ctx, app)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// view embeds job and candidate. Records that vanished are left out.
func (s *Service) view(ctx context.Context, app Application) (View, error) {
	view := View{Application: app}
	if s.Jobs != nil {
		job, err := s.Jobs.GetView(ctx, app.JobID)
		switch {
		case err == nil:
			view.Job = &job
		case errors.Is(err, jobs.ErrNotFound):
		default:
			return View{}, err
		}
	}
	if s.Candidates != nil {
		candidate, err := s.Candidates.GetByID(ctx, app.CandidateID)
		switch {
		case err == nil:
			pub := candidate.Public()
			view.Candidate = &pub
		case errors.Is(err, users.ErrNotFound):
		default:
			return View{}, err
		}
	}
	return view, nil
}

func (s *Service) removeResume(ctx context.Context, key string) {
	if key == "" || s.Store == nil {
		return
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("application.resume_delete_failed", map[string]any{
			"storage_key": key,
			"error":       err,
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return offset, limit
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
