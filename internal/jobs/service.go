package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/users"
)

// OwnerLookup resolves the user embedded in a job view.
type OwnerLookup interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

// ApplicationCounter reports how many applications reference a job.
type ApplicationCounter func(ctx context.Context, jobID string) (int, error)

type Service struct {
	Repo         Repo
	Owners       OwnerLookup
	Applications ApplicationCounter
	Now          func() time.Time
}

func NewService(repo Repo, owners OwnerLookup) *Service {
	return &Service{Repo: repo, Owners: owners, Now: time.Now}
}

// Input carries the full job form used on create.
type Input struct {
	Title                  string
	Role                   string
	Description            string
	Company                string
	Location               string
	RequiredSkills         []string
	RequiredCertifications []string
}

// Patch carries a partial update; nil fields are left unchanged.
type Patch struct {
	Title                  *string
	Role                   *string
	Description            *string
	Company                *string
	Location               *string
	RequiredSkills         *[]string
	RequiredCertifications *[]string
}

func (s *Service) Create(ctx context.Context, ownerID string, in Input) (Job, error) {
	if s == nil || s.Repo == nil {
		return Job{}, errors.New("jobs service not configured")
	}
	job := Job{
		ID:                     uuid.NewString(),
		Title:                  strings.TrimSpace(in.Title),
		Role:                   strings.TrimSpace(in.Role),
		Description:            strings.TrimSpace(in.Description),
		Company:                strings.TrimSpace(in.Company),
		Location:               strings.TrimSpace(in.Location),
		RequiredSkills:         cleanList(in.RequiredSkills),
		RequiredCertifications: cleanList(in.RequiredCertifications),
		OwnerID:                ownerID,
		CreatedAt:              s.now(),
	}
	if err := validate(job); err != nil {
		return Job{}, err
	}
	if strings.TrimSpace(ownerID) == "" {
		return Job{}, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	telemetry.Info("job.created", map[string]any{
		"job_id":   job.ID,
		"owner_id": ownerID,
	})
	return job, nil
}

func (s *Service) Get(ctx context.Context, jobID string) (Job, error) {
	if s == nil || s.Repo == nil {
		return Job{}, errors.New("jobs service not configured")
	}
	if strings.TrimSpace(jobID) == "" {
		return Job{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, jobID)
}

// GetView returns the job with its owner. A missing owner leaves Owner nil.
func (s *Service) GetView(ctx context.Context, jobID string) (View, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return View{}, err
	}
	return s.withOwner(ctx, job)
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]Job, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("jobs service not configured")
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.Repo.List(ctx, offset, limit)
}

// ListViews returns a page of jobs with owners embedded.
func (s *Service) ListViews(ctx context.Context, offset, limit int) ([]View, error) {
	list, err := s.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(list))
	for _, job := range list {
		view, err := s.withOwner(ctx, job)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, jobID string, p Patch) (Job, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return Job{}, err
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	apply(&job.Title, p.Title)
	apply(&job.Role, p.Role)
	apply(&job.Description, p.Description)
	apply(&job.Company, p.Company)
	apply(&job.Location, p.Location)
	if p.RequiredSkills != nil {
		job.RequiredSkills = cleanList(*p.RequiredSkills)
	}
	if p.RequiredCertifications != nil {
		job.RequiredCertifications = cleanList(*p.RequiredCertifications)
	}
	if err := validate(job); err != nil {
		return Job{}, err
	}
	if err := s.Repo.Update(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Delete removes a job that no application references.
func (s *Service) Delete(ctx context.Context, jobID string) error {
	if _, err := s.Get(ctx, jobID); err != nil {
		return err
	}
	if s.Applications != nil {
		n, err := s.Applications(ctx, jobID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasApplications
		}
	}
	if err := s.Repo.Delete(ctx, jobID); err != nil {
		return err
	}
	telemetry.Info("job.deleted", map[string]any{"job_id": jobID})
	return nil
}

// CountByOwner satisfies users.ReferenceCounter.
func (s *Service) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, errors.New("jobs service not configured")
	}
	return s.Repo.CountByOwner(ctx, ownerID)
}

func (s *Service) withOwner(ctx context.Context, job Job) (View, error) {
	view := View{Job: job}
	if s.Owners == nil {
		return view, nil
	}
	owner, err := s.Owners.GetByID(ctx, job.OwnerID)
	switch {
	case err == nil:
		pub := owner.Public()
		view.Owner = &pub
	case errors.Is(err, users.ErrNotFound):
	default:
		return View{}, err
	}
	return view, nil
}

func validate(job Job) error {
	switch {
	case job.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case job.Role == "":
		return fmt.Errorf("%w: role is required", ErrInvalidInput)
	case job.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	case job.Company == "":
		return fmt.Errorf("%w: company is required", ErrInvalidInput)
	case job.Location == "":
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	return nil
}

// cleanList trims entries and drops blanks. Order and duplicates are kept.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
