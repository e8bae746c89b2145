package applications

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	apps map[string]Application
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{apps: make(map[string]Application)}
}

func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.ID] = app.clone()
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, applicationID string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[applicationID]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app.clone(), nil
}

func (r *MemoryRepo) List(ctx context.Context, offset, limit int) ([]Application, error) {
	return r.filter(ctx, offset, limit, func(Application) bool { return true })
}

func (r *MemoryRepo) ListByCandidate(ctx context.Context, candidateID string, offset, limit int) ([]Application, error) {
	return r.filter(ctx, offset, limit, func(a Application) bool { return a.CandidateID == candidateID })
}

func (r *MemoryRepo) UpdateReview(ctx context.Context, applicationID string, status Status, reasoning *string) error {
	return r.mutate(ctx, applicationID, func(app *Application) {
		app.Status = status
		app.AIReasoning = reasoning
	})
}

func (r *MemoryRepo) SaveScreeningResult(ctx context.Context, applicationID string, result ScreeningResult) error {
	return r.mutate(ctx, applicationID, func(app *Application) {
		reasoning := result.Reasoning
		reviewedAt := result.ReviewedAt
		app.ResumeText = result.ResumeText
		app.Status = result.Status
		app.AIReasoning = &reasoning
		app.ReviewedAt = &reviewedAt
	})
}

func (r *MemoryRepo) Delete(ctx context.Context, applicationID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[applicationID]; !ok {
		return ErrNotFound
	}
	delete(r.apps, applicationID)
	return nil
}

func (r *MemoryRepo) CountByJob(ctx context.Context, jobID string) (int, error) {
	return r.count(ctx, func(a Application) bool { return a.JobID == jobID })
}

func (r *MemoryRepo) CountByCandidate(ctx context.Context, candidateID string) (int, error) {
	return r.count(ctx, func(a Application) bool { return a.CandidateID == candidateID })
}

func (r *MemoryRepo) mutate(ctx context.Context, applicationID string, fn func(*Application)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[applicationID]
	if !ok {
		return ErrNotFound
	}
	fn(&app)
	r.apps[applicationID] = app.clone()
	return nil
}

func (r *MemoryRepo) filter(ctx context.Context, offset, limit int, match func(Application) bool) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Application{}
	for _, app := range r.apps {
		if match(app) {
			out = append(out, app.clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if offset >= len(out) {
		return []Application{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r *MemoryRepo) count(ctx context.Context, match func(Application) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, app := range r.apps {
		if match(app) {
			n++
		}
	}
	return n, nil
}

var _ Repo = (*MemoryRepo)(nil)
