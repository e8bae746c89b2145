package applications

import "context"

type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, applicationID string) (Application, error)
	List(ctx context.Context, offset, limit int) ([]Application, error)
	ListByCandidate(ctx context.Context, candidateID string, offset, limit int) ([]Application, error)
	// UpdateReview is the manual admin write of status and reasoning.
	UpdateReview(ctx context.Context, applicationID string, status Status, reasoning *string) error
	// SaveScreeningResult is the automatic screener write.
	SaveScreeningResult(ctx context.Context, applicationID string, result ScreeningResult) error
	Delete(ctx context.Context, applicationID string) error
	CountByJob(ctx context.Context, jobID string) (int, error)
	CountByCandidate(ctx context.Context, candidateID string) (int, error)
}
