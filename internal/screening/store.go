package screening

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"jobboard-backend/internal/applications"
	"jobboard-backend/internal/jobs"
)

// Store opens one storage session per screening run.
type Store interface {
	Begin(ctx context.Context) (Session, error)
}

// Session is the unit of work of a screening run. Nothing written through
// SaveResult is visible until Commit.
type Session interface {
	GetApplication(ctx context.Context, applicationID string) (applications.Application, error)
	GetJob(ctx context.Context, jobID string) (jobs.Job, error)
	SaveResult(ctx context.Context, applicationID string, result applications.ScreeningResult) error
	Commit() error
	Rollback() error
}

// PGStore runs each session in a Postgres transaction.
type PGStore struct {
	DB *sql.DB
}

func (s *PGStore) Begin(ctx context.Context) (Session, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("screening store not configured")
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin screening tx: %w", err)
	}
	return &pgSession{
		tx:   tx,
		apps: &applications.PGRepo{DB: tx},
		jobs: &jobs.PGRepo{DB: tx},
	}, nil
}

type pgSession struct {
	tx   *sql.Tx
	apps *applications.PGRepo
	jobs *jobs.PGRepo
}

func (s *pgSession) GetApplication(ctx context.Context, applicationID string) (applications.Application, error) {
	return s.apps.GetByID(ctx, applicationID)
}

func (s *pgSession) GetJob(ctx context.Context, jobID string) (jobs.Job, error) {
	return s.jobs.GetByID(ctx, jobID)
}

func (s *pgSession) SaveResult(ctx context.Context, applicationID string, result applications.ScreeningResult) error {
	return s.apps.SaveScreeningResult(ctx, applicationID, result)
}

func (s *pgSession) Commit() error {
	return s.tx.Commit()
}

func (s *pgSession) Rollback() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// RepoStore adapts plain repositories. Writes are staged and applied on Commit.
type RepoStore struct {
	Applications applications.Repo
	Jobs         jobs.Repo
}

func (s *RepoStore) Begin(ctx context.Context) (Session, error) {
	if s == nil || s.Applications == nil || s.Jobs == nil {
		return nil, errors.New("screening store not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &repoSession{ctx: ctx, store: s}, nil
}

type stagedResult struct {
	applicationID string
	result        applications.ScreeningResult
}

type repoSession struct {
	ctx    context.Context
	store  *RepoStore
	mu     sync.Mutex
	staged []stagedResult
	done   bool
}

func (s *repoSession) GetApplication(ctx context.Context, applicationID string) (applications.Application, error) {
	return s.store.Applications.GetByID(ctx, applicationID)
}

func (s *repoSession) GetJob(ctx context.Context, jobID string) (jobs.Job, error) {
	return s.store.Jobs.GetByID(ctx, jobID)
}

func (s *repoSession) SaveResult(ctx context.Context, applicationID string, result applications.ScreeningResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return sql.ErrTxDone
	}
	s.staged = append(s.staged, stagedResult{applicationID: applicationID, result: result})
	return nil
}

func (s *repoSession) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return sql.ErrTxDone
	}
	s.done = true
	for _, w := range s.staged {
		if err := s.store.Applications.SaveScreeningResult(s.ctx, w.applicationID, w.result); err != nil {
			return err
		}
	}
	s.staged = nil
	return nil
}

func (s *repoSession) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.staged = nil
	return nil
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*RepoStore)(nil)
)
