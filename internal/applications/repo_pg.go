package applications

import (
	"context"
	"database/sql"
	"errors"

	"jobboard-backend/internal/shared/storage/db"
)

// PGRepo runs against a *sql.DB or, inside a screening session, a *sql.Tx.
type PGRepo struct {
	DB db.DBTX
}

const applicationColumns = `id, job_id, candidate_id, cover_letter, skills, certifications, resume_path, resume_text, status, ai_reasoning, submitted_at, reviewed_at`

func (r *PGRepo) Create(ctx context.Context, app Application) error {
	skills, err := db.StringList(app.Skills)
	if err != nil {
		return err
	}
	certs, err := db.StringList(app.Certifications)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO applications (id, job_id, candidate_id, cover_letter, skills, certifications, resume_path, resume_text, status, ai_reasoning, submitted_at, reviewed_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9, NULL, $10, NULL)`
	_, err = r.DB.ExecContext(ctx, query,
		app.ID,
		app.JobID,
		app.CandidateID,
		app.CoverLetter,
		skills,
		certs,
		app.ResumePath,
		app.ResumeText,
		string(app.Status),
		app.SubmittedAt,
	)
	if db.IsForeignKeyViolation(err) {
		return ErrJobNotFound
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, applicationID string) (Application, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1 LIMIT 1`, applicationID)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

func (r *PGRepo) List(ctx context.Context, offset, limit int) ([]Application, error) {
	const query = `
SELECT ` + applicationColumns + `
FROM applications
ORDER BY submitted_at DESC, id ASC
OFFSET $1 LIMIT $2`
	return r.query(ctx, query, offset, limit)
}

func (r *PGRepo) ListByCandidate(ctx context.Context, candidateID string, offset, limit int) ([]Application, error) {
	const query = `
SELECT ` + applicationColumns + `
FROM applications
WHERE candidate_id = $1
ORDER BY submitted_at DESC, id ASC
OFFSET $2 LIMIT $3`
	return r.query(ctx, query, candidateID, offset, limit)
}

func (r *PGRepo) UpdateReview(ctx context.Context, applicationID string, status Status, reasoning *string) error {
	var aiReasoning sql.NullString
	if reasoning != nil {
		aiReasoning = sql.NullString{String: *reasoning, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE applications SET status = $2, ai_reasoning = $3 WHERE id = $1`,
		applicationID,
		string(status),
		aiReasoning,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) SaveScreeningResult(ctx context.Context, applicationID string, result ScreeningResult) error {
	const query = `
UPDATE applications
SET resume_text = $2,
    status = $3,
    ai_reasoning = $4,
    reviewed_at = $5
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		applicationID,
		result.ResumeText,
		string(result.Status),
		result.Reasoning,
		result.ReviewedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) Delete(ctx context.Context, applicationID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, applicationID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) CountByJob(ctx context.Context, jobID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM applications WHERE job_id = $1`, jobID)
}

func (r *PGRepo) CountByCandidate(ctx context.Context, candidateID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM applications WHERE candidate_id = $1`, candidateID)
}

func (r *PGRepo) count(ctx context.Context, query string, arg string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PGRepo) query(ctx context.Context, query string, args ...any) ([]Application, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (Application, error) {
	var app Application
	var status string
	var skills, certs []byte
	var reasoning sql.NullString
	var reviewedAt sql.NullTime
	if err := row.Scan(
		&app.ID,
		&app.JobID,
		&app.CandidateID,
		&app.CoverLetter,
		&skills,
		&certs,
		&app.ResumePath,
		&app.ResumeText,
		&status,
		&reasoning,
		&app.SubmittedAt,
		&reviewedAt,
	); err != nil {
		return Application{}, err
	}
	app.Status = Status(status)
	if reasoning.Valid {
		r := reasoning.String
		app.AIReasoning = &r
	}
	if reviewedAt.Valid {
		at := reviewedAt.Time
		app.ReviewedAt = &at
	}
	var err error
	if app.Skills, err = db.ParseStringList(skills); err != nil {
		return Application{}, err
	}
	if app.Certifications, err = db.ParseStringList(certs); err != nil {
		return Application{}, err
	}
	return app, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
