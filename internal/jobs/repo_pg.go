package jobs

import (
	"context"
	"database/sql"
	"errors"

	"jobboard-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB db.DBTX
}

const jobColumns = `id, title, role, description, company, location, required_skills, required_certifications, owner_id, created_at`

func (r *PGRepo) Create(ctx context.Context, job Job) error {
	skills, certs, err := encodeLists(job)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO jobs (id, title, role, description, company, location, required_skills, required_certifications, owner_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb, $9, $10)`
	_, err = r.DB.ExecContext(ctx, query,
		job.ID,
		job.Title,
		job.Role,
		job.Description,
		job.Company,
		job.Location,
		skills,
		certs,
		job.OwnerID,
		job.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	job, err := scanJob(r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 LIMIT 1`, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

func (r *PGRepo) List(ctx context.Context, offset, limit int) ([]Job, error) {
	const query = `
SELECT ` + jobColumns + `
FROM jobs
ORDER BY created_at DESC, id ASC
OFFSET $1 LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, job Job) error {
	skills, certs, err := encodeLists(job)
	if err != nil {
		return err
	}
	const query = `
UPDATE jobs
SET title = $2,
    role = $3,
    description = $4,
    company = $5,
    location = $6,
    required_skills = $7::jsonb,
    required_certifications = $8::jsonb
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.Title,
		job.Role,
		job.Description,
		job.Company,
		job.Location,
		skills,
		certs,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) Delete(ctx context.Context, jobID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, jobID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrHasApplications
		}
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (Job, error) {
	var job Job
	var skills, certs []byte
	if err := row.Scan(
		&job.ID,
		&job.Title,
		&job.Role,
		&job.Description,
		&job.Company,
		&job.Location,
		&skills,
		&certs,
		&job.OwnerID,
		&job.CreatedAt,
	); err != nil {
		return Job{}, err
	}
	var err error
	if job.RequiredSkills, err = db.ParseStringList(skills); err != nil {
		return Job{}, err
	}
	if job.RequiredCertifications, err = db.ParseStringList(certs); err != nil {
		return Job{}, err
	}
	return job, nil
}

func encodeLists(job Job) (string, string, error) {
	skills, err := db.StringList(job.RequiredSkills)
	if err != nil {
		return "", "", err
	}
	certs, err := db.StringList(job.RequiredCertifications)
	if err != nil {
		return "", "", err
	}
	return skills, certs, nil
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
