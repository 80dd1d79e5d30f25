package submissions

import (
	"context"
	"database/sql"
	"errors"

	"campaign-import/internal/catalog"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const submissionColumns = `id, submission_number, company_name, product_type, target_count, content_count, progress_percent, status, created_at, updated_at`

// LookupByNumbers fetches all known submissions among numbers in one query.
func (r *PGRepo) LookupByNumbers(ctx context.Context, numbers []string) ([]Submission, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	const query = `
SELECT ` + submissionColumns + `
FROM submissions
WHERE submission_number = ANY($1)`

	rows, err := r.DB.QueryContext(ctx, query, numbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns a submission by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Submission, error) {
	const query = `
SELECT ` + submissionColumns + `
FROM submissions
WHERE id = $1
LIMIT 1`
	s, err := scanSubmission(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	return s, nil
}

// UpdateProgress stores recomputed progress. An empty status keeps the current one.
func (r *PGRepo) UpdateProgress(ctx context.Context, u ProgressUpdate) error {
	const query = `
UPDATE submissions
SET content_count = $2,
    progress_percent = $3,
    status = COALESCE($4, status),
    updated_at = now()
WHERE id = $1`
	var status sql.NullString
	if u.Status != "" {
		status = sql.NullString{String: u.Status, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query, u.SubmissionID, u.ContentCount, u.ProgressPercent, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (Submission, error) {
	var s Submission
	var company sql.NullString
	var productType sql.NullString
	var status sql.NullString
	if err := row.Scan(
		&s.ID,
		&s.SubmissionNumber,
		&company,
		&productType,
		&s.TargetCount,
		&s.ContentCount,
		&s.ProgressPercent,
		&status,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return Submission{}, err
	}
	if company.Valid {
		s.CompanyName = company.String
	}
	if productType.Valid {
		s.ProductType = catalog.ProductType(productType.String)
	}
	if status.Valid {
		s.Status = status.String
	}
	return s, nil
}

var _ Repo = (*PGRepo)(nil)
