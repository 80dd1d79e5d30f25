package content

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"campaign-import/internal/catalog"
)

// tables lists the content tables created by migrations. Storage keys are
// interpolated into SQL, so anything else is rejected.
var tables = map[string]bool{
	"review_a_contents":     true,
	"review_b_contents":     true,
	"distribution_contents": true,
	"community_posts":       true,
	"daily_counts":          true,
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or overwrites by (submission_id, content_date).
func (r *PGRepo) Upsert(ctx context.Context, binding catalog.Binding, rec Record) (bool, error) {
	table, err := tableFor(binding)
	if err != nil {
		return false, err
	}
	if rec.SubmissionID == "" || rec.ContentDate == "" {
		return false, ErrInvalidInput
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
    id,
    submission_id,
    content_date,
    subtype,
    title,
    content,
    secondary_date,
    status,
    link,
    external_id,
    completed_count,
    notes,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
ON CONFLICT (submission_id, content_date) DO UPDATE SET
  subtype = EXCLUDED.subtype,
  title = EXCLUDED.title,
  content = EXCLUDED.content,
  secondary_date = EXCLUDED.secondary_date,
  status = EXCLUDED.status,
  link = EXCLUDED.link,
  external_id = EXCLUDED.external_id,
  completed_count = EXCLUDED.completed_count,
  notes = EXCLUDED.notes,
  updated_at = now()
RETURNING (xmax = 0)`, table)

	var created bool
	err = r.DB.QueryRowContext(ctx, query,
		rec.ID,
		rec.SubmissionID,
		rec.ContentDate,
		nullableString(binding.Subtype),
		nullableString(rec.Title),
		nullableString(rec.Content),
		nullableString(rec.SecondaryDate),
		nullableString(rec.Status),
		nullableString(rec.Link),
		nullableString(rec.ExternalID),
		rec.CompletedCount,
		nullableString(rec.Notes),
	).Scan(&created)
	if err != nil {
		return false, classify(err)
	}
	return created, nil
}

// CountContent counts rows, or sums completed counts, for a submission.
func (r *PGRepo) CountContent(ctx context.Context, binding catalog.Binding, submissionID string) (int, error) {
	table, err := tableFor(binding)
	if err != nil {
		return 0, err
	}
	expr := "COUNT(*)"
	if binding.SumCompleted {
		expr = "COALESCE(SUM(completed_count), 0)"
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE submission_id = $1`, expr, table)

	var n int
	if err := r.DB.QueryRowContext(ctx, query, submissionID).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func tableFor(b catalog.Binding) (string, error) {
	if !tables[b.StorageKey] {
		return "", fmt.Errorf("%w: %q", ErrUnknownStorage, b.StorageKey)
	}
	return b.StorageKey, nil
}

// classify marks connection-level failures as ErrStoreUnavailable so callers
// can tell an outage from a rejected row.
func classify(err error) error {
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &connectErr),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	default:
		return err
	}
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
