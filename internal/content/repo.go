package content

import (
	"context"

	"campaign-import/internal/catalog"
)

// Repo is the per-product-type content store.
type Repo interface {
	// Upsert inserts rec or overwrites the mutable fields of the row with the
	// same (submission, date) key. created reports whether a row was inserted.
	Upsert(ctx context.Context, binding catalog.Binding, rec Record) (created bool, err error)
	// CountContent returns the progress count for a submission: rows, or the
	// sum of completed counts when the binding says so.
	CountContent(ctx context.Context, binding catalog.Binding, submissionID string) (int, error)
}
