package submissions

import "context"

// Directory resolves submission numbers in one batched call. Numbers that are
// not returned are unknown.
type Directory interface {
	LookupByNumbers(ctx context.Context, numbers []string) ([]Submission, error)
}

// Repo defines persistence operations for submissions.
type Repo interface {
	Directory
	GetByID(ctx context.Context, id string) (Submission, error)
	UpdateProgress(ctx context.Context, update ProgressUpdate) error
}
