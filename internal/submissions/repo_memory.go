package submissions

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	byID     map[string]Submission
	byNumber map[string]string // submission number -> id
	lookups  int
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:     make(map[string]Submission),
		byNumber: make(map[string]string),
	}
}

// Create stores a submission, assigning an id when empty.
func (r *MemoryRepo) Create(ctx context.Context, s Submission) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	s.SubmissionNumber = strings.TrimSpace(s.SubmissionNumber)
	if s.SubmissionNumber == "" {
		return Submission{}, ErrInvalidInput
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = "pending"
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = s
	r.byNumber[s.SubmissionNumber] = s.ID
	return s, nil
}

// LookupByNumbers returns the known submissions among numbers.
func (r *MemoryRepo) LookupByNumbers(ctx context.Context, numbers []string) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	out := make([]Submission, 0, len(numbers))
	for _, n := range numbers {
		if id, ok := r.byNumber[n]; ok {
			out = append(out, r.byID[id])
		}
	}
	return out, nil
}

// Lookups reports how many batched lookups have been served.
func (r *MemoryRepo) Lookups() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookups
}

// GetByID returns a submission by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

// UpdateProgress stores recomputed progress.
func (r *MemoryRepo) UpdateProgress(ctx context.Context, u ProgressUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[u.SubmissionID]
	if !ok {
		return ErrNotFound
	}
	s.ContentCount = u.ContentCount
	s.ProgressPercent = u.ProgressPercent
	if u.Status != "" {
		s.Status = u.Status
	}
	s.UpdatedAt = time.Now().UTC()
	r.byID[s.ID] = s
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
