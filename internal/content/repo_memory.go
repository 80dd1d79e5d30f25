package content

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"campaign-import/internal/catalog"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	tables map[string]map[string]Record // storage key -> upsert key -> record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tables: make(map[string]map[string]Record)}
}

// Upsert inserts or overwrites by (submission, date).
func (r *MemoryRepo) Upsert(ctx context.Context, binding catalog.Binding, rec Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if binding.StorageKey == "" {
		return false, ErrUnknownStorage
	}
	if rec.SubmissionID == "" || rec.ContentDate == "" {
		return false, ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	table, ok := r.tables[binding.StorageKey]
	if !ok {
		table = make(map[string]Record)
		r.tables[binding.StorageKey] = table
	}

	now := time.Now().UTC()
	rec.Subtype = binding.Subtype
	rec.UpdatedAt = now
	if existing, ok := table[rec.Key()]; ok {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		table[rec.Key()] = rec
		return false, nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = now
	table[rec.Key()] = rec
	return true, nil
}

// CountContent counts rows, or sums completed counts, for a submission.
func (r *MemoryRepo) CountContent(ctx context.Context, binding catalog.Binding, submissionID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.tables[binding.StorageKey] {
		if rec.SubmissionID != submissionID {
			continue
		}
		if binding.SumCompleted {
			n += rec.CompletedCount
		} else {
			n++
		}
	}
	return n, nil
}

// List returns the rows of a table ordered by key.
func (r *MemoryRepo) List(storageKey string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	table := r.tables[storageKey]
	out := make([]Record, 0, len(table))
	for _, rec := range table {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

var _ Repo = (*MemoryRepo)(nil)
