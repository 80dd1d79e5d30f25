package imports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"campaign-import/internal/report"
)

// Batch is a validated upload waiting for confirmation.
type Batch struct {
	ID           string                  `json:"batchId"`
	FileName     string                  `json:"fileName,omitempty"`
	ArchiveKey   string                  `json:"archiveKey,omitempty"`
	AllowedTypes []string                `json:"allowedTypes,omitempty"`
	Validation   report.ValidationResult `json:"validation"`
	CreatedAt    time.Time               `json:"createdAt"`
	DeployedAt   *time.Time              `json:"deployedAt,omitempty"`
	LastDeploy   *report.DeployResult    `json:"lastDeploy,omitempty"`
}

// BatchStore keeps batches between validation and deployment.
type BatchStore interface {
	Save(ctx context.Context, b Batch, ttl time.Duration) error
	Get(ctx context.Context, id string) (Batch, error)
}

// MemoryBatchStore is an in-process BatchStore with expiry.
type MemoryBatchStore struct {
	mu      sync.RWMutex
	batches map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	batch     Batch
	expiresAt time.Time
}

// NewMemoryBatchStore constructs a MemoryBatchStore.
func NewMemoryBatchStore() *MemoryBatchStore {
	return &MemoryBatchStore{batches: make(map[string]memoryEntry), now: time.Now}
}

// Save stores b for ttl. A non-positive ttl keeps it until the process exits.
func (s *MemoryBatchStore) Save(ctx context.Context, b Batch, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.batches {
		if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
			delete(s.batches, id)
		}
	}
	s.batches[b.ID] = memoryEntry{batch: b, expiresAt: exp}
	return nil
}

// Get returns a live batch.
func (s *MemoryBatchStore) Get(ctx context.Context, id string) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.batches[id]
	if !ok || (!e.expiresAt.IsZero() && s.now().After(e.expiresAt)) {
		return Batch{}, ErrBatchNotFound
	}
	return e.batch, nil
}

// RedisBatchStore keeps batches as JSON strings with a TTL.
type RedisBatchStore struct {
	Client *redis.Client
	Prefix string
}

// NewRedisBatchStore constructs a RedisBatchStore.
func NewRedisBatchStore(client *redis.Client) *RedisBatchStore {
	return &RedisBatchStore{Client: client, Prefix: "campaign_import:batch:"}
}

// Save stores b as JSON for ttl.
func (s *RedisBatchStore) Save(ctx context.Context, b Batch, ttl time.Duration) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.Client.Set(ctx, s.Prefix+b.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set batch %s: %w", b.ID, err)
	}
	return nil
}

// Get loads a batch.
func (s *RedisBatchStore) Get(ctx context.Context, id string) (Batch, error) {
	raw, err := s.Client.Get(ctx, s.Prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Batch{}, ErrBatchNotFound
		}
		return Batch{}, fmt.Errorf("redis get batch %s: %w", id, err)
	}
	var b Batch
	if err := json.Unmarshal(raw, &b); err != nil {
		return Batch{}, fmt.Errorf("decode batch %s: %w", id, err)
	}
	return b, nil
}

var (
	_ BatchStore = (*MemoryBatchStore)(nil)
	_ BatchStore = (*RedisBatchStore)(nil)
)
