package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"campaign-import/internal/shared/telemetry"
)

const redisKeyPrefix = "campaign_import:lock:"

// RedisLocker serializes keys across processes with redislock.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker constructs a RedisLocker. ttl bounds how long a crashed holder can block a key.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  50 * time.Millisecond,
	}
}

// Lock retries until the key is obtained or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lk, err := l.client.Obtain(ctx, redisKeyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || ctx.Err() != nil {
			return nil, errors.Join(ErrNotObtained, ctx.Err())
		}
		return nil, fmt.Errorf("%w: obtain lock %s: %w", ErrUnavailable, key, err)
	}
	return func() {
		// Release with a fresh context so a cancelled caller still frees the key.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lk.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			telemetry.Warn("lock.release_failed", map[string]any{"key": key, "error": err.Error()})
		}
	}, nil
}

var _ Locker = (*RedisLocker)(nil)
