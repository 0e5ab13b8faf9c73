package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")

// Locker hands out named, expiring locks.
type Locker interface {
	// Acquire takes the lock for at most ttl. The returned release func
	// only removes the lock while it is still ours.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(ctx context.Context) error, err error)
}

const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

type RedisLocker struct {
	client redis.Cmdable
	owner  string
}

// NewRedisLocker returns a Locker backed by SET NX. owner identifies this
// process in the lock value.
func NewRedisLocker(client redis.Cmdable, owner string) *RedisLocker {
	return &RedisLocker{client: client, owner: owner}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, error) {
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	release := func(ctx context.Context) error {
		if err := l.client.Eval(ctx, releaseScript, []string{key}, l.owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}
	return release, nil
}

// Noop never contends. Used when no Redis is configured.
type Noop struct{}

func (Noop) Acquire(ctx context.Context, key string, ttl time.Duration) (func(ctx context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
