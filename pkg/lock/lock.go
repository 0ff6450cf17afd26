package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned when releasing a lock that is not owned by the caller.
var ErrNotHeld = errors.New("lock not held")

// Locker is a non-blocking exclusive lock keyed by name.
// Lock returns false when another holder owns the key; it never waits.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (Release, bool, error)
}

// Release frees an acquired lock.
type Release func(ctx context.Context) error

const keyPrefix = "lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares locks across API instances using SET NX with a TTL.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker wraps an existing Redis client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Lock tries to acquire key for ttl.
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	const op = "lock.RedisLocker.Lock"

	lockKey := keyPrefix + key
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Int()
		if err != nil {
			return fmt.Errorf("lock.RedisLocker.Unlock: %w", err)
		}
		if deleted == 0 {
			return ErrNotHeld
		}
		return nil
	}
	return release, true, nil
}

// LocalLocker is an in-process Locker used when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localHold
	clock func() time.Time
}

type localHold struct {
	token   string
	expires time.Time
}

// NewLocalLocker constructs an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localHold), clock: time.Now}
}

// Lock tries to acquire key for ttl. Expired holds are taken over.
func (l *LocalLocker) Lock(_ context.Context, key string, ttl time.Duration) (Release, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if hold, ok := l.held[key]; ok && (hold.expires.IsZero() || now.Before(hold.expires)) {
		return nil, false, nil
	}

	hold := localHold{token: uuid.NewString()}
	if ttl > 0 {
		hold.expires = now.Add(ttl)
	}
	l.held[key] = hold

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		current, ok := l.held[key]
		if !ok || current.token != hold.token {
			return ErrNotHeld
		}
		delete(l.held, key)
		return nil
	}
	return release, true, nil
}
