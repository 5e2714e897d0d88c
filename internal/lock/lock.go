package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var (
	ErrEmptyKey   = errors.New("lock key is empty")
	ErrInvalidTTL = errors.New("lock ttl must be positive")
)

// Locker is a non-blocking mutual exclusion primitive keyed by name.
type Locker interface {
	// TryLock returns a token and true when the lock was acquired.
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// Release frees key only if token still owns it.
	Release(ctx context.Context, key, token string) error
}

// RedisLocker uses SET NX with a TTL so a crashed holder cannot keep the lock forever.
type RedisLocker struct {
	client redis.UniversalClient
	script *redis.Script
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	if client == nil {
		return nil
	}
	return &RedisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}
	if err := validate(key, ttl); err != nil {
		return "", false, err
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{key}, token).Err()
}

type localEntry struct {
	token     string
	expiresAt time.Time
}

// LocalLocker is the in-process fallback when no Redis is configured. It only
// excludes callers inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	now   func() time.Time
	locks map[string]localEntry
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		now:   time.Now,
		locks: make(map[string]localEntry),
	}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := validate(key, ttl); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.locks[key]; ok && now.Before(entry.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.locks[key] = localEntry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (l *LocalLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.locks[key]; ok && entry.token == token {
		delete(l.locks, key)
	}
	return nil
}

func validate(key string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}

var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = (*LocalLocker)(nil)
)
