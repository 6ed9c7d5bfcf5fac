package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	customError "github.com/segyhp/tenancy-engine/pkg/errors"
)

// ErrLockHeld is returned when another runner owns the lock.
var ErrLockHeld = errors.New("lock is held by another runner")

const lockPrefix = "tenancy:lock:"

// Locker guards a named batch job against overlapping runs.
type Locker interface {
	// Acquire takes the lock for ttl and returns a release func. It returns
	// ErrLockHeld when the lock is already taken.
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error)
}

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
}

// NewRedisLocker returns a Locker backed by SET NX. A nil client yields a
// NopLocker.
func NewRedisLocker(client *redis.Client) Locker {
	if client == nil {
		return NopLocker{}
	}
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	key := lockPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, customError.WrapCacheError(err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return customError.WrapCacheError(err)
		}
		return nil
	}
	return release, nil
}

// NopLocker always grants the lock. Used when redis is disabled.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
