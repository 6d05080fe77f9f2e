package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockBusy is returned when the lock could not be acquired in time
var ErrLockBusy = errors.New("lock busy")

// releaseScript deletes the lock only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker provides per-game mutual exclusion across instances
type Locker interface {
	// Acquire blocks until the lock is held and returns its release func
	Acquire(ctx context.Context, token string) (func(), error)
}

// LockOptions tune acquisition
type LockOptions struct {
	TTL      time.Duration
	Attempts int
	// RetryBase grows linearly with each attempt; up to the same amount of jitter is added
	RetryBase time.Duration
}

type locker struct {
	client *redis.Client
	opts   LockOptions
}

// NewLocker creates a Redis SET NX lock
func NewLocker(client *redis.Client, opts LockOptions) Locker {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	return &locker{
		client: client,
		opts:   opts,
	}
}

func lockKey(token string) string {
	return fmt.Sprintf("game:%s:lock", token)
}

func (l *locker) Acquire(ctx context.Context, token string) (func(), error) {
	key := lockKey(token)
	owner := uuid.NewString()

	for attempt := 1; attempt <= l.opts.Attempts; attempt++ {
		ok, err := l.client.SetNX(ctx, key, owner, l.opts.TTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() { l.release(key, owner) }, nil
		}
		if attempt == l.opts.Attempts {
			break
		}

		wait := time.Duration(attempt) * l.opts.RetryBase
		if l.opts.RetryBase > 0 {
			wait += rand.N(l.opts.RetryBase)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	log.Warn().Str("token", token).Int("attempts", l.opts.Attempts).Msg("lock busy")
	return nil, ErrLockBusy
}

func (l *locker) release(key, owner string) {
	// detached so a cancelled request still frees the lock
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{key}, owner).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to release lock")
	}
}
