package locks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockNotHeld = errors.New("lock not held")

// compare-and-delete so a holder whose lease expired cannot release someone else's lock
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lease-based Locker shared by every API process that talks to
// the same Redis. The lease must outlive the check-then-write section it guards.
type RedisLocker struct {
	rdb    redis.UniversalClient
	log    *slog.Logger
	prefix string
	ttl    time.Duration
}

func NewRedisLocker(log *slog.Logger, rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if prefix == "" {
		prefix = "lecturehub:lock:"
	}

	if log == nil {
		log = slog.Default()
	}

	return &RedisLocker{rdb: rdb, log: log, prefix: prefix, ttl: ttl}
}

func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.prefix + key
	token := uuid.NewString()

	for attempt := 0; ; attempt++ {
		ok, err := r.rdb.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-time.After(retryDelay(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled; release on a fresh one
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := r.release(rctx, redisKey, token); err != nil {
				r.logRelease(redisKey, err)
			}
		})
	}, nil
}

func (r *RedisLocker) release(ctx context.Context, redisKey, token string) error {
	n, err := releaseScript.Run(ctx, r.rdb, []string{redisKey}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// A lost lease means the guarded section outran the TTL and another holder may
// have overlapped it.
func (r *RedisLocker) logRelease(redisKey string, err error) {
	if errors.Is(err, ErrLockNotHeld) {
		r.log.Warn("lock_lease_lost", "key", redisKey, "ttl", r.ttl.String())
		return
	}
	r.log.Error("lock_release_failed", "key", redisKey, "err", err)
}
