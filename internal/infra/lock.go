package infra

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLocked is returned by Lock when another holder owns the key.
var ErrLocked = errors.New("lock: key is held by another request")

// release deletes the key only if it still holds our token, so an expired lock
// re-acquired by someone else is never freed by the previous holder.
var release = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker is a single-instance Redis mutex (SET NX PX + token-checked release).
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, prefix: "lock:cierre:"}
}

// Lock acquires key without waiting. The returned func releases it; the TTL
// frees it anyway if the holder dies.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// the request context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := release.Run(ctx, l.rdb, []string{k}, token).Err(); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("lock: release failed, waiting for TTL")
		}
	}, nil
}
