// internal/lock/redis.go
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "award:lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds a key with SET NX PX and a random token. The TTL bounds
// how long a crashed holder can block others.
type RedisLocker struct {
	client redis.Cmdable
	ttl    time.Duration
	retry  time.Duration
	logger logger.Logger
}

func NewRedisLocker(client redis.Cmdable, ttl, retry time.Duration, log logger.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if retry <= 0 {
		retry = 100 * time.Millisecond
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  retry,
		logger: logger.Component(log, "redis-lock"),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := keyPrefix + key
	token := uuid.New().String()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.NewLockAcquireFailedError(key, ctx.Err())
			}
			return nil, apperrors.NewLockAcquireFailedError(key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, apperrors.NewLockAcquireFailedError(key, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}, nil
}

func (l *RedisLocker) release(redisKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
	if err != nil {
		l.logger.Warn("lock release failed", map[string]interface{}{
			"key":   redisKey,
			"error": err,
		})
		return
	}
	if n == 0 {
		l.logger.Warn("lock expired before release", map[string]interface{}{
			"key": redisKey,
			"ttl": l.ttl.String(),
		})
	}
}

// Key returns the Redis key used for key.
func Key(key string) string {
	return fmt.Sprintf("%s%s", keyPrefix, key)
}
