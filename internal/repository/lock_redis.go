package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"robotrent/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const lockRetryInterval = 50 * time.Millisecond

// снимаем блокировку только если она всё ещё наша
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker держит блокировки диапазонов календаря в Redis,
// чтобы несколько экземпляров бота не бронировали одни и те же строки.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	logger *zerolog.Logger
}

func NewRedisLocker(client *redis.Client, ttl, wait time.Duration, logger *zerolog.Logger) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, wait: wait, logger: logger}
}

func (l *RedisLocker) Lock(ctx context.Context, keys []string) (func(), error) {
	if l.client == nil {
		return nil, errors.New("redis client is nil")
	}
	sorted := uniqueSorted(keys)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		acquired, err := l.tryAll(ctx, sorted, token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, models.ErrLockTimeout
			}
			return nil, err
		}
		if acquired {
			var once sync.Once
			return func() {
				once.Do(func() { l.unlock(sorted, token) })
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, models.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, models.ErrLockTimeout
		case <-time.After(lockRetryInterval):
		}
	}
}

// tryAll берёт все ключи или ни одного.
func (l *RedisLocker) tryAll(ctx context.Context, keys []string, token string) (bool, error) {
	for i, key := range keys {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.unlock(keys[:i], token)
			return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if !ok {
			l.unlock(keys[:i], token)
			return false, nil
		}
	}
	return true, nil
}

func (l *RedisLocker) unlock(keys []string, token string) {
	// снимаем даже если контекст запроса уже отменён
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, key := range keys {
		if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && l.logger != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("Failed to release calendar lock")
		}
	}
}
