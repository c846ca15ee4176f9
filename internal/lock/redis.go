package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/arsconsole/config"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares locks between processes working on the same data
// directory. Keys expire after ttl in case a holder dies.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	log    *slog.Logger
}

func NewRedisLocker(cfg config.RedisConfig, log *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    cfg.LockTTL(),
		retry:  25 * time.Millisecond,
		log:    log,
	}
}

func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}

func (l *RedisLocker) Lock(ctx context.Context, name string) (func(), error) {
	key := lockKey(name)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", name, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// The caller's context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.log.Warn("release lock failed", slog.String("lock", name), logger.Err(err))
		}
	}, nil
}

func lockKey(name string) string {
	return "ars:lock:" + name
}

var _ Locker = (*RedisLocker)(nil)
