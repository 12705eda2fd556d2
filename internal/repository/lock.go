package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "chat_server/pkg/errors"
	"chat_server/pkg/logger"
)

// LockRepository — межпроцессный замок по ключу. Единственное место, где
// критическая секция накрывает durable read-then-write (создание direct-переписки).
type LockRepository interface {
	// Acquire ждёт замок не дольше wait; по успеху возвращает release.
	// Превышение ожидания — apperrors.ErrTimeout.
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error)
}

type redisLockRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewLockRepository(rdb *redis.Client, log logger.Logger) LockRepository {
	return &redisLockRepository{redis: rdb, log: log}
}

const lockRetryInterval = 50 * time.Millisecond

func (r *redisLockRepository) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	// Токен владельца: release не снимет чужой замок после истечения TTL
	token := uuid.New().String()
	deadline := time.Now().Add(wait)

	for {
		ok, err := r.redis.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			r.log.Error("Failed to acquire lock", "error", err, "key", key)
			return nil, err
		}
		if ok {
			return func() { r.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			r.log.Warn("Lock acquisition timed out", "key", key, "wait", wait)
			return nil, apperrors.ErrTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

func (r *redisLockRepository) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, r.redis, []string{key}, token).Err(); err != nil && err != redis.Nil {
		r.log.Warn("Failed to release lock", "error", err, "key", key)
	}
}
