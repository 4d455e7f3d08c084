package ratelimit

import (
	"context"
	"time"

	myredis "support_chat_server/internal/dao/redis"
)

const keyPrefix = "ratelimit:"

// RedisStore 基于 Redis 的窗口计数器，多实例部署时共享配额
type RedisStore struct {
	cache myredis.CacheService
}

func NewRedisStore(cache myredis.CacheService) *RedisStore {
	return &RedisStore{cache: cache}
}

// Incr 见 CounterStore
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return s.cache.IncrWindow(ctx, keyPrefix+key, window)
}
