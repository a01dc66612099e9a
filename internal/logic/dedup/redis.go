package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const poolKeyPrefix = "sniper:dedup:pool"

// RedisGuard 多实例共享的去重集合，SET NX 保证原子性
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func (r *RedisGuard) getKey(key string) string {
	return fmt.Sprintf("%s:%s", poolKeyPrefix, key)
}

func (r *RedisGuard) TryAcquire(ctx context.Context, key string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.getKey(key), time.Now().UnixMilli(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx error: %w", err)
	}
	return ok, nil
}

func (r *RedisGuard) Contains(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.getKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return n > 0, nil
}
