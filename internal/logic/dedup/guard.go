package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard 记录已处理过的事件 key，防止同一个池子被重复反应。
// TryAcquire 的"检查 + 插入"必须是一个原子操作。
type Guard interface {
	// TryAcquire 首次出现返回 true，并记录该 key；已存在返回 false
	TryAcquire(ctx context.Context, key string) (bool, error)
	Contains(ctx context.Context, key string) (bool, error)
}

const (
	ModeMemory = "memory" // 进程内无界集合，永不淘汰
	ModeLRU    = "lru"    // 有界集合，容量满时淘汰最久未访问
	ModeTTL    = "ttl"    // 时间窗口集合
	ModeRedis  = "redis"  // 跨进程共享，SET NX + 过期
)

const (
	defaultCapacity = 100_000
	defaultTTL      = 24 * time.Hour
)

// Options 构造 Guard 的参数
type Options struct {
	Mode     string
	Capacity int
	TTL      time.Duration
	Redis    *redis.Client
}

// New 按模式创建 Guard
func New(opt Options) (Guard, error) {
	capacity := opt.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	ttl := opt.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	switch opt.Mode {
	case "", ModeMemory:
		return NewMemoryGuard(), nil
	case ModeLRU:
		return NewLRUGuard(capacity)
	case ModeTTL:
		return NewTTLGuard(capacity, ttl), nil
	case ModeRedis:
		if opt.Redis == nil {
			return nil, fmt.Errorf("dedup mode %q requires a redis client", opt.Mode)
		}
		return NewRedisGuard(opt.Redis, ttl), nil
	default:
		return nil, fmt.Errorf("unknown dedup mode %q", opt.Mode)
	}
}
