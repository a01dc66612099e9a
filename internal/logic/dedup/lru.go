package dedup

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUGuard 有界集合；ContainsOrAdd 本身在锁内完成检查与插入
type LRUGuard struct {
	cache *lru.Cache[string, struct{}]
}

func NewLRUGuard(capacity int) (*LRUGuard, error) {
	c, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, err
	}
	return &LRUGuard{cache: c}, nil
}

func (g *LRUGuard) TryAcquire(_ context.Context, key string) (bool, error) {
	exists, _ := g.cache.ContainsOrAdd(key, struct{}{})
	return !exists, nil
}

func (g *LRUGuard) Contains(_ context.Context, key string) (bool, error) {
	return g.cache.Contains(key), nil
}

// TTLGuard 时间窗口集合：key 在 ttl 之后可再次获取
type TTLGuard struct {
	mu    sync.Mutex // expirable.LRU 没有原子的 ContainsOrAdd
	cache *expirable.LRU[string, struct{}]
}

func NewTTLGuard(capacity int, ttl time.Duration) *TTLGuard {
	return &TTLGuard{cache: expirable.NewLRU[string, struct{}](capacity, nil, ttl)}
}

func (g *TTLGuard) TryAcquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.cache.Get(key); ok {
		return false, nil
	}
	g.cache.Add(key, struct{}{})
	return true, nil
}

func (g *TTLGuard) Contains(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.cache.Get(key)
	return ok, nil
}
