package dedup

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guards(t *testing.T) map[string]Guard {
	lruGuard, err := NewLRUGuard(16)
	require.NoError(t, err)
	return map[string]Guard{
		ModeMemory: NewMemoryGuard(),
		ModeLRU:    lruGuard,
		ModeTTL:    NewTTLGuard(16, time.Hour),
	}
}

// 同一池子观测两次，只有第一次允许反应，与其他池子的到达顺序无关
func TestGuard_FirstObservationWins(t *testing.T) {
	ctx := context.Background()
	for name, g := range guards(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"poolA", "poolB", "poolA", "poolC", "poolB", "poolA"} {
				_, err := g.TryAcquire(ctx, key)
				require.NoError(t, err)
			}
			ok, err := g.TryAcquire(ctx, "poolD")
			require.NoError(t, err)
			assert.True(t, ok, "新池子首次出现")

			ok, err = g.TryAcquire(ctx, "poolD")
			require.NoError(t, err)
			assert.False(t, ok, "第二次出现应被抑制")

			in, err := g.Contains(ctx, "poolA")
			require.NoError(t, err)
			assert.True(t, in)

			in, err = g.Contains(ctx, "never")
			require.NoError(t, err)
			assert.False(t, in)
		})
	}
}

func TestGuard_ConcurrentAcquireIsAtomic(t *testing.T) {
	ctx := context.Background()
	for name, g := range guards(t) {
		t.Run(name, func(t *testing.T) {
			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 64; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if ok, _ := g.TryAcquire(ctx, "samePool"); ok {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), wins, "并发观测同一池子只允许一次反应")
		})
	}
}

func TestLRUGuard_Evicts(t *testing.T) {
	ctx := context.Background()
	g, err := NewLRUGuard(2)
	require.NoError(t, err)
	for _, k := range []string{"a", "b", "c"} {
		ok, _ := g.TryAcquire(ctx, k)
		assert.True(t, ok)
	}
	in, _ := g.Contains(ctx, "a")
	assert.False(t, in, "容量为 2 时最早的 key 被淘汰")
}

func TestTTLGuard_Expires(t *testing.T) {
	ctx := context.Background()
	g := NewTTLGuard(8, 50*time.Millisecond)
	ok, _ := g.TryAcquire(ctx, "pool")
	assert.True(t, ok)
	ok, _ = g.TryAcquire(ctx, "pool")
	assert.False(t, ok)

	time.Sleep(120 * time.Millisecond)
	ok, _ = g.TryAcquire(ctx, "pool")
	assert.True(t, ok, "窗口过期后可再次获取")
}

func TestMemoryGuard_Len(t *testing.T) {
	g := NewMemoryGuard()
	_, _ = g.TryAcquire(context.Background(), "a")
	_, _ = g.TryAcquire(context.Background(), "a")
	assert.Equal(t, 1, g.Len())
}

func TestNew(t *testing.T) {
	g, err := New(Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryGuard{}, g)

	g, err = New(Options{Mode: ModeLRU, Capacity: 4})
	require.NoError(t, err)
	assert.IsType(t, &LRUGuard{}, g)

	g, err = New(Options{Mode: ModeTTL})
	require.NoError(t, err)
	assert.IsType(t, &TTLGuard{}, g)

	_, err = New(Options{Mode: ModeRedis})
	assert.Error(t, err, "redis 模式缺少客户端")

	_, err = New(Options{Mode: "bloom"})
	assert.Error(t, err)
}

// 需要本地 Redis：REDIS_ADDR=127.0.0.1:6379 go test ./internal/logic/dedup/
func TestRedisGuard_RealRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR 未设置，跳过")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	g := NewRedisGuard(rdb, time.Minute)
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())
	defer rdb.Del(ctx, g.getKey(key))

	ok, err := g.TryAcquire(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.TryAcquire(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	in, err := g.Contains(ctx, key)
	require.NoError(t, err)
	assert.True(t, in)
}
