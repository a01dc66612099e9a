package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"dex-sniper-sol/internal/observability"
	"dex-sniper-sol/internal/testkit"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	balance atomic.Uint64
	calls   atomic.Int32
	err     error
	addr    atomic.Value
}

func (f *fakeFetcher) GetBalance(_ context.Context, addr string) (uint64, error) {
	f.calls.Add(1)
	f.addr.Store(addr)
	if f.err != nil {
		return 0, f.err
	}
	return f.balance.Load(), nil
}

func TestBalanceWatch_UpdateSetsGauge(t *testing.T) {
	f := &fakeFetcher{}
	f.balance.Store(2_000_000_000)
	m := observability.NewMetrics("test")
	owner := testkit.Key(7)

	s, err := NewBalanceWatchService(f, owner, 50_000_000, time.Hour, m)
	require.NoError(t, err)

	require.NoError(t, s.update())
	assert.Equal(t, uint64(2_000_000_000), s.Last())
	assert.Equal(t, float64(2_000_000_000), testutil.ToFloat64(m.WalletBalance))
	assert.Equal(t, owner.String(), f.addr.Load())
}

func TestBalanceWatch_FetchError(t *testing.T) {
	f := &fakeFetcher{err: errors.New("rpc down")}
	s, err := NewBalanceWatchService(f, testkit.Key(7), 1, time.Hour, nil)
	require.NoError(t, err)

	err = s.update()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc down")
	assert.Zero(t, s.Last())
}

func TestBalanceWatch_StartStop(t *testing.T) {
	f := &fakeFetcher{}
	f.balance.Store(1)
	s, err := NewBalanceWatchService(f, testkit.Key(7), 10, 20*time.Millisecond, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Start()
		close(done)
	}()

	assert.Eventually(t, func() bool { return f.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestNewBalanceWatchService_RequiresFetcher(t *testing.T) {
	_, err := NewBalanceWatchService(nil, testkit.Key(7), 1, 0, nil)
	assert.Error(t, err)
}
