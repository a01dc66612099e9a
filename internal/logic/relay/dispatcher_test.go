package relay

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/testkit"
	"dex-sniper-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeAdapter struct {
	name  string
	delay time.Duration
	fail  bool
	panic bool
	calls atomic.Int32
}

func (f *fakeAdapter) Name() string         { return f.name }
func (f *fakeAdapter) Kind() core.RelayKind { return core.RelayRPC }

func (f *fakeAdapter) Submit(ctx context.Context, _ *txbuilder.SigningContext, _ types.Hash, _ *core.PoolEvent) core.RelayOutcome {
	f.calls.Add(1)
	if f.panic {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return core.RelayOutcome{Backend: f.name, Err: ctx.Err()}
		}
	}
	if f.fail {
		return core.RelayOutcome{Backend: f.name, Err: errors.New("rejected")}
	}
	return core.RelayOutcome{Backend: f.name, Kind: core.OutcomeSignature, ID: f.name + "-sig"}
}

func TestDispatch_AllBackendsReported(t *testing.T) {
	adapters := []*fakeAdapter{
		{name: "b1"},
		{name: "b2", fail: true},
		{name: "b3", delay: 10 * time.Millisecond},
		{name: "b4", fail: true},
	}
	var backends []Backend
	for _, a := range adapters {
		backends = append(backends, Backend{Adapter: a})
	}
	d, err := NewDispatcher(DispatchAll, backends...)
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), nil, types.Hash{}, testkit.SwappableEvent(testkit.Key(1), testkit.Key(2)))
	require.Len(t, outcomes, 4)

	// 结果按配置顺序排列
	for i, a := range adapters {
		assert.Equal(t, a.name, outcomes[i].Backend)
	}
	assert.True(t, outcomes[0].Succeeded())
	assert.False(t, outcomes[1].Succeeded())
	assert.True(t, outcomes[2].Succeeded())
	assert.False(t, outcomes[3].Succeeded())
	assert.Equal(t, "b3-sig", outcomes[2].ID)

	r := core.Reaction{Outcomes: outcomes}
	assert.Equal(t, 2, r.SuccessCount())
}

func TestDispatch_PanicIsContained(t *testing.T) {
	d, err := NewDispatcher(DispatchAll,
		Backend{Adapter: &fakeAdapter{name: "ok"}},
		Backend{Adapter: &fakeAdapter{name: "bad", panic: true}},
	)
	require.NoError(t, err)

	outcomes := d.Dispatch(context.Background(), nil, types.Hash{}, nil)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Succeeded())
	assert.False(t, outcomes[1].Succeeded())
	assert.Equal(t, "bad", outcomes[1].Backend)
	assert.Error(t, outcomes[1].Err)
}

func TestDispatch_RateLimited(t *testing.T) {
	limited := &fakeAdapter{name: "limited"}
	d, err := NewDispatcher(DispatchAll, Backend{
		Adapter: limited,
		Limiter: rate.NewLimiter(rate.Every(time.Hour), 1),
	})
	require.NoError(t, err)

	first := d.Dispatch(context.Background(), nil, types.Hash{}, nil)
	assert.True(t, first[0].Succeeded())

	second := d.Dispatch(context.Background(), nil, types.Hash{}, nil)
	assert.False(t, second[0].Succeeded())
	assert.ErrorIs(t, second[0].Err, ErrRateLimited)
	assert.Equal(t, int32(1), limited.calls.Load())
}

func TestDispatch_Timeout(t *testing.T) {
	d, err := NewDispatcher(DispatchAll, Backend{
		Adapter: &fakeAdapter{name: "slow", delay: time.Second},
		Timeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	outcomes := d.Dispatch(context.Background(), nil, types.Hash{}, nil)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.ErrorIs(t, outcomes[0].Err, context.DeadlineExceeded)
}

func TestDispatch_FirstSuccessCancelsSiblings(t *testing.T) {
	d, err := NewDispatcher(DispatchFirstSuccess,
		Backend{Adapter: &fakeAdapter{name: "fast"}},
		Backend{Adapter: &fakeAdapter{name: "slow", delay: 2 * time.Second}, Timeout: 5 * time.Second},
	)
	require.NoError(t, err)

	start := time.Now()
	outcomes := d.Dispatch(context.Background(), nil, types.Hash{}, nil)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, outcomes[0].Succeeded())
	assert.False(t, outcomes[1].Succeeded())
	assert.ErrorIs(t, outcomes[1].Err, ErrCanceled)
}

func TestNewDispatcher_Validation(t *testing.T) {
	_, err := NewDispatcher(DispatchAll)
	assert.Error(t, err)

	_, err = NewDispatcher("fastest", Backend{Adapter: &fakeAdapter{name: "a"}})
	assert.Error(t, err)

	d, err := NewDispatcher("", Backend{Adapter: &fakeAdapter{name: "a"}})
	require.NoError(t, err)
	assert.Equal(t, defaultBackendTimeout, d.Backends()[0].Timeout)
}
