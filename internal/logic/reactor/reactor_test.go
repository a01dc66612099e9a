package reactor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/dedup"
	"dex-sniper-sol/internal/logic/eventparser"
	"dex-sniper-sol/internal/logic/eventparser/common"
	"dex-sniper-sol/internal/logic/relay"
	"dex-sniper-sol/internal/logic/txadapter"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/observability"
	"dex-sniper-sol/internal/testkit"
	"dex-sniper-sol/internal/types"

	soltypes "github.com/blocto/solana-go-sdk/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T) *txbuilder.SigningContext {
	t.Helper()
	sc, err := txbuilder.NewSigningContext(soltypes.NewAccount(), txbuilder.Settings{
		ComputeUnitLimit: 200_000,
		ComputeUnitPrice: 50_000,
		BuyLamports:      5_000_000,
		MinAmountOut:     1,
	})
	require.NoError(t, err)
	return sc
}

func testBlockhash() types.Hash {
	var h types.Hash
	h[0], h[31] = 11, 11
	return h
}

func createPoolTx(t *testing.T, pool, mintA, mintB types.Pubkey, a, b uint64) *core.AdaptedTx {
	t.Helper()
	raw := testkit.CreatePoolGrpcTx(pool, mintA, mintB, a, b, testBlockhash())
	tx, err := txadapter.AdaptGrpcTx(&core.TxContext{Slot: 77, ReceivedAt: time.Now().UnixMilli()}, raw)
	require.NoError(t, err)
	return tx
}

type recordingDispatcher struct {
	mu        sync.Mutex
	calls     int
	blockhash types.Hash
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ *txbuilder.SigningContext, blockhash types.Hash, ev *core.PoolEvent) []core.RelayOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.blockhash = blockhash
	return []core.RelayOutcome{{Backend: "fake", Kind: core.OutcomeSignature, ID: "sig-" + ev.Pool.String()}}
}

type memorySink struct {
	mu        sync.Mutex
	reactions []*core.Reaction
	err       error
}

func (s *memorySink) Name() string { return "memory" }

func (s *memorySink) Record(_ context.Context, r *core.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions = append(s.reactions, r)
	return s.err
}

type failingGuard struct{}

func (failingGuard) TryAcquire(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingGuard) Contains(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func newReactor(t *testing.T, guard dedup.Guard, d Dispatcher, sinks ...Sink) (*Reactor, *observability.Metrics) {
	t.Helper()
	m := observability.NewMetrics("test")
	r, err := New(Options{
		Parser:     eventparser.NewParser(common.DecodePolicy{AssumeLiquidityOnDecodeFailure: true}),
		Guard:      guard,
		Dispatcher: d,
		Signer:     testSigner(t),
		Metrics:    m,
		Sinks:      sinks,
	})
	require.NoError(t, err)
	return r, m
}

func TestHandleTx_EndToEnd(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"e2eSignature"}`))
	}))
	defer srv.Close()

	dispatcher, err := relay.NewDispatcher(relay.DispatchAll, relay.Backend{
		Adapter: relay.NewRPCAdapter("rpc", srv.URL, srv.Client()),
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)

	guard := dedup.NewMemoryGuard()
	sink := &memorySink{}
	r, m := newReactor(t, guard, dispatcher, sink)

	pool := testkit.Key(50)
	tx := createPoolTx(t, pool, testkit.Key(60), consts.WSOLMint, 1000, 1000)

	reactions := r.HandleTx(context.Background(), tx)
	require.Len(t, reactions, 1)
	reaction := reactions[0]
	require.Len(t, reaction.Outcomes, 1)
	assert.Equal(t, core.OutcomeSignature, reaction.Outcomes[0].Kind)
	assert.Equal(t, "e2eSignature", reaction.Outcomes[0].ID)
	assert.Equal(t, pool, reaction.Event.Pool)
	assert.Equal(t, int32(1), hits.Load())

	seen, err := guard.Contains(context.Background(), pool.String())
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Len(t, sink.reactions, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReactionsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayOutcomes.WithLabelValues("rpc", "signature")))

	// 同一个池子再次出现不再反应
	again := r.HandleTx(context.Background(), createPoolTx(t, pool, testkit.Key(60), consts.WSOLMint, 1000, 1000))
	assert.Empty(t, again)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DedupSuppressed))
}

func TestHandleTx_UsesObservedBlockhash(t *testing.T) {
	d := &recordingDispatcher{}
	r, _ := newReactor(t, dedup.NewMemoryGuard(), d)

	reactions := r.HandleTx(context.Background(), createPoolTx(t, testkit.Key(51), consts.WSOLMint, testkit.Key(61), 5, 5))
	require.Len(t, reactions, 1)
	assert.Equal(t, testBlockhash(), d.blockhash)
	assert.True(t, reactions[0].Event.ReserveIsA)
}

func TestHandleTx_Filters(t *testing.T) {
	d := &recordingDispatcher{}
	r, m := newReactor(t, dedup.NewMemoryGuard(), d)

	// 无 WSOL
	assert.Empty(t, r.HandleTx(context.Background(), createPoolTx(t, testkit.Key(52), testkit.Key(62), testkit.Key(63), 1000, 1000)))
	// 流动性为 0
	assert.Empty(t, r.HandleTx(context.Background(), createPoolTx(t, testkit.Key(53), testkit.Key(64), consts.WSOLMint, 0, 1000)))

	assert.Equal(t, 0, d.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsFiltered.WithLabelValues("not_reserve_pair")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsFiltered.WithLabelValues("no_liquidity")))
}

func TestHandleTx_GuardFailureSkips(t *testing.T) {
	d := &recordingDispatcher{}
	r, m := newReactor(t, failingGuard{}, d)

	assert.Empty(t, r.HandleTx(context.Background(), createPoolTx(t, testkit.Key(54), testkit.Key(65), consts.WSOLMint, 1000, 1000)))
	assert.Equal(t, 0, d.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DedupErrors))
}

func TestHandleTx_SinkErrorIsContained(t *testing.T) {
	sink := &memorySink{err: errors.New("kafka unavailable")}
	r, m := newReactor(t, dedup.NewMemoryGuard(), &recordingDispatcher{}, sink)

	reactions := r.HandleTx(context.Background(), createPoolTx(t, testkit.Key(55), testkit.Key(66), consts.WSOLMint, 1000, 1000))
	require.Len(t, reactions, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkErrors.WithLabelValues("memory")))
}

func TestHandleTx_NoEvents(t *testing.T) {
	r, _ := newReactor(t, dedup.NewMemoryGuard(), &recordingDispatcher{})
	assert.Nil(t, r.HandleTx(context.Background(), nil))
	assert.Nil(t, r.HandleTx(context.Background(), &core.AdaptedTx{}))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
