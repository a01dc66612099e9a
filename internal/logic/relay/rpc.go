package relay

import (
	"context"
	"fmt"
	"net/http"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/types"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
)

// RPCAdapter 普通 RPC 节点，不带小费，跳过预检直接广播
type RPCAdapter struct {
	name       string
	client     *client.Client
	httpClient *http.Client
}

// NewRPCAdapter httpClient 为 nil 时使用 SDK 默认 client
func NewRPCAdapter(name, endpoint string, httpClient *http.Client) *RPCAdapter {
	if httpClient == nil {
		return &RPCAdapter{name: name, client: client.NewClient(endpoint)}
	}
	return &RPCAdapter{
		name:       name,
		client:     client.New(rpc.WithEndpoint(endpoint), rpc.WithHTTPClient(httpClient)),
		httpClient: httpClient,
	}
}

func (a *RPCAdapter) Name() string         { return a.name }
func (a *RPCAdapter) Kind() core.RelayKind { return core.RelayRPC }

func (a *RPCAdapter) Submit(ctx context.Context, sc *txbuilder.SigningContext, blockhash types.Hash, ev *core.PoolEvent) core.RelayOutcome {
	return submit(ctx, a.name, core.RelayRPC, sc, blockhash, ev, a.send)
}

func (a *RPCAdapter) send(ctx context.Context, tx *txbuilder.SignedTx) (core.OutcomeKind, string, error) {
	sig, err := a.client.SendTransactionWithConfig(ctx, tx.Tx, client.SendTransactionConfig{
		SkipPreflight: true,
	})
	if err != nil {
		return core.OutcomeFailed, "", fmt.Errorf("send transaction: %w", err)
	}
	return core.OutcomeSignature, sig, nil
}
