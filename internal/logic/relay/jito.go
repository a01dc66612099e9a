package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/types"
)

const defaultJitoMethod = "sendTransaction"

type jitoRequest struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      int      `json:"id"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
}

type jitoResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// JitoAdapter 优先通道，JSON-RPC 提交 base58 编码的交易，result 即 bundle id
type JitoAdapter struct {
	name   string
	url    string
	method string
	client *http.Client
}

func NewJitoAdapter(name, url, method string, client *http.Client) *JitoAdapter {
	if method == "" {
		method = defaultJitoMethod
	}
	return &JitoAdapter{name: name, url: url, method: method, client: client}
}

func (a *JitoAdapter) Name() string         { return a.name }
func (a *JitoAdapter) Kind() core.RelayKind { return core.RelayJito }

func (a *JitoAdapter) Submit(ctx context.Context, sc *txbuilder.SigningContext, blockhash types.Hash, ev *core.PoolEvent) core.RelayOutcome {
	return submit(ctx, a.name, core.RelayJito, sc, blockhash, ev, a.send)
}

func (a *JitoAdapter) send(ctx context.Context, tx *txbuilder.SignedTx) (core.OutcomeKind, string, error) {
	body, err := postJSON(ctx, a.client, a.url, nil, jitoRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  a.method,
		Params:  []string{tx.Base58()},
	})
	if err != nil {
		return core.OutcomeFailed, "", err
	}

	var resp jitoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return core.OutcomeFailed, "", fmt.Errorf("decode jito response: %w", err)
	}
	if resp.Error != nil {
		return core.OutcomeFailed, "", fmt.Errorf("jito rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return core.OutcomeBundleID, resp.Result, nil
}
