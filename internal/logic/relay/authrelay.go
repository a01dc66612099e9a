package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/types"
)

// 响应中可能携带编号的字段，顺序即优先级
var (
	signatureAliases = []string{"signature", "txHash", "tx_hash"}
	bundleIDAliases  = []string{"transaction_id", "uuid", "id"}
)

// AuthRelayAdapter 需要 Authorization 头的中继（bloXroute / NextBlock），
// 交易以 base64 提交，两家的请求体结构不同
type AuthRelayAdapter struct {
	name   string
	kind   core.RelayKind
	url    string
	token  string
	client *http.Client
}

func NewAuthRelayAdapter(name string, kind core.RelayKind, url, token string, client *http.Client) (*AuthRelayAdapter, error) {
	if kind != core.RelayBloxroute && kind != core.RelayNextBlock {
		return nil, fmt.Errorf("auth relay: unsupported kind %q", kind)
	}
	return &AuthRelayAdapter{name: name, kind: kind, url: url, token: token, client: client}, nil
}

func (a *AuthRelayAdapter) Name() string         { return a.name }
func (a *AuthRelayAdapter) Kind() core.RelayKind { return a.kind }

func (a *AuthRelayAdapter) Submit(ctx context.Context, sc *txbuilder.SigningContext, blockhash types.Hash, ev *core.PoolEvent) core.RelayOutcome {
	return submit(ctx, a.name, a.kind, sc, blockhash, ev, a.send)
}

func (a *AuthRelayAdapter) header() http.Header {
	h := http.Header{}
	if a.token != "" {
		h.Set("Authorization", a.token)
	}
	return h
}

func (a *AuthRelayAdapter) requestBody(encoded string) any {
	if a.kind == core.RelayNextBlock {
		return map[string]any{"transaction": encoded}
	}
	return map[string]any{"transaction": map[string]string{"content": encoded}}
}

func (a *AuthRelayAdapter) send(ctx context.Context, tx *txbuilder.SignedTx) (core.OutcomeKind, string, error) {
	body, err := postJSON(ctx, a.client, a.url, a.header(), a.requestBody(tx.Base64()))
	if err != nil {
		return core.OutcomeFailed, "", err
	}

	kind, id, err := decodeRelayID(body)
	if err != nil {
		return core.OutcomeFailed, "", fmt.Errorf("decode %s response: %w", a.kind, err)
	}
	if id == "" {
		// 中继受理但没有回显编号，以本地签名为准
		return core.OutcomeSignature, tx.Signature, nil
	}
	return kind, id, nil
}

// decodeRelayID 依次在顶层和 result 对象中查找编号字段
func decodeRelayID(body []byte) (core.OutcomeKind, string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return core.OutcomeFailed, "", err
	}

	if kind, id := lookupID(top); id != "" {
		return kind, id, nil
	}
	if raw, ok := top["result"]; ok {
		var inner map[string]json.RawMessage
		if json.Unmarshal(raw, &inner) == nil {
			if kind, id := lookupID(inner); id != "" {
				return kind, id, nil
			}
		}
	}
	return core.OutcomeFailed, "", nil
}

func lookupID(fields map[string]json.RawMessage) (core.OutcomeKind, string) {
	for _, key := range signatureAliases {
		if id := stringField(fields, key); id != "" {
			return core.OutcomeSignature, id
		}
	}
	for _, key := range bundleIDAliases {
		if id := stringField(fields, key); id != "" {
			return core.OutcomeBundleID, id
		}
	}
	return core.OutcomeFailed, ""
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
