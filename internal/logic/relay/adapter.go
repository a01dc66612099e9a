package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/types"
)

// Adapter 单个提交后端：为本后端构造交易（小费随后端变化）并提交
type Adapter interface {
	Name() string
	Kind() core.RelayKind
	Submit(ctx context.Context, sc *txbuilder.SigningContext, blockhash types.Hash, ev *core.PoolEvent) core.RelayOutcome
}

// sendFunc 把已签名交易发往后端，返回归一化的结果类型与编号
type sendFunc func(ctx context.Context, tx *txbuilder.SignedTx) (core.OutcomeKind, string, error)

var ErrEmptyID = errors.New("relay returned empty id")

// submit 统一处理构造、计时与 panic，任何失败都转成 OutcomeFailed
func submit(
	ctx context.Context,
	name string,
	kind core.RelayKind,
	sc *txbuilder.SigningContext,
	blockhash types.Hash,
	ev *core.PoolEvent,
	send sendFunc,
) (out core.RelayOutcome) {
	start := time.Now()
	out = core.RelayOutcome{Backend: name, Kind: core.OutcomeFailed}
	defer func() {
		if r := recover(); r != nil {
			out.Kind = core.OutcomeFailed
			out.ID = ""
			out.Err = fmt.Errorf("panic: %v", r)
		}
		out.Latency = time.Since(start)
	}()

	tx, err := txbuilder.Build(sc, kind, blockhash, ev)
	if err != nil {
		out.Err = fmt.Errorf("build: %w", err)
		return out
	}

	outcomeKind, id, err := send(ctx, tx)
	if err != nil {
		out.Err = err
		return out
	}
	if id == "" {
		out.Err = ErrEmptyID
		return out
	}
	out.Kind = outcomeKind
	out.ID = id
	return out
}
