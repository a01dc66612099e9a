package eventparser

import (
	"errors"
	"runtime/debug"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/eventparser/common"
	"dex-sniper-sol/internal/logic/eventparser/meteorapools"
	"dex-sniper-sol/internal/types"
	"dex-sniper-sol/pkg/logger"
)

// Parser 按 ProgramID 路由到对应 DexAdapter，循环本身与具体 DEX 无关
type Parser struct {
	adapters map[types.Pubkey]common.DexAdapter
	policy   common.DecodePolicy
}

// NewParser 创建解析器并注册所有内置 DEX
func NewParser(policy common.DecodePolicy) *Parser {
	p := &Parser{
		adapters: make(map[types.Pubkey]common.DexAdapter),
		policy:   policy,
	}
	meteorapools.RegisterAdapters(p.adapters)
	return p
}

// Register 追加或覆盖某个程序的 adapter
func (p *Parser) Register(a common.DexAdapter) {
	p.adapters[a.ProgramID()] = a
}

// Parse 扫描交易中所有（已展平的）指令，返回匹配到的池子事件。
// 单条指令的跳过或异常都不会影响后续指令的扫描。
func (p *Parser) Parse(tx *core.AdaptedTx) []*core.PoolEvent {
	ctx := &common.ParseContext{Tx: tx, Policy: p.policy}

	var events []*core.PoolEvent
	for _, ix := range tx.Instructions {
		adapter, ok := p.adapters[ix.ProgramID]
		if !ok {
			continue
		}
		if ev := p.match(ctx, adapter, ix); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func (p *Parser) match(ctx *common.ParseContext, adapter common.DexAdapter, ix *core.AdaptedInstruction) (ev *core.PoolEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[EventParser:%s] panic tx=%s ix=%d.%d: %+v\nstack: %s",
				adapter.Name(), ctx.Tx.SignatureString(), ix.IxIndex, ix.InnerIndex, r, debug.Stack())
			ev = nil
		}
	}()

	ev, err := adapter.Match(ctx, ix)
	if err != nil {
		if !errors.Is(err, common.ErrUnknownSignature) {
			logger.Debugf("[EventParser:%s] 跳过指令 tx=%s ix=%d.%d: %v",
				adapter.Name(), ctx.Tx.SignatureString(), ix.IxIndex, ix.InnerIndex, err)
		}
		return nil
	}
	return ev
}
