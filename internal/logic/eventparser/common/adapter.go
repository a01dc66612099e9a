package common

import (
	"encoding/binary"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/types"
)

// DecodePolicy 解析策略，由运维配置
type DecodePolicy struct {
	// AssumeLiquidityOnDecodeFailure payload 解码失败时是否假定已有流动性。
	// 该默认值会直接导致真实花费，必须显式配置。
	AssumeLiquidityOnDecodeFailure bool
}

// ParseContext 单笔交易的解析上下文
type ParseContext struct {
	Tx     *core.AdaptedTx
	Policy DecodePolicy
}

// DexAdapter 每个外部 DEX 程序一个实现，解析循环本身与程序无关
type DexAdapter interface {
	Name() string
	ProgramID() types.Pubkey
	// Match 返回 (nil, err) 表示跳过该指令，err 仅用于日志
	Match(ctx *ParseContext, ix *core.AdaptedInstruction) (*core.PoolEvent, error)
}

// DecodeFunc 在账户已绑定后解码具体事件
type DecodeFunc func(ctx *ParseContext, ix *core.AdaptedInstruction, accounts *BoundAccounts) (*core.PoolEvent, error)

// Signature 指令签名表中的一项
type Signature struct {
	Name          string
	Discriminator uint64 // 前 8 字节按大端读出的值
	Kind          core.EventKind
	Schema        *AccountSchema
	Decode        DecodeFunc
}

// SignatureTable 判别码 → 签名
type SignatureTable map[uint64]*Signature

// NewSignatureTable 构造签名表，判别码重复属于编码错误
func NewSignatureTable(sigs ...*Signature) SignatureTable {
	t := make(SignatureTable, len(sigs))
	for _, s := range sigs {
		if _, dup := t[s.Discriminator]; dup {
			panic("duplicate discriminator for " + s.Name)
		}
		if s.Schema == nil || s.Decode == nil {
			panic("incomplete signature " + s.Name)
		}
		t[s.Discriminator] = s
	}
	return t
}

// Lookup 按指令前 8 字节查找签名
func (t SignatureTable) Lookup(data []byte) (*Signature, error) {
	if len(data) < 8 {
		return nil, ErrDataTooShort
	}
	sig, ok := t[binary.BigEndian.Uint64(data[:8])]
	if !ok {
		return nil, ErrUnknownSignature
	}
	return sig, nil
}

// TableAdapter 基于签名表的通用 DexAdapter 实现
type TableAdapter struct {
	name    string
	dex     int
	program types.Pubkey
	table   SignatureTable
}

func NewTableAdapter(name string, dex int, program types.Pubkey, table SignatureTable) *TableAdapter {
	return &TableAdapter{name: name, dex: dex, program: program, table: table}
}

func (a *TableAdapter) Name() string            { return a.name }
func (a *TableAdapter) ProgramID() types.Pubkey { return a.program }

func (a *TableAdapter) Match(ctx *ParseContext, ix *core.AdaptedInstruction) (*core.PoolEvent, error) {
	if ix.ProgramID != a.program {
		return nil, ErrUnknownSignature
	}
	sig, err := a.table.Lookup(ix.Data)
	if err != nil {
		return nil, err
	}
	accounts, err := sig.Schema.Bind(ix.Accounts)
	if err != nil {
		return nil, err
	}
	ev, err := sig.Decode(ctx, ix, accounts)
	if err != nil || ev == nil {
		return nil, err
	}

	ev.Dex = a.dex
	ev.Kind = sig.Kind
	ev.Instruction = sig.Name
	ev.IxIndex = ix.IxIndex
	ev.InnerIndex = ix.InnerIndex
	if ctx.Tx != nil {
		ev.Signature = ctx.Tx.SignatureString()
		ev.Slot = ctx.Tx.Slot()
	}
	ev.ResolvePairing()
	return ev, nil
}
