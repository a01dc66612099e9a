package core

import (
	"dex-sniper-sol/internal/types"

	"github.com/mr-tron/base58"
)

// TxContext 表示交易被观测时的上下文信息
type TxContext struct {
	Slot       uint64 // 推送时所在 slot
	ReceivedAt int64  // 本地接收时间（Unix 毫秒），用于统计反应延迟
}

// AccountMeta 表示指令中的一个账户及其签名/可写属性
type AccountMeta struct {
	Pubkey     types.Pubkey
	IsSigner   bool
	IsWritable bool
}

// AdaptedInstruction 表示一条主指令或 inner 指令，来源于 message.instructions 或 innerInstructions。
// 所有指令在预处理阶段已按执行顺序展平，并补充了位置信息（IxIndex、InnerIndex）。
type AdaptedInstruction struct {
	IxIndex    uint16        // 主指令索引（从 0 开始）
	InnerIndex uint16        // Inner 指令在主指令中的序号，主指令本身为 0，CPI 调用从 1 开始
	ProgramID  types.Pubkey  // 指令对应的程序 ID
	Accounts   []AccountMeta // 指令涉及的账户列表，保持原始顺序
	Data       []byte        // 指令原始数据
}

// AccountKeys 仅返回账户地址
func (ix *AdaptedInstruction) AccountKeys() []types.Pubkey {
	keys := make([]types.Pubkey, len(ix.Accounts))
	for i := range ix.Accounts {
		keys[i] = ix.Accounts[i].Pubkey
	}
	return keys
}

// AdaptedTx 表示已解析的链上交易结构，是事件解析流程的核心输入。
type AdaptedTx struct {
	TxCtx           *TxContext
	TxIndex         uint32
	Signature       []byte     // 交易签名（64 字节原始数据）
	RecentBlockhash types.Hash // 被观测交易引用的 blockhash，构造买单时复用
	FeePayer        types.Pubkey

	// Instructions 已按 Solana 执行顺序展平：主指令后紧跟其 CPI 产生的 inner 指令
	Instructions []*AdaptedInstruction

	// TokenAccounts 记录 token account → mint，来自 pre/post token balances。
	// 流动性类指令不直接携带 mint，需要借助它还原。
	TokenAccounts map[types.Pubkey]types.Pubkey
}

func (tx *AdaptedTx) SignatureString() string {
	return base58.Encode(tx.Signature)
}

func (tx *AdaptedTx) Slot() uint64 {
	if tx.TxCtx == nil {
		return 0
	}
	return tx.TxCtx.Slot
}

// MintOf 查询 token account 对应的 mint
func (tx *AdaptedTx) MintOf(account types.Pubkey) (types.Pubkey, bool) {
	mint, ok := tx.TokenAccounts[account]
	return mint, ok
}
