package core

import (
	"fmt"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/types"
)

// EventKind 池子事件子类型
type EventKind uint8

const (
	EventPoolCreated    EventKind = iota + 1 // 创建池子（可能带初始流动性）
	EventLiquidityAdded                      // 首次注入流动性（bootstrap）
	EventDeposit                             // 普通加流动性
)

func (k EventKind) String() string {
	switch k {
	case EventPoolCreated:
		return "pool_created"
	case EventLiquidityAdded:
		return "liquidity_added"
	case EventDeposit:
		return "deposit"
	default:
		return "unknown"
	}
}

// PoolEvent 由 EventParser 产出，创建后只读。
// a/b 两侧的账户保持池子自身顺序，与买入方向无关。
type PoolEvent struct {
	Dex         int
	Kind        EventKind
	Instruction string // 指令名称，便于日志定位

	Pool  types.Pubkey
	MintA types.Pubkey
	MintB types.Pubkey

	AVault       types.Pubkey
	BVault       types.Pubkey
	ATokenVault  types.Pubkey
	BTokenVault  types.Pubkey
	AVaultLpMint types.Pubkey
	BVaultLpMint types.Pubkey
	AVaultLp     types.Pubkey
	BVaultLp     types.Pubkey

	ProtocolTokenAFee types.Pubkey
	ProtocolTokenBFee types.Pubkey

	VaultProgram types.Pubkey
	TokenProgram types.Pubkey

	TokenAAmount    uint64
	TokenBAmount    uint64
	ActivationPoint *uint64

	IsReservePair  bool // 任一 mint 为 WSOL
	ReserveIsA     bool // WSOL 在 A 侧
	LiquidityAdded bool // 流动性已非零
	DecodeDegraded bool // payload 解码失败，LiquidityAdded 取自默认策略

	// 来源定位
	Signature  string
	Slot       uint64
	IxIndex    uint16
	InnerIndex uint16
}

// ResolvePairing 根据 mint 计算储备资产配对信息
func (e *PoolEvent) ResolvePairing() {
	e.ReserveIsA = e.MintA == consts.WSOLMint
	e.IsReservePair = e.ReserveIsA || e.MintB == consts.WSOLMint
}

// TargetMint 返回非储备一侧的 mint（即要买入的 token）
func (e *PoolEvent) TargetMint() types.Pubkey {
	if e.ReserveIsA {
		return e.MintB
	}
	return e.MintA
}

// ReserveProtocolFee 返回储备资产一侧（即 swap 输入侧）的协议手续费账户
func (e *PoolEvent) ReserveProtocolFee() types.Pubkey {
	if e.ReserveIsA {
		return e.ProtocolTokenAFee
	}
	return e.ProtocolTokenBFee
}

// Swappable 判断事件是否携带了构造 swap 所需的全部账户
func (e *PoolEvent) Swappable() bool {
	required := []types.Pubkey{
		e.Pool, e.MintA, e.MintB,
		e.AVault, e.BVault, e.ATokenVault, e.BTokenVault,
		e.AVaultLpMint, e.BVaultLpMint, e.AVaultLp, e.BVaultLp,
		e.ReserveProtocolFee(),
	}
	for _, k := range required {
		if k.IsZero() {
			return false
		}
	}
	return true
}

// Qualifies 事件是否满足反应条件（去重之外的部分）
func (e *PoolEvent) Qualifies() bool {
	return e.IsReservePair && e.LiquidityAdded && e.Swappable()
}

// DedupKey 默认以池子地址去重；withSlot 时附加 slot 做更严格的防抖
func (e *PoolEvent) DedupKey(withSlot bool) string {
	if withSlot {
		return fmt.Sprintf("%s@%d", e.Pool, e.Slot)
	}
	return e.Pool.String()
}
