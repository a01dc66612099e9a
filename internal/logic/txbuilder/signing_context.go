package txbuilder

import (
	"errors"

	"dex-sniper-sol/internal/types"

	soltypes "github.com/blocto/solana-go-sdk/types"
)

// Settings 交易参数（金额均为最小单位）
type Settings struct {
	ComputeUnitLimit uint32  // 0 表示不设置
	ComputeUnitPrice uint64  // micro-lamports，0 表示不设置
	TipLamports      uint64  // 0 表示不给小费
	BuyLamports      uint64  // 花费的 WSOL 数量
	MinAmountOut     uint64  // 最少收到的 token 数量（含精度）
	ActivationPoint  *uint64 // 非空时追加到 swap 数据末尾
	WrapReserve      bool    // 是否先把原生 SOL 包装成 WSOL
}

// SigningContext 启动时构造一次，之后只读共享给所有并发任务，无需加锁。
// 私钥只在本包内用于签名，不对外暴露。
type SigningContext struct {
	account  soltypes.Account
	owner    types.Pubkey
	settings Settings
}

// NewSigningContext 校验参数并复制可变字段，保证构造后不可变
func NewSigningContext(account soltypes.Account, s Settings) (*SigningContext, error) {
	if len(account.PrivateKey) == 0 {
		return nil, errors.New("signing context: empty private key")
	}
	if s.BuyLamports == 0 {
		return nil, errors.New("signing context: buy amount must be greater than 0")
	}
	if s.ActivationPoint != nil {
		v := *s.ActivationPoint
		s.ActivationPoint = &v
	}
	return &SigningContext{
		account:  account,
		owner:    types.Pubkey(account.PublicKey),
		settings: s,
	}, nil
}

// Owner 签名者（也是 fee payer）地址
func (sc *SigningContext) Owner() types.Pubkey {
	return sc.owner
}

// Settings 返回参数副本
func (sc *SigningContext) Settings() Settings {
	s := sc.settings
	if s.ActivationPoint != nil {
		v := *s.ActivationPoint
		s.ActivationPoint = &v
	}
	return s
}
