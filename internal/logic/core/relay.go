package core

import (
	"time"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/types"
)

// RelayKind 提交后端类型，决定小费地址与传输编码
type RelayKind string

const (
	RelayRPC       RelayKind = "rpc"
	RelayJito      RelayKind = "jito"
	RelayBloxroute RelayKind = "bloxroute"
	RelayNextBlock RelayKind = "nextblock"
)

// TipAccount 返回该后端的小费收款地址；普通 RPC 没有小费
func (k RelayKind) TipAccount() (types.Pubkey, bool) {
	switch k {
	case RelayJito:
		return consts.JitoTipAccount, true
	case RelayBloxroute:
		return consts.BloxrouteTipAccount, true
	case RelayNextBlock:
		return consts.NextBlockTipAccount, true
	default:
		return types.Pubkey{}, false
	}
}

func (k RelayKind) Valid() bool {
	switch k {
	case RelayRPC, RelayJito, RelayBloxroute, RelayNextBlock:
		return true
	}
	return false
}

// OutcomeKind 归一化后的提交结果类型
type OutcomeKind uint8

const (
	OutcomeFailed    OutcomeKind = iota // 失败，Err 记录原因
	OutcomeSignature                    // 链上签名
	OutcomeBundleID                     // 中继/bundle 受理编号
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSignature:
		return "signature"
	case OutcomeBundleID:
		return "bundle_id"
	default:
		return "failed"
	}
}

// RelayOutcome 单个后端的提交结果
type RelayOutcome struct {
	Backend string
	Kind    OutcomeKind
	ID      string
	Err     error
	Latency time.Duration
}

func (o RelayOutcome) Succeeded() bool {
	return o.Kind != OutcomeFailed
}

// ErrString 便于日志与落库
func (o RelayOutcome) ErrString() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Reaction 记录一次对事件的完整反应
type Reaction struct {
	Event     *PoolEvent
	DedupKey  string
	StartedAt time.Time
	Outcomes  []RelayOutcome
}

// SuccessCount 成功提交的后端数量
func (r *Reaction) SuccessCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}
