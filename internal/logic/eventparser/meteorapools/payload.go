package meteorapools

import (
	"fmt"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/eventparser/common"
	"dex-sniper-sol/pkg/logger"

	"github.com/near/borsh-go"
)

// amountsPayload 各指令 payload 的统一视图：两侧数量 + 可选激活点
type amountsPayload interface {
	amounts() (a, b uint64)
	activation() *uint64
	// layout 按严格布局校验 payload 长度与 Option 标记，必要时返回补齐后的数据
	layout(data []byte) ([]byte, error)
}

const (
	twoAmountsLen   = 16
	threeAmountsLen = 24
)

func exactLen(data []byte, want int) ([]byte, error) {
	if len(data) != want {
		return nil, fmt.Errorf("payload length %d, want %d", len(data), want)
	}
	return data, nil
}

// createPoolConfig2Args: token_a_amount, token_b_amount, activation_point: Option<u64>
type createPoolConfig2Args struct {
	TokenAAmount    uint64
	TokenBAmount    uint64
	ActivationPoint *uint64
}

func (p *createPoolConfig2Args) amounts() (uint64, uint64) { return p.TokenAAmount, p.TokenBAmount }
func (p *createPoolConfig2Args) activation() *uint64        { return p.ActivationPoint }

// layout 合法长度：16（省略 Option，视为 None）、17（flag=0）、25（flag=1）
func (p *createPoolConfig2Args) layout(data []byte) ([]byte, error) {
	if len(data) == twoAmountsLen {
		return append(data[:twoAmountsLen:twoAmountsLen], 0), nil
	}
	if len(data) < twoAmountsLen+1 {
		return nil, fmt.Errorf("payload length %d too short", len(data))
	}
	switch flag := data[twoAmountsLen]; {
	case flag == 0 && len(data) == twoAmountsLen+1:
		return data, nil
	case flag == 1 && len(data) == twoAmountsLen+1+8:
		return data, nil
	case flag > 1:
		return nil, fmt.Errorf("invalid option flag %d", flag)
	default:
		return nil, fmt.Errorf("payload length %d does not match option flag %d", len(data), flag)
	}
}

// twoAmountsArgs: token_a_amount, token_b_amount
type twoAmountsArgs struct {
	TokenAAmount uint64
	TokenBAmount uint64
}

func (p *twoAmountsArgs) amounts() (uint64, uint64) { return p.TokenAAmount, p.TokenBAmount }
func (p *twoAmountsArgs) activation() *uint64        { return nil }
func (p *twoAmountsArgs) layout(data []byte) ([]byte, error) {
	return exactLen(data, twoAmountsLen)
}

// addBalanceArgs: pool_token_amount, maximum_token_a_amount, maximum_token_b_amount
type addBalanceArgs struct {
	PoolTokenAmount     uint64
	MaximumTokenAAmount uint64
	MaximumTokenBAmount uint64
}

func (p *addBalanceArgs) amounts() (uint64, uint64) { return p.MaximumTokenAAmount, p.MaximumTokenBAmount }
func (p *addBalanceArgs) activation() *uint64        { return nil }
func (p *addBalanceArgs) layout(data []byte) ([]byte, error) {
	return exactLen(data, threeAmountsLen)
}

// addImbalanceArgs: minimum_pool_token_amount, token_a_amount, token_b_amount
type addImbalanceArgs struct {
	MinimumPoolTokenAmount uint64
	TokenAAmount           uint64
	TokenBAmount           uint64
}

func (p *addImbalanceArgs) amounts() (uint64, uint64) { return p.TokenAAmount, p.TokenBAmount }
func (p *addImbalanceArgs) activation() *uint64        { return nil }
func (p *addImbalanceArgs) layout(data []byte) ([]byte, error) {
	return exactLen(data, threeAmountsLen)
}

// decodeAmounts 解码 8 字节判别码之后的 payload，并填充金额与流动性标记。
// 多余字节、非法 Option 标记同样视为解码失败。
// 解码失败不放弃事件，LiquidityAdded 退化为策略默认值。
func decodeAmounts(ctx *common.ParseContext, ev *core.PoolEvent, name string, data []byte, payload amountsPayload) {
	body, err := payload.layout(data[8:])
	if err == nil {
		err = safeDeserialize(payload, body)
	}
	if err != nil {
		ev.DecodeDegraded = true
		ev.LiquidityAdded = ctx.Policy.AssumeLiquidityOnDecodeFailure
		logger.Debugf("[%s] payload 解码失败，按策略处理 liquidity=%v: %v", name, ev.LiquidityAdded, err)
		return
	}

	a, b := payload.amounts()
	ev.TokenAAmount = a
	ev.TokenBAmount = b
	if ap := payload.activation(); ap != nil {
		v := *ap
		ev.ActivationPoint = &v
	}
	ev.LiquidityAdded = a > 0 && b > 0
}

func safeDeserialize(payload amountsPayload, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("borsh.Deserialize panic: %v", r)
		}
	}()
	return borsh.Deserialize(payload, data)
}
