package meteorapools

import (
	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/eventparser/common"
	"dex-sniper-sol/internal/types"
)

const (
	// Create Pool 系列
	// sha256("global:initialize_permissionless_constant_product_pool_with_config2")[:8]，不是 0xafaf6d1f0d989bed（global:initialize）
	InitializePermissionlessConstantProductPoolWithConfig2 uint64 = 0x3095dc823d0b09b2
	InitializePermissionlessConstantProductPoolWithConfig  uint64 = 0x07a68aabceabecf4

	// 添加流动性
	BootstrapLiquidity    uint64 = 0x04e4d747e1fd77ce
	AddBalanceLiquidity   uint64 = 0xa8e3323ebdab54b0
	AddImbalanceLiquidity uint64 = 0x4f237a54ad0f5dbf

	// Swap
	Swap uint64 = 0xf8c69e91e17587c8
)

var signatures = common.NewSignatureTable(
	&common.Signature{
		Name:          "InitializePermissionlessConstantProductPoolWithConfig2",
		Discriminator: InitializePermissionlessConstantProductPoolWithConfig2,
		Kind:          core.EventPoolCreated,
		Schema:        createPoolSchema("MeteoraPools:InitializeWithConfig2"),
		Decode:        decodeCreatePoolWithConfig2,
	},
	&common.Signature{
		Name:          "InitializePermissionlessConstantProductPoolWithConfig",
		Discriminator: InitializePermissionlessConstantProductPoolWithConfig,
		Kind:          core.EventPoolCreated,
		Schema:        createPoolSchema("MeteoraPools:InitializeWithConfig"),
		Decode:        decodeCreatePoolWithConfig,
	},
	&common.Signature{
		Name:          "BootstrapLiquidity",
		Discriminator: BootstrapLiquidity,
		Kind:          core.EventLiquidityAdded,
		Schema:        liquiditySchema("MeteoraPools:BootstrapLiquidity"),
		Decode:        decodeBootstrapLiquidity,
	},
	&common.Signature{
		Name:          "AddBalanceLiquidity",
		Discriminator: AddBalanceLiquidity,
		Kind:          core.EventDeposit,
		Schema:        liquiditySchema("MeteoraPools:AddBalanceLiquidity"),
		Decode:        decodeAddBalanceLiquidity,
	},
	&common.Signature{
		Name:          "AddImbalanceLiquidity",
		Discriminator: AddImbalanceLiquidity,
		Kind:          core.EventDeposit,
		Schema:        liquiditySchema("MeteoraPools:AddImbalanceLiquidity"),
		Decode:        decodeAddImbalanceLiquidity,
	},
)

// NewAdapter 返回 Meteora Dynamic AMM 的 DexAdapter
func NewAdapter() common.DexAdapter {
	return common.NewTableAdapter("meteora_pools", consts.DexMeteoraPools, consts.MeteoraPoolsProgram, signatures)
}

// RegisterAdapters 注册 Meteora Pools 程序的解析器
func RegisterAdapters(m map[types.Pubkey]common.DexAdapter) {
	a := NewAdapter()
	m[a.ProgramID()] = a
}
