package meteorapools

import (
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/eventparser/common"
)

// Meteora Pools - BootstrapLiquidity / AddBalanceLiquidity / AddImbalanceLiquidity 指令账户布局：
//
// #0  - Pool                // 池子主账户
// #1  - LP Mint             // 池子 LP 代币
// #2  - User Pool LP        // 用户接收 LP 的账户
// #3  - A Vault LP          // 池子持有的 A Vault LP
// #4  - B Vault LP          // 池子持有的 B Vault LP
// #5  - A Vault             // A 侧 Vault
// #6  - B Vault             // B 侧 Vault
// #7  - A Vault LP Mint     // A Vault 的 LP mint
// #8  - B Vault LP Mint     // B Vault 的 LP mint
// #9  - A Token Vault       // A Vault 的 token 账户
// #10 - B Token Vault       // B Vault 的 token 账户
// #11 - User A Token        // 用户 A 侧 token 账户
// #12 - User B Token        // 用户 B 侧 token 账户
// #13 - User                // Signer
// #14 - Vault Program       // Meteora Vault 程序
// #15 - Token Program       // SPL Token 程序
//
// 指令本身不带 mint，需从交易的 token balances 中按 token vault 还原；
// 也不带协议手续费账户，因此这类事件不可直接构造 swap。
func liquiditySchema(name string) *common.AccountSchema {
	return common.NewAccountSchema(name,
		"pool", "lpMint", "userPoolLp",
		"aVaultLp", "bVaultLp", "aVault", "bVault",
		"aVaultLpMint", "bVaultLpMint", "aTokenVault", "bTokenVault",
		"userAToken", "userBToken", "user",
		"vaultProgram", "tokenProgram",
	)
}

func newLiquidityEvent(ctx *common.ParseContext, acc *common.BoundAccounts) *core.PoolEvent {
	ev := &core.PoolEvent{
		Pool:         acc.Get("pool"),
		AVault:       acc.Get("aVault"),
		BVault:       acc.Get("bVault"),
		ATokenVault:  acc.Get("aTokenVault"),
		BTokenVault:  acc.Get("bTokenVault"),
		AVaultLpMint: acc.Get("aVaultLpMint"),
		BVaultLpMint: acc.Get("bVaultLpMint"),
		AVaultLp:     acc.Get("aVaultLp"),
		BVaultLp:     acc.Get("bVaultLp"),
		VaultProgram: acc.Get("vaultProgram"),
		TokenProgram: acc.Get("tokenProgram"),
	}
	if ctx.Tx != nil {
		ev.MintA, _ = ctx.Tx.MintOf(ev.ATokenVault)
		ev.MintB, _ = ctx.Tx.MintOf(ev.BTokenVault)
	}
	return ev
}

func decodeBootstrapLiquidity(ctx *common.ParseContext, ix *core.AdaptedInstruction, acc *common.BoundAccounts) (*core.PoolEvent, error) {
	ev := newLiquidityEvent(ctx, acc)
	decodeAmounts(ctx, ev, acc.SchemaName(), ix.Data, &twoAmountsArgs{})
	return ev, nil
}

func decodeAddBalanceLiquidity(ctx *common.ParseContext, ix *core.AdaptedInstruction, acc *common.BoundAccounts) (*core.PoolEvent, error) {
	ev := newLiquidityEvent(ctx, acc)
	decodeAmounts(ctx, ev, acc.SchemaName(), ix.Data, &addBalanceArgs{})
	return ev, nil
}

func decodeAddImbalanceLiquidity(ctx *common.ParseContext, ix *core.AdaptedInstruction, acc *common.BoundAccounts) (*core.PoolEvent, error) {
	ev := newLiquidityEvent(ctx, acc)
	decodeAmounts(ctx, ev, acc.SchemaName(), ix.Data, &addImbalanceArgs{})
	return ev, nil
}
