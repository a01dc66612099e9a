package meteorapools

import (
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/eventparser/common"
)

// Meteora Pools - InitializePermissionlessConstantProductPoolWithConfig(2) 指令账户布局：
//
// #0  - Pool                      // 池子主账户
// #1  - Config                    // 池子配置（费率、激活方式）
// #2  - LP Mint                   // 池子 LP 代币
// #3  - Token A Mint              // A 侧代币
// #4  - Token B Mint              // B 侧代币
// #5  - A Vault                   // A 侧 Vault（Meteora Vault 程序管理）
// #6  - B Vault                   // B 侧 Vault
// #7  - A Token Vault             // A Vault 的 token 账户
// #8  - B Token Vault             // B Vault 的 token 账户
// #9  - A Vault LP Mint           // A Vault 的 LP mint
// #10 - B Vault LP Mint           // B Vault 的 LP mint
// #11 - A Vault LP                // 池子持有的 A Vault LP
// #12 - B Vault LP                // 池子持有的 B Vault LP
// #13 - Payer Token A             // 创建者 A 侧 token 账户
// #14 - Payer Token B             // 创建者 B 侧 token 账户
// #15 - Payer Pool LP             // 创建者接收 LP 的账户
// #16 - Protocol Token A Fee      // A 侧协议手续费账户
// #17 - Protocol Token B Fee      // B 侧协议手续费账户
// #18 - Payer                     // 创建者（Signer + Fee Payer）
// #19 - Rent                      // Rent Sysvar
// #20 - Mint Metadata             // LP 元数据
// #21 - Metadata Program          // Metaplex 程序
// #22 - Vault Program             // Meteora Vault 程序
// #23 - Token Program             // SPL Token 程序
// #24 - Associated Token Program  // ATA 程序
// #25 - System Program            // 系统程序
func createPoolSchema(name string) *common.AccountSchema {
	return common.NewAccountSchema(name,
		"pool", "config", "lpMint", "tokenAMint", "tokenBMint",
		"aVault", "bVault", "aTokenVault", "bTokenVault",
		"aVaultLpMint", "bVaultLpMint", "aVaultLp", "bVaultLp",
		"payerTokenA", "payerTokenB", "payerPoolLp",
		"protocolTokenAFee", "protocolTokenBFee",
		"payer", "rent", "mintMetadata", "metadataProgram",
		"vaultProgram", "tokenProgram", "associatedTokenProgram", "systemProgram",
	)
}

func newCreatePoolEvent(acc *common.BoundAccounts) *core.PoolEvent {
	return &core.PoolEvent{
		Pool:              acc.Get("pool"),
		MintA:             acc.Get("tokenAMint"),
		MintB:             acc.Get("tokenBMint"),
		AVault:            acc.Get("aVault"),
		BVault:            acc.Get("bVault"),
		ATokenVault:       acc.Get("aTokenVault"),
		BTokenVault:       acc.Get("bTokenVault"),
		AVaultLpMint:      acc.Get("aVaultLpMint"),
		BVaultLpMint:      acc.Get("bVaultLpMint"),
		AVaultLp:          acc.Get("aVaultLp"),
		BVaultLp:          acc.Get("bVaultLp"),
		ProtocolTokenAFee: acc.Get("protocolTokenAFee"),
		ProtocolTokenBFee: acc.Get("protocolTokenBFee"),
		VaultProgram:      acc.Get("vaultProgram"),
		TokenProgram:      acc.Get("tokenProgram"),
	}
}

func decodeCreatePoolWithConfig2(ctx *common.ParseContext, ix *core.AdaptedInstruction, acc *common.BoundAccounts) (*core.PoolEvent, error) {
	ev := newCreatePoolEvent(acc)
	decodeAmounts(ctx, ev, acc.SchemaName(), ix.Data, &createPoolConfig2Args{})
	return ev, nil
}

func decodeCreatePoolWithConfig(ctx *common.ParseContext, ix *core.AdaptedInstruction, acc *common.BoundAccounts) (*core.PoolEvent, error) {
	ev := newCreatePoolEvent(acc)
	decodeAmounts(ctx, ev, acc.SchemaName(), ix.Data, &twoAmountsArgs{})
	return ev, nil
}
