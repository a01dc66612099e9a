package consts

import "dex-sniper-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	SystemProgramStr          = "11111111111111111111111111111111"
	TokenProgramStr           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenProgram2022Str       = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	AssociatedTokenProgramStr = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	ComputeBudgetProgramIdStr = "ComputeBudget111111111111111111111111111111"
	RentSysvarStr             = "SysvarRent111111111111111111111111111111111"

	// 储备资产：WSOL
	WSOLMintStr = "So11111111111111111111111111111111111111112"

	// DEX: Meteora Dynamic AMM（Pools）及其依赖的 Vault 程序
	MeteoraPoolsProgramStr = "Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB"
	MeteoraVaultProgramStr = "24Uqj9JCLxUeoC3hGfh5W3s9FM9uCHDS2SG3LYwBpyTi"

	// 各中继的小费地址
	JitoTipAccountStr      = "Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"
	NextBlockTipAccountStr = "NextbLoCkVtMGcV47JzewQdvBpLqT9TxQFozQkN98pE"
	BloxrouteTipAccountStr = "HWEoBxYs7ssKuudEjzjmpfJVX7Dvi7wescFsVx2L5yoY"
)

// 公钥形式的地址常量，用于链上比对
var (
	SystemProgram          = types.PubkeyFromBase58(SystemProgramStr)
	TokenProgram           = types.PubkeyFromBase58(TokenProgramStr)
	TokenProgram2022       = types.PubkeyFromBase58(TokenProgram2022Str)
	AssociatedTokenProgram = types.PubkeyFromBase58(AssociatedTokenProgramStr)
	ComputeBudgetProgram   = types.PubkeyFromBase58(ComputeBudgetProgramIdStr)
	RentSysvar             = types.PubkeyFromBase58(RentSysvarStr)

	WSOLMint = types.PubkeyFromBase58(WSOLMintStr)

	MeteoraPoolsProgram = types.PubkeyFromBase58(MeteoraPoolsProgramStr)
	MeteoraVaultProgram = types.PubkeyFromBase58(MeteoraVaultProgramStr)

	JitoTipAccount      = types.PubkeyFromBase58(JitoTipAccountStr)
	NextBlockTipAccount = types.PubkeyFromBase58(NextBlockTipAccountStr)
	BloxrouteTipAccount = types.PubkeyFromBase58(BloxrouteTipAccountStr)
)
