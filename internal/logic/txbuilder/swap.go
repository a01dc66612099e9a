package txbuilder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	soltypes "github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

// Meteora Pools swap 判别码（大端常量形式）
const swapDiscriminator uint64 = 0xf8c69e91e17587c8

const (
	swapDataLen               = 8 + 8 + 8 + 1 // 无 activation point
	swapDataLenWithActivation = swapDataLen + 8
)

var ErrSwapDataLength = errors.New("swap data length must be 25 or 33 bytes")

// swapArgs: in_amount, minimum_out_amount, activation_point: Option<u64>
type swapArgs struct {
	InAmount         uint64
	MinimumOutAmount uint64
	ActivationPoint  *uint64
}

func encodeSwapData(in, minOut uint64, activation *uint64) ([]byte, error) {
	payload, err := borsh.Serialize(swapArgs{
		InAmount:         in,
		MinimumOutAmount: minOut,
		ActivationPoint:  activation,
	})
	if err != nil {
		return nil, fmt.Errorf("borsh serialize swap args: %w", err)
	}

	data := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint64(data, swapDiscriminator)
	data = append(data, payload...)
	if err := checkSwapDataLen(data); err != nil {
		return nil, err
	}
	return data, nil
}

// checkSwapDataLen 其他长度说明序列化有缺陷，绝不能发出
func checkSwapDataLen(data []byte) error {
	if len(data) != swapDataLen && len(data) != swapDataLenWithActivation {
		return fmt.Errorf("%w: got %d", ErrSwapDataLength, len(data))
	}
	return nil
}

// Meteora Pools - Swap 指令账户布局：
//
// #0  - Pool                    // 池子主账户（可写）
// #1  - User Source Token       // 用户 WSOL 账户（可写）
// #2  - User Destination Token  // 用户目标 token ATA（可写）
// #3  - A Vault                 // （可写）
// #4  - B Vault                 // （可写）
// #5  - A Token Vault           // （可写）
// #6  - B Token Vault           // （可写）
// #7  - A Vault LP Mint         // （可写）
// #8  - B Vault LP Mint         // （可写）
// #9  - A Vault LP              // （可写）
// #10 - B Vault LP              // （可写）
// #11 - Protocol Token Fee      // 输入侧（WSOL）协议手续费账户（可写）
// #12 - User                    // Signer，只读
// #13 - Vault Program           // 只读
// #14 - Token Program           // 只读
func buildSwapInstruction(ev *core.PoolEvent, user, source, destination types.Pubkey, data []byte) soltypes.Instruction {
	vaultProgram := ev.VaultProgram
	if vaultProgram.IsZero() {
		vaultProgram = consts.MeteoraVaultProgram
	}
	tokenProgram := ev.TokenProgram
	if tokenProgram.IsZero() {
		tokenProgram = consts.TokenProgram
	}

	w := func(p types.Pubkey) soltypes.AccountMeta {
		return soltypes.AccountMeta{PubKey: common.PublicKey(p), IsSigner: false, IsWritable: true}
	}
	ro := func(p types.Pubkey) soltypes.AccountMeta {
		return soltypes.AccountMeta{PubKey: common.PublicKey(p), IsSigner: false, IsWritable: false}
	}

	return soltypes.Instruction{
		ProgramID: common.PublicKey(consts.MeteoraPoolsProgram),
		Accounts: []soltypes.AccountMeta{
			w(ev.Pool),
			w(source),
			w(destination),
			w(ev.AVault),
			w(ev.BVault),
			w(ev.ATokenVault),
			w(ev.BTokenVault),
			w(ev.AVaultLpMint),
			w(ev.BVaultLpMint),
			w(ev.AVaultLp),
			w(ev.BVaultLp),
			w(ev.ReserveProtocolFee()),
			{PubKey: common.PublicKey(user), IsSigner: true, IsWritable: false},
			ro(vaultProgram),
			ro(tokenProgram),
		},
		Data: data,
	}
}
