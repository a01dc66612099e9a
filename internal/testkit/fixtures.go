// Package testkit 提供各包测试共用的交易与事件构造器
package testkit

import (
	"encoding/binary"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/types"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

const (
	CreatePoolDisc uint64 = 0x3095dc823d0b09b2
	CreatePoolAccs        = 26
)

// Key 构造确定性的测试地址
func Key(b byte) types.Pubkey {
	var p types.Pubkey
	p[0] = b
	p[1] = 0x5A
	p[31] = b ^ 0xFF
	return p
}

// Disc 8 字节判别码（大端常量 → 字节）
func Disc(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// CreatePoolData 手工拼装 create pool payload：disc + u64 + u64 [+ Option<u64>]
func CreatePoolData(a, b uint64, activation *uint64) []byte {
	data := Disc(CreatePoolDisc)
	data = binary.LittleEndian.AppendUint64(data, a)
	data = binary.LittleEndian.AppendUint64(data, b)
	if activation == nil {
		return append(data, 0)
	}
	data = append(data, 1)
	return binary.LittleEndian.AppendUint64(data, *activation)
}

// CreatePoolKeys 返回 26 个账户地址：#0 pool，#3/#4 为 mint，其余按位置生成
func CreatePoolKeys(pool, mintA, mintB types.Pubkey) []types.Pubkey {
	keys := make([]types.Pubkey, CreatePoolAccs)
	for i := range keys {
		keys[i] = Key(byte(100 + i))
	}
	keys[0] = pool
	keys[3] = mintA
	keys[4] = mintB
	keys[22] = consts.MeteoraVaultProgram
	keys[23] = consts.TokenProgram
	return keys
}

// Metas 把地址包装成只读非签名的 AccountMeta
func Metas(keys []types.Pubkey) []core.AccountMeta {
	out := make([]core.AccountMeta, len(keys))
	for i, k := range keys {
		out[i] = core.AccountMeta{Pubkey: k}
	}
	return out
}

// CreatePoolInstruction 构造 Meteora create pool 指令
func CreatePoolInstruction(pool, mintA, mintB types.Pubkey, a, b uint64) *core.AdaptedInstruction {
	return &core.AdaptedInstruction{
		ProgramID: consts.MeteoraPoolsProgram,
		Accounts:  Metas(CreatePoolKeys(pool, mintA, mintB)),
		Data:      CreatePoolData(a, b, nil),
	}
}

// CreatePoolGrpcTx 构造一笔 gRPC 推送格式的 create pool 交易：
// 静态账户 #0 payer(signer)，#1 Meteora 程序，#2.. 为 26 个指令账户。
func CreatePoolGrpcTx(pool, mintA, mintB types.Pubkey, a, b uint64, blockhash types.Hash) *pb.SubscribeUpdateTransactionInfo {
	payer := Key(1)
	keys := [][]byte{payer[:], consts.MeteoraPoolsProgram[:]}
	idx := make([]byte, 0, CreatePoolAccs)
	for _, k := range CreatePoolKeys(pool, mintA, mintB) {
		keys = append(keys, append([]byte(nil), k[:]...))
		idx = append(idx, byte(len(keys)-1))
	}

	sig := make([]byte, 64)
	sig[0] = 9
	return &pb.SubscribeUpdateTransactionInfo{
		Signature: sig,
		Transaction: &pb.Transaction{
			Signatures: [][]byte{sig},
			Message: &pb.Message{
				Header:          &pb.MessageHeader{NumRequiredSignatures: 1},
				AccountKeys:     keys,
				RecentBlockhash: append([]byte(nil), blockhash[:]...),
				Instructions: []*pb.CompiledInstruction{
					{ProgramIdIndex: 1, Accounts: idx, Data: CreatePoolData(a, b, nil)},
				},
			},
		},
		Meta: &pb.TransactionStatusMeta{},
	}
}

// SwappableEvent 构造一个满足反应条件的 create pool 事件，WSOL 在 B 侧
func SwappableEvent(pool, target types.Pubkey) *core.PoolEvent {
	ev := &core.PoolEvent{
		Dex:               consts.DexMeteoraPools,
		Kind:              core.EventPoolCreated,
		Instruction:       "InitializePermissionlessConstantProductPoolWithConfig2",
		Pool:              pool,
		MintA:             target,
		MintB:             consts.WSOLMint,
		AVault:            Key(201),
		BVault:            Key(202),
		ATokenVault:       Key(203),
		BTokenVault:       Key(204),
		AVaultLpMint:      Key(205),
		BVaultLpMint:      Key(206),
		AVaultLp:          Key(207),
		BVaultLp:          Key(208),
		ProtocolTokenAFee: Key(209),
		ProtocolTokenBFee: Key(210),
		VaultProgram:      consts.MeteoraVaultProgram,
		TokenProgram:      consts.TokenProgram,
		TokenAAmount:      1000,
		TokenBAmount:      1000,
		LiquidityAdded:    true,
		Slot:              42,
	}
	ev.ResolvePairing()
	return ev
}
