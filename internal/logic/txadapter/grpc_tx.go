package txadapter

import (
	"fmt"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/types"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// buildFullAccountKeys 构造交易中完整的账户列表，并标注 signer / writable 属性。
// 顺序：message.accountKeys → ALT writable → ALT readonly，与链上 accountIndex 一致。
//
// 属性规则（来自 message header）：
//   - index < numRequiredSignatures 为 signer；
//   - signer 中前 numSig-numReadonlySigned 个可写；
//   - 非 signer 的静态账户中，末尾 numReadonlyUnsigned 个只读；
//   - ALT writable 全部可写，ALT readonly 全部只读，均不可能是 signer。
func buildFullAccountKeys(
	header *pb.MessageHeader,
	accountKeys, loadedWritable, loadedReadonly [][]byte,
) ([]core.AccountMeta, error) {
	total := len(accountKeys) + len(loadedWritable) + len(loadedReadonly)
	metas := make([]core.AccountMeta, total)

	numStatic := len(accountKeys)
	numSig := int(header.GetNumRequiredSignatures())
	numRoSigned := int(header.GetNumReadonlySignedAccounts())
	numRoUnsigned := int(header.GetNumReadonlyUnsignedAccounts())
	if numSig > numStatic || numRoSigned > numSig || numRoUnsigned > numStatic-numSig {
		return nil, fmt.Errorf("invalid message header: sig=%d roSigned=%d roUnsigned=%d static=%d",
			numSig, numRoSigned, numRoUnsigned, numStatic)
	}

	i := 0 // 写入索引

	// 主账户部分（来自 message.accountKeys）
	for _, b := range accountKeys {
		if len(b) != 32 {
			return nil, fmt.Errorf("invalid pubkey in accountKeys at index %d", i)
		}
		copy(metas[i].Pubkey[:], b)
		if i < numSig {
			metas[i].IsSigner = true
			metas[i].IsWritable = i < numSig-numRoSigned
		} else {
			metas[i].IsWritable = i < numStatic-numRoUnsigned
		}
		i++
	}

	// Address Table 中的 writable 部分
	for _, b := range loadedWritable {
		if len(b) != 32 {
			return nil, fmt.Errorf("invalid pubkey in loadedWritable at index %d", i)
		}
		copy(metas[i].Pubkey[:], b)
		metas[i].IsWritable = true
		i++
	}

	// Address Table 中的 readonly 部分
	for _, b := range loadedReadonly {
		if len(b) != 32 {
			return nil, fmt.Errorf("invalid pubkey in loadedReadonly at index %d", i)
		}
		copy(metas[i].Pubkey[:], b)
		i++
	}
	return metas, nil
}

// buildTokenAccounts 从 pre/post token balances 还原 token account → mint 映射
func buildTokenAccounts(tx *pb.SubscribeUpdateTransactionInfo, accountKeys []core.AccountMeta) map[types.Pubkey]types.Pubkey {
	postList := tx.Meta.PostTokenBalances
	preList := tx.Meta.PreTokenBalances

	capacity := len(preList) + len(postList)
	result := make(map[types.Pubkey]types.Pubkey, capacity)
	resolver := newMintResolver(capacity)

	// 先 post 后 pre：post 代表最终状态，pre-only 说明账户在交易中被关闭
	for _, list := range [][]*pb.TokenBalance{postList, preList} {
		for _, b := range list {
			if b == nil || int(b.AccountIndex) >= len(accountKeys) {
				continue
			}
			account := accountKeys[b.AccountIndex].Pubkey
			if _, ok := result[account]; ok {
				continue
			}
			if mint, ok := resolver.resolve(b.Mint); ok {
				result[account] = mint
			}
		}
	}
	return result
}

// buildAdaptedInstructions 扁平化解析主指令与 inner 指令，输出统一结构。
// 每条主指令与其 inner 指令将展开为多条 AdaptedInstruction：
//   - IxIndex：主指令索引；
//   - InnerIndex：0 表示主指令，1及以上表示对应的 inner 指令序号。
func buildAdaptedInstructions(
	tx *pb.SubscribeUpdateTransactionInfo,
	accountKeys []core.AccountMeta,
) []*core.AdaptedInstruction {
	rawInstructions := tx.Transaction.Message.Instructions
	rawInners := tx.Meta.InnerInstructions

	instructions := make([]*core.AdaptedInstruction, 0, max(len(rawInstructions)*2, 16))
	innerIndex := 0

	for i, inst := range rawInstructions {
		instructions = append(instructions, &core.AdaptedInstruction{
			IxIndex:    uint16(i),
			InnerIndex: 0,
			ProgramID:  accountKeys[inst.ProgramIdIndex].Pubkey,
			Accounts:   resolveAccounts(inst.Accounts, accountKeys),
			Data:       inst.Data,
		})

		// 注意：每个主指令最多对应一个 inner 指令块，且 inner 列表按 Index 递增排列，
		// 因此此处采用顺序匹配，无需 map 或多次扫描。
		if innerIndex < len(rawInners) && int(rawInners[innerIndex].Index) == i {
			for j, inner := range rawInners[innerIndex].Instructions {
				instructions = append(instructions, &core.AdaptedInstruction{
					IxIndex:    uint16(i),
					InnerIndex: uint16(j + 1),
					ProgramID:  accountKeys[inner.ProgramIdIndex].Pubkey,
					Accounts:   resolveAccounts(inner.Accounts, accountKeys),
					Data:       inner.Data,
				})
			}
			innerIndex++
		}
	}

	return instructions
}

func resolveAccounts(indexes []byte, accountKeys []core.AccountMeta) []core.AccountMeta {
	accounts := make([]core.AccountMeta, len(indexes))
	for k, idx := range indexes {
		accounts[k] = accountKeys[idx]
	}
	return accounts
}

// AdaptGrpcTx 将 gRPC 推送的交易解析为内部 AdaptedTx 结构。
// 完整流程：
//  1. 构建 accountKeys（含 Address Lookup 与 signer/writable 属性）；
//  2. 构建指令（主 + inner，按执行顺序）；
//  3. 构建 token account → mint 映射；
//  4. 返回 AdaptedTx；越界等 panic 会被 recover 为 error。
func AdaptGrpcTx(txCtx *core.TxContext, tx *pb.SubscribeUpdateTransactionInfo) (_ *core.AdaptedTx, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("AdaptGrpcTx panic: %v", r)
		}
	}()

	if tx == nil || tx.Transaction == nil || tx.Transaction.Message == nil || tx.Meta == nil {
		return nil, fmt.Errorf("invalid transaction: missing message or meta")
	}
	msg := tx.Transaction.Message

	accountKeys, err := buildFullAccountKeys(
		msg.Header,
		msg.AccountKeys,
		tx.Meta.LoadedWritableAddresses,
		tx.Meta.LoadedReadonlyAddresses,
	)
	if err != nil {
		return nil, fmt.Errorf("buildFullAccountKeys error: %w", err)
	}

	if len(tx.Transaction.Signatures) == 0 || len(accountKeys) == 0 || !accountKeys[0].IsSigner {
		return nil, fmt.Errorf("invalid transaction: missing signature or fee payer")
	}

	blockhash, err := types.HashFromBytes(msg.RecentBlockhash)
	if err != nil {
		return nil, fmt.Errorf("invalid recent blockhash: %w", err)
	}

	return &core.AdaptedTx{
		TxCtx:           txCtx,
		TxIndex:         uint32(tx.Index),
		Signature:       tx.Transaction.Signatures[0],
		RecentBlockhash: blockhash,
		FeePayer:        accountKeys[0].Pubkey,
		Instructions:    buildAdaptedInstructions(tx, accountKeys),
		TokenAccounts:   buildTokenAccounts(tx, accountKeys),
	}, nil
}
