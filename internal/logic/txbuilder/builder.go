package txbuilder

import (
	"encoding/base64"
	"errors"
	"fmt"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/compute_budget"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	soltypes "github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
)

var (
	ErrTxTooLarge              = errors.New("serialized transaction exceeds packet size")
	ErrNotSwappable            = errors.New("event lacks swap accounts")
	ErrUnsupportedTokenProgram = errors.New("token-2022 mints are not supported")
)

// SignedTx 已签名交易，绑定到构造时的 blockhash，过期需重新构造
type SignedTx struct {
	Tx        soltypes.Transaction
	Raw       []byte
	Signature string
	Blockhash types.Hash
}

func (t *SignedTx) Base64() string {
	return base64.StdEncoding.EncodeToString(t.Raw)
}

func (t *SignedTx) Base58() string {
	return base58.Encode(t.Raw)
}

// Build 针对某一提交后端构造并签名买入交易
func Build(sc *SigningContext, kind core.RelayKind, blockhash types.Hash, ev *core.PoolEvent) (*SignedTx, error) {
	plan, err := NewPlan(sc, kind, blockhash, ev)
	if err != nil {
		return nil, err
	}
	return plan.Sign(sc)
}

// NewPlan 按阶段顺序组装指令：compute budget -> tip -> 建账户 -> 包装 WSOL -> swap
func NewPlan(sc *SigningContext, kind core.RelayKind, blockhash types.Hash, ev *core.PoolEvent) (*Plan, error) {
	if ev == nil || !ev.IsReservePair || !ev.Swappable() {
		return nil, ErrNotSwappable
	}
	if ev.TokenProgram == consts.TokenProgram2022 {
		return nil, ErrUnsupportedTokenProgram
	}

	s := sc.settings
	owner := common.PublicKey(sc.owner)
	target := common.PublicKey(ev.TargetMint())
	wsol := common.PublicKey(consts.WSOLMint)

	destATA, _, err := common.FindAssociatedTokenAddress(owner, target)
	if err != nil {
		return nil, fmt.Errorf("derive destination ata: %w", err)
	}
	sourceATA, _, err := common.FindAssociatedTokenAddress(owner, wsol)
	if err != nil {
		return nil, fmt.Errorf("derive wsol ata: %w", err)
	}

	plan := &Plan{FeePayer: sc.owner, RecentBlockhash: blockhash}

	if s.ComputeUnitLimit > 0 {
		plan.add(PhaseComputeBudget, compute_budget.SetComputeUnitLimit(compute_budget.SetComputeUnitLimitParam{
			Units: s.ComputeUnitLimit,
		}))
	}
	if s.ComputeUnitPrice > 0 {
		plan.add(PhaseComputeBudget, compute_budget.SetComputeUnitPrice(compute_budget.SetComputeUnitPriceParam{
			MicroLamports: s.ComputeUnitPrice,
		}))
	}

	if tipAccount, ok := kind.TipAccount(); ok && s.TipLamports > 0 {
		plan.add(PhaseTip, system.Transfer(system.TransferParam{
			From:   owner,
			To:     common.PublicKey(tipAccount),
			Amount: s.TipLamports,
		}))
	}

	// 新池子的 token 用户必然没有 ATA，直接创建
	plan.add(PhaseAccountCreate, associated_token_account.Create(associated_token_account.CreateParam{
		Funder:                 owner,
		Owner:                  owner,
		Mint:                   target,
		AssociatedTokenAccount: destATA,
	}))

	if s.WrapReserve {
		plan.add(PhaseAccountCreate, associated_token_account.CreateIdempotent(associated_token_account.CreateIdempotentParam{
			Funder:                 owner,
			Owner:                  owner,
			Mint:                   wsol,
			AssociatedTokenAccount: sourceATA,
		}))
		plan.add(PhaseBalance, system.Transfer(system.TransferParam{
			From:   owner,
			To:     sourceATA,
			Amount: s.BuyLamports,
		}))
		plan.add(PhaseBalance, token.SyncNative(token.SyncNativeParam{
			Account: sourceATA,
		}))
	}

	data, err := encodeSwapData(s.BuyLamports, s.MinAmountOut, s.ActivationPoint)
	if err != nil {
		return nil, err
	}
	plan.add(PhaseSwap, buildSwapInstruction(ev, sc.owner, types.Pubkey(sourceATA), types.Pubkey(destATA), data))

	return plan, nil
}

// Sign 校验计划后编译为 v0 消息并签名
func (p *Plan) Sign(sc *SigningContext) (*SignedTx, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.FeePayer != sc.owner {
		return nil, fmt.Errorf("%w: fee payer is not the signer", ErrInvalidPlan)
	}

	msg := soltypes.NewMessage(soltypes.NewMessageParam{
		FeePayer:        common.PublicKey(p.FeePayer),
		Instructions:    p.Instructions(),
		RecentBlockhash: p.RecentBlockhash.String(),
	})
	msg.Version = soltypes.MessageVersionV0

	tx, err := soltypes.NewTransaction(soltypes.NewTransactionParam{
		Message: msg,
		Signers: []soltypes.Account{sc.account},
	})
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := tx.Serialize()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	if len(raw) > consts.MaxTxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTxTooLarge, len(raw))
	}
	if len(tx.Signatures) == 0 {
		return nil, errors.New("sign transaction: no signature produced")
	}

	return &SignedTx{
		Tx:        tx,
		Raw:       raw,
		Signature: base58.Encode(tx.Signatures[0]),
		Blockhash: p.RecentBlockhash,
	}, nil
}
