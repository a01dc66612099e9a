package txbuilder

import (
	"errors"
	"testing"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/testkit"
	"dex-sniper-sol/internal/types"

	"github.com/blocto/solana-go-sdk/common"
	soltypes "github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T, s Settings) *SigningContext {
	t.Helper()
	sc, err := NewSigningContext(soltypes.NewAccount(), s)
	require.NoError(t, err)
	return sc
}

func fullSettings() Settings {
	return Settings{
		ComputeUnitLimit: 200_000,
		ComputeUnitPrice: 100_000,
		TipLamports:      1_000_000,
		BuyLamports:      10_000_000,
		MinAmountOut:     1,
		WrapReserve:      true,
	}
}

func testBlockhash() types.Hash {
	var h types.Hash
	h[0] = 7
	h[31] = 7
	return h
}

func TestNewPlan_PhaseOrder(t *testing.T) {
	sc := newTestContext(t, fullSettings())
	ev := testkit.SwappableEvent(testkit.Key(1), testkit.Key(2))

	plan, err := NewPlan(sc, core.RelayJito, testBlockhash(), ev)
	require.NoError(t, err)
	require.NoError(t, plan.Validate())

	assert.Equal(t, []Phase{
		PhaseComputeBudget, PhaseComputeBudget,
		PhaseTip,
		PhaseAccountCreate, PhaseAccountCreate,
		PhaseBalance, PhaseBalance,
		PhaseSwap,
	}, plan.Phases())

	ixs := plan.Instructions()
	assert.Equal(t, computeBudgetSetLimit, ixs[0].Data[0])
	assert.Equal(t, computeBudgetSetPrice, ixs[1].Data[0])

	tip := ixs[2]
	assert.Equal(t, common.PublicKey(consts.SystemProgram), tip.ProgramID)
	assert.Equal(t, common.PublicKey(consts.JitoTipAccount), tip.Accounts[1].PubKey)

	// 包装 WSOL：转账与 SyncNative 都作用在 swap 的 source 账户上
	source := ixs[7].Accounts[1].PubKey
	transfer, syncNative := ixs[5], ixs[6]
	assert.Equal(t, source, transfer.Accounts[1].PubKey)
	assert.Equal(t, common.TokenProgramID, syncNative.ProgramID)
	require.Len(t, syncNative.Accounts, 1)
	assert.Equal(t, source, syncNative.Accounts[0].PubKey)
	assert.True(t, syncNative.Accounts[0].IsWritable)
}

func TestNewPlan_RPCHasNoTip(t *testing.T) {
	s := fullSettings()
	s.ComputeUnitLimit = 0
	s.ComputeUnitPrice = 0
	s.WrapReserve = false
	sc := newTestContext(t, s)

	plan, err := NewPlan(sc, core.RelayRPC, testBlockhash(), testkit.SwappableEvent(testkit.Key(1), testkit.Key(2)))
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseAccountCreate, PhaseSwap}, plan.Phases())
}

func TestNewPlan_TipAccountPerRelay(t *testing.T) {
	sc := newTestContext(t, fullSettings())
	ev := testkit.SwappableEvent(testkit.Key(1), testkit.Key(2))

	for kind, want := range map[core.RelayKind]types.Pubkey{
		core.RelayJito:      consts.JitoTipAccount,
		core.RelayBloxroute: consts.BloxrouteTipAccount,
		core.RelayNextBlock: consts.NextBlockTipAccount,
	} {
		plan, err := NewPlan(sc, kind, testBlockhash(), ev)
		require.NoError(t, err)
		var tips []Step
		for _, s := range plan.Steps {
			if s.Phase == PhaseTip {
				tips = append(tips, s)
			}
		}
		require.Len(t, tips, 1, kind)
		assert.Equal(t, common.PublicKey(want), tips[0].Instruction.Accounts[1].PubKey, kind)
	}
}

func TestSwapInstruction_Accounts(t *testing.T) {
	sc := newTestContext(t, fullSettings())
	ev := testkit.SwappableEvent(testkit.Key(1), testkit.Key(2))

	plan, err := NewPlan(sc, core.RelayRPC, testBlockhash(), ev)
	require.NoError(t, err)

	swap := plan.Steps[len(plan.Steps)-1].Instruction
	require.Len(t, swap.Accounts, 15)
	assert.Equal(t, common.PublicKey(consts.MeteoraPoolsProgram), swap.ProgramID)
	assert.Equal(t, common.PublicKey(ev.Pool), swap.Accounts[0].PubKey)
	// WSOL 在 B 侧，手续费账户取 B
	assert.Equal(t, common.PublicKey(ev.ProtocolTokenBFee), swap.Accounts[11].PubKey)

	user := swap.Accounts[12]
	assert.Equal(t, common.PublicKey(sc.Owner()), user.PubKey)
	assert.True(t, user.IsSigner)
	assert.False(t, user.IsWritable)

	for i := 0; i < 12; i++ {
		assert.True(t, swap.Accounts[i].IsWritable, "account #%d", i)
	}
	assert.False(t, swap.Accounts[13].IsWritable)
	assert.False(t, swap.Accounts[14].IsWritable)
	assert.Len(t, swap.Data, swapDataLen)
}

func TestEncodeSwapData_Lengths(t *testing.T) {
	data, err := encodeSwapData(10, 1, nil)
	require.NoError(t, err)
	assert.Len(t, data, 25)
	assert.Equal(t, testkit.Disc(swapDiscriminator), data[:8])
	assert.Equal(t, byte(0), data[24])

	activation := uint64(1_700_000_000)
	data, err = encodeSwapData(10, 1, &activation)
	require.NoError(t, err)
	assert.Len(t, data, 33)
	assert.Equal(t, byte(1), data[24])

	for _, n := range []int{0, 8, 24, 26, 32, 34} {
		err := checkSwapDataLen(make([]byte, n))
		assert.True(t, errors.Is(err, ErrSwapDataLength), "len %d", n)
	}
}

func TestNewPlan_ActivationPoint(t *testing.T) {
	s := fullSettings()
	activation := uint64(123)
	s.ActivationPoint = &activation
	sc := newTestContext(t, s)

	// 构造后修改原值不影响上下文
	activation = 999
	got := sc.Settings().ActivationPoint
	require.NotNil(t, got)
	assert.Equal(t, uint64(123), *got)

	plan, err := NewPlan(sc, core.RelayRPC, testBlockhash(), testkit.SwappableEvent(testkit.Key(1), testkit.Key(2)))
	require.NoError(t, err)
	assert.Len(t, plan.Steps[len(plan.Steps)-1].Instruction.Data, swapDataLenWithActivation)
}

func TestNewPlan_Rejects(t *testing.T) {
	sc := newTestContext(t, fullSettings())

	ev := testkit.SwappableEvent(testkit.Key(1), testkit.Key(2))
	ev.ProtocolTokenBFee = types.Pubkey{}
	_, err := NewPlan(sc, core.RelayRPC, testBlockhash(), ev)
	assert.ErrorIs(t, err, ErrNotSwappable)

	ev = testkit.SwappableEvent(testkit.Key(1), testkit.Key(2))
	ev.TokenProgram = consts.TokenProgram2022
	_, err = NewPlan(sc, core.RelayRPC, testBlockhash(), ev)
	assert.ErrorIs(t, err, ErrUnsupportedTokenProgram)

	_, err = NewPlan(sc, core.RelayRPC, testBlockhash(), nil)
	assert.ErrorIs(t, err, ErrNotSwappable)
}

func TestPlanValidate(t *testing.T) {
	sc := newTestContext(t, fullSettings())
	good, err := NewPlan(sc, core.RelayJito, testBlockhash(), testkit.SwappableEvent(testkit.Key(1), testkit.Key(2)))
	require.NoError(t, err)

	clone := func() *Plan {
		p := *good
		p.Steps = append([]Step(nil), good.Steps...)
		return &p
	}

	t.Run("price before limit", func(t *testing.T) {
		p := clone()
		p.Steps[0], p.Steps[1] = p.Steps[1], p.Steps[0]
		assert.ErrorIs(t, p.Validate(), ErrInvalidPlan)
	})
	t.Run("duplicate limit", func(t *testing.T) {
		p := clone()
		p.Steps = append([]Step{p.Steps[0]}, p.Steps...)
		assert.ErrorIs(t, p.Validate(), ErrInvalidPlan)
	})
	t.Run("swap not last", func(t *testing.T) {
		p := clone()
		p.Steps = append(p.Steps, p.Steps[2])
		assert.ErrorIs(t, p.Validate(), ErrInvalidPlan)
	})
	t.Run("two swaps", func(t *testing.T) {
		p := clone()
		p.Steps = append(p.Steps, p.Steps[len(p.Steps)-1])
		assert.ErrorIs(t, p.Validate(), ErrInvalidPlan)
	})
	t.Run("no swap", func(t *testing.T) {
		p := clone()
		p.Steps = p.Steps[:len(p.Steps)-1]
		assert.ErrorIs(t, p.Validate(), ErrInvalidPlan)
	})
	t.Run("tip after account creation", func(t *testing.T) {
		p := clone()
		p.Steps[2], p.Steps[3] = p.Steps[3], p.Steps[2]
		assert.ErrorIs(t, p.Validate(), ErrInvalidPlan)
	})
	t.Run("missing blockhash", func(t *testing.T) {
		p := clone()
		p.RecentBlockhash = types.Hash{}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPlan)
	})
}

func TestBuild_Signed(t *testing.T) {
	sc := newTestContext(t, fullSettings())
	ev := testkit.SwappableEvent(testkit.Key(1), testkit.Key(2))

	tx, err := Build(sc, core.RelayJito, testBlockhash(), ev)
	require.NoError(t, err)

	assert.NotEmpty(t, tx.Signature)
	assert.Equal(t, testBlockhash(), tx.Blockhash)
	assert.LessOrEqual(t, len(tx.Raw), consts.MaxTxSize)
	// compact-u16(1) + 64 字节签名后紧跟 v0 版本前缀
	require.Greater(t, len(tx.Raw), 66)
	assert.Equal(t, byte(1), tx.Raw[0])
	assert.Equal(t, byte(0x80), tx.Raw[65])
	assert.NotEmpty(t, tx.Base64())
	assert.NotEmpty(t, tx.Base58())
}

func TestNewSigningContext_Validation(t *testing.T) {
	_, err := NewSigningContext(soltypes.NewAccount(), Settings{})
	assert.Error(t, err)

	_, err = NewSigningContext(soltypes.Account{}, Settings{BuyLamports: 1})
	assert.Error(t, err)
}
