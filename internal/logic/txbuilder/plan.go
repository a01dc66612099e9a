package txbuilder

import (
	"errors"
	"fmt"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/types"

	soltypes "github.com/blocto/solana-go-sdk/types"
)

// Phase 指令所处阶段，计划内阶段必须非递减
type Phase uint8

const (
	PhaseComputeBudget Phase = iota + 1
	PhaseTip
	PhaseAccountCreate
	PhaseBalance
	PhaseSwap
)

func (p Phase) String() string {
	switch p {
	case PhaseComputeBudget:
		return "compute_budget"
	case PhaseTip:
		return "tip"
	case PhaseAccountCreate:
		return "account_create"
	case PhaseBalance:
		return "balance"
	case PhaseSwap:
		return "swap"
	default:
		return "unknown"
	}
}

// compute budget 指令编号（首字节）
const (
	computeBudgetSetLimit byte = 2
	computeBudgetSetPrice byte = 3
)

var ErrInvalidPlan = errors.New("invalid plan")

type Step struct {
	Phase       Phase
	Instruction soltypes.Instruction
}

// Plan 签名前的有序指令序列
type Plan struct {
	FeePayer        types.Pubkey
	RecentBlockhash types.Hash
	Steps           []Step
}

func (p *Plan) add(phase Phase, ix soltypes.Instruction) {
	p.Steps = append(p.Steps, Step{Phase: phase, Instruction: ix})
}

// Instructions 按顺序返回全部指令
func (p *Plan) Instructions() []soltypes.Instruction {
	ixs := make([]soltypes.Instruction, 0, len(p.Steps))
	for _, s := range p.Steps {
		ixs = append(ixs, s.Instruction)
	}
	return ixs
}

// Phases 按顺序返回阶段标签
func (p *Plan) Phases() []Phase {
	phases := make([]Phase, 0, len(p.Steps))
	for _, s := range p.Steps {
		phases = append(phases, s.Phase)
	}
	return phases
}

// Validate 签名前检查计划的结构约束
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: empty plan", ErrInvalidPlan)
	}
	if p.FeePayer.IsZero() {
		return fmt.Errorf("%w: missing fee payer", ErrInvalidPlan)
	}
	if p.RecentBlockhash.IsZero() {
		return fmt.Errorf("%w: missing recent blockhash", ErrInvalidPlan)
	}

	var (
		prev     Phase
		limitIdx = -1
		priceIdx = -1
		swaps    int
	)
	for i, s := range p.Steps {
		if s.Phase < prev {
			return fmt.Errorf("%w: phase %s after %s at #%d", ErrInvalidPlan, s.Phase, prev, i)
		}
		prev = s.Phase

		program := types.Pubkey(s.Instruction.ProgramID)
		switch s.Phase {
		case PhaseComputeBudget:
			if program != consts.ComputeBudgetProgram || len(s.Instruction.Data) == 0 {
				return fmt.Errorf("%w: bad compute budget instruction at #%d", ErrInvalidPlan, i)
			}
			switch s.Instruction.Data[0] {
			case computeBudgetSetLimit:
				if limitIdx >= 0 {
					return fmt.Errorf("%w: duplicate compute unit limit", ErrInvalidPlan)
				}
				limitIdx = i
			case computeBudgetSetPrice:
				if priceIdx >= 0 {
					return fmt.Errorf("%w: duplicate compute unit price", ErrInvalidPlan)
				}
				priceIdx = i
			}
		case PhaseTip:
			if program != consts.SystemProgram {
				return fmt.Errorf("%w: tip must be a system transfer at #%d", ErrInvalidPlan, i)
			}
		case PhaseAccountCreate:
			if program != consts.AssociatedTokenProgram {
				return fmt.Errorf("%w: unexpected program %s in account creation at #%d", ErrInvalidPlan, program, i)
			}
		case PhaseBalance:
			if program != consts.SystemProgram && program != consts.TokenProgram {
				return fmt.Errorf("%w: unexpected program %s in balance phase at #%d", ErrInvalidPlan, program, i)
			}
		case PhaseSwap:
			if program != consts.MeteoraPoolsProgram {
				return fmt.Errorf("%w: swap must target meteora pools at #%d", ErrInvalidPlan, i)
			}
			if err := checkSwapDataLen(s.Instruction.Data); err != nil {
				return err
			}
			swaps++
		default:
			return fmt.Errorf("%w: unknown phase at #%d", ErrInvalidPlan, i)
		}
	}

	if limitIdx >= 0 && priceIdx >= 0 && limitIdx > priceIdx {
		return fmt.Errorf("%w: compute unit limit must precede price", ErrInvalidPlan)
	}
	if swaps != 1 {
		return fmt.Errorf("%w: expect exactly one swap, got %d", ErrInvalidPlan, swaps)
	}
	if p.Steps[len(p.Steps)-1].Phase != PhaseSwap {
		return fmt.Errorf("%w: swap must be the last instruction", ErrInvalidPlan)
	}
	return nil
}
