package journal

import (
	"time"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
)

// ReactionRecord 一次反应对应一行 sniper_reaction
type ReactionRecord struct {
	DedupKey        string
	Pool            string
	TargetMint      string
	Dex             string
	Instruction     string
	Slot            int64
	SourceSignature string
	StartedAt       time.Time
	SuccessCount    int32
	Outcomes        []OutcomeRecord
}

// OutcomeRecord 每个后端一行 sniper_outcome
type OutcomeRecord struct {
	Backend   string
	Kind      string
	OutcomeID string
	Error     string
	LatencyMs int64
}

// NewReactionRecord 拍平为落库结构，不持有 Reaction 引用
func NewReactionRecord(r *core.Reaction) *ReactionRecord {
	ev := r.Event
	rec := &ReactionRecord{
		DedupKey:        r.DedupKey,
		Pool:            ev.Pool.String(),
		TargetMint:      ev.TargetMint().String(),
		Dex:             consts.DexName(ev.Dex),
		Instruction:     ev.Instruction,
		Slot:            int64(ev.Slot),
		SourceSignature: ev.Signature,
		StartedAt:       r.StartedAt,
		SuccessCount:    int32(r.SuccessCount()),
		Outcomes:        make([]OutcomeRecord, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		rec.Outcomes = append(rec.Outcomes, OutcomeRecord{
			Backend:   o.Backend,
			Kind:      o.Kind.String(),
			OutcomeID: o.ID,
			Error:     o.ErrString(),
			LatencyMs: o.Latency.Milliseconds(),
		})
	}
	return rec
}
