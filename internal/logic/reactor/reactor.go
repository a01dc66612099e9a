package reactor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/dedup"
	"dex-sniper-sol/internal/logic/eventparser"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/observability"
	"dex-sniper-sol/internal/types"
	"dex-sniper-sol/pkg/logger"
)

// Dispatcher 多后端并发提交
type Dispatcher interface {
	Dispatch(ctx context.Context, sc *txbuilder.SigningContext, blockhash types.Hash, ev *core.PoolEvent) []core.RelayOutcome
}

// Sink 反应结果的落地（Kafka / Postgres 等），失败只记录日志
type Sink interface {
	Name() string
	Record(ctx context.Context, r *core.Reaction) error
}

type Options struct {
	Parser        *eventparser.Parser
	Guard         dedup.Guard
	Dispatcher    Dispatcher
	Signer        *txbuilder.SigningContext
	Metrics       *observability.Metrics
	Sinks         []Sink
	DedupWithSlot bool
}

// Reactor 解析 -> 过滤 -> 去重 -> 提交 -> 记录
type Reactor struct {
	parser        *eventparser.Parser
	guard         dedup.Guard
	dispatcher    Dispatcher
	signer        *txbuilder.SigningContext
	metrics       *observability.Metrics
	sinks         []Sink
	dedupWithSlot bool
}

func New(opt Options) (*Reactor, error) {
	switch {
	case opt.Parser == nil:
		return nil, errors.New("reactor: parser is required")
	case opt.Guard == nil:
		return nil, errors.New("reactor: dedup guard is required")
	case opt.Dispatcher == nil:
		return nil, errors.New("reactor: dispatcher is required")
	case opt.Signer == nil:
		return nil, errors.New("reactor: signing context is required")
	}
	m := opt.Metrics
	if m == nil {
		m = observability.NewMetrics("")
	}
	return &Reactor{
		parser:        opt.Parser,
		guard:         opt.Guard,
		dispatcher:    opt.Dispatcher,
		signer:        opt.Signer,
		metrics:       m,
		sinks:         opt.Sinks,
		dedupWithSlot: opt.DedupWithSlot,
	}, nil
}

// HandleTx 处理一笔交易，返回本次实际发起的反应。任何错误都不会向上传播。
func (r *Reactor) HandleTx(ctx context.Context, tx *core.AdaptedTx) []*core.Reaction {
	if tx == nil {
		return nil
	}

	events := r.parser.Parse(tx)
	if len(events) == 0 {
		return nil
	}

	var reactions []*core.Reaction
	for _, ev := range events {
		r.metrics.EventsParsed.WithLabelValues(ev.Kind.String()).Inc()
		if reaction := r.react(ctx, tx, ev); reaction != nil {
			reactions = append(reactions, reaction)
		}
	}
	return reactions
}

func (r *Reactor) react(ctx context.Context, tx *core.AdaptedTx, ev *core.PoolEvent) *core.Reaction {
	if reason := rejectReason(ev); reason != "" {
		r.metrics.EventsFiltered.WithLabelValues(reason).Inc()
		logger.Debugf("[Reactor:Filter] skip %s pool=%s reason=%s tx=%s", ev.Instruction, ev.Pool, reason, ev.Signature)
		return nil
	}

	key := ev.DedupKey(r.dedupWithSlot)
	acquired, err := r.guard.TryAcquire(ctx, key)
	if err != nil {
		// 去重不可用时宁可错过，也不重复下单
		r.metrics.DedupErrors.Inc()
		logger.Errorf("[Reactor:Dedup] guard failed, skip pool=%s: %v", ev.Pool, err)
		return nil
	}
	if !acquired {
		r.metrics.DedupSuppressed.Inc()
		logger.Debugf("[Reactor:Dedup] duplicate pool=%s tx=%s", ev.Pool, ev.Signature)
		return nil
	}

	reaction := &core.Reaction{
		Event:     ev,
		DedupKey:  key,
		StartedAt: time.Now(),
	}
	r.metrics.ReactionsStarted.Inc()
	logger.Infof("[Reactor:React] %s pool=%s mint=%s amounts=%d/%d slot=%d tx=%s",
		ev.Instruction, ev.Pool, ev.TargetMint(), ev.TokenAAmount, ev.TokenBAmount, ev.Slot, ev.Signature)

	reaction.Outcomes = r.dispatcher.Dispatch(ctx, r.signer, tx.RecentBlockhash, ev)
	r.record(ctx, tx, reaction)
	return reaction
}

func rejectReason(ev *core.PoolEvent) string {
	switch {
	case !ev.IsReservePair:
		return "not_reserve_pair"
	case !ev.LiquidityAdded:
		return "no_liquidity"
	case !ev.Swappable():
		return "not_swappable"
	}
	return ""
}

func (r *Reactor) record(ctx context.Context, tx *core.AdaptedTx, reaction *core.Reaction) {
	for _, o := range reaction.Outcomes {
		result := o.Kind.String()
		r.metrics.RelayOutcomes.WithLabelValues(o.Backend, result).Inc()
		r.metrics.RelayLatency.WithLabelValues(o.Backend).Observe(o.Latency.Seconds())
		if o.Succeeded() {
			logger.Infof("[Reactor:Outcome] %s %s=%s latency=%s", o.Backend, result, o.ID, o.Latency)
		} else {
			logger.Warnf("[Reactor:Outcome] %s failed latency=%s: %s", o.Backend, o.Latency, o.ErrString())
		}
	}

	succeeded := reaction.SuccessCount()
	r.metrics.ReactionSuccesses.Observe(float64(succeeded))
	if tx.TxCtx != nil && tx.TxCtx.ReceivedAt > 0 {
		elapsed := time.Since(time.UnixMilli(tx.TxCtx.ReceivedAt))
		r.metrics.ReactionLatency.Observe(elapsed.Seconds())
	}
	logger.Infof("[Reactor:Done] pool=%s dex=%s success=%d/%d", reaction.Event.Pool,
		consts.DexName(reaction.Event.Dex), succeeded, len(reaction.Outcomes))

	for _, s := range r.sinks {
		if err := safeRecord(ctx, s, reaction); err != nil {
			r.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			logger.Errorf("[Reactor:Sink] %s failed pool=%s: %v", s.Name(), reaction.Event.Pool, err)
		}
	}
}

func safeRecord(ctx context.Context, s Sink, reaction *core.Reaction) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return s.Record(ctx, reaction)
}
