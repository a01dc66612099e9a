package grpc

import (
	"context"
	"errors"
	"time"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/txadapter"
	"dex-sniper-sol/internal/observability"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
)

// TxHandler 对单笔交易做出反应
type TxHandler interface {
	HandleTx(ctx context.Context, tx *core.AdaptedTx) []*core.Reaction
}

type TxProcessor struct {
	logx.Logger
	txChan  chan *pb.SubscribeUpdateTransaction
	handler TxHandler
	metrics *observability.Metrics
	ctx     context.Context
	cancel  context.CancelCauseFunc
}

func NewTxProcessor(txChan chan *pb.SubscribeUpdateTransaction, handler TxHandler, metrics *observability.Metrics) *TxProcessor {
	ctx, cancel := context.WithCancelCause(context.Background())
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	return &TxProcessor{
		Logger:  logx.WithContext(ctx).WithFields(logx.Field("service", "tx_processor")),
		txChan:  txChan,
		handler: handler,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *TxProcessor) Start() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case update := <-p.txChan:
			p.procTx(update)
			if len(p.txChan) > 64 {
				p.Debugf("tx chan len: %d", len(p.txChan))
			}
		}
	}
}

func (p *TxProcessor) Stop() {
	p.cancel(errors.New("service stop"))
}

// procTx 展平在当前 goroutine 完成，反应交给独立 goroutine，慢提交不会阻塞 feed
func (p *TxProcessor) procTx(update *pb.SubscribeUpdateTransaction) {
	if update == nil || !IsValidGrpcTx(update.Transaction) {
		p.metrics.TxInvalid.Inc()
		return
	}

	txCtx := &core.TxContext{
		Slot:       update.Slot,
		ReceivedAt: time.Now().UnixMilli(),
	}
	adapted, err := txadapter.AdaptGrpcTx(txCtx, update.Transaction)
	if err != nil {
		p.metrics.TxInvalid.Inc()
		p.Errorf("adapt tx failed, slot=%d: %v", update.Slot, err)
		return
	}

	threading.GoSafe(func() {
		p.handler.HandleTx(p.ctx, adapted)
	})
}

func IsValidGrpcTx(tx *pb.SubscribeUpdateTransactionInfo) bool {
	if tx == nil || // - nil transaction info
		tx.Transaction == nil || // - missing Transaction field
		tx.Transaction.Message == nil || // - missing Message field in transaction
		len(tx.Transaction.Signatures) == 0 || // - missing transaction signature
		len(tx.Transaction.Signatures[0]) != 64 || // - invalid transaction signature length
		tx.IsVote || // - vote transaction skipped
		tx.Meta == nil || // - missing transaction meta data
		tx.Meta.Err != nil { // - transaction execution failed
		return false
	}
	return true
}
