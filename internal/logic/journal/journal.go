package journal

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"dex-sniper-sol/internal/logic/core"

	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultBufferSize    = 256
	defaultFlushInterval = time.Second
	gcInterval           = time.Hour
	retention            = 30 * 24 * time.Hour
)

type Options struct {
	BufferSize    int
	FlushInterval time.Duration
}

// Journal 反应结果的 PostgreSQL 落库：Record 只写缓冲，后台定时或满额时批量写入。
// 同时是 reactor 的 Sink 与 go-zero 的 Service。
type Journal struct {
	logx.Logger
	store         Store
	buffer        *recordBuffer
	bufferSize    int
	flushInterval time.Duration
	flushSignal   chan struct{}
	ctx           context.Context
	cancel        context.CancelCauseFunc
	done          chan struct{}
	started       atomic.Bool
}

func New(store Store, opt Options) *Journal {
	if opt.BufferSize <= 0 {
		opt.BufferSize = defaultBufferSize
	}
	if opt.FlushInterval <= 0 {
		opt.FlushInterval = defaultFlushInterval
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Journal{
		Logger:        logx.WithContext(ctx).WithFields(logx.Field("service", "journal")),
		store:         store,
		buffer:        newRecordBuffer(),
		bufferSize:    opt.BufferSize,
		flushInterval: opt.FlushInterval,
		flushSignal:   make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
}

func (j *Journal) Name() string { return "postgres" }

// Record 非阻塞，缓冲满时通知后台立即落库
func (j *Journal) Record(_ context.Context, r *core.Reaction) error {
	if r == nil || r.Event == nil {
		return errors.New("journal: empty reaction")
	}
	if j.buffer.Add(NewReactionRecord(r)) >= j.bufferSize {
		select {
		case j.flushSignal <- struct{}{}:
		default:
		}
	}
	return nil
}

func (j *Journal) Start() {
	j.started.Store(true)
	defer close(j.done)

	ticker := time.NewTicker(j.flushInterval)
	defer ticker.Stop()
	gcTicker := time.NewTicker(gcInterval)
	defer gcTicker.Stop()

	for {
		select {
		case <-j.ctx.Done():
			// 退出前把剩余记录写完
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			j.Flush(ctx)
			cancel()
			return
		case <-ticker.C:
			j.Flush(j.ctx)
		case <-j.flushSignal:
			j.Flush(j.ctx)
		case <-gcTicker.C:
			n, err := j.store.DeleteBefore(j.ctx, time.Now().Add(-retention))
			if err != nil {
				j.Errorf("journal gc failed: %v", err)
			} else if n > 0 {
				j.Infof("journal gc deleted %d reactions", n)
			}
		}
	}
}

func (j *Journal) Stop() {
	j.cancel(errors.New("service stop"))
	if j.started.Load() {
		<-j.done
	}
}

// Flush 写入当前缓冲；失败时记录日志并丢弃，不阻塞后续写入
func (j *Journal) Flush(ctx context.Context) int {
	records := j.buffer.Flush()
	if len(records) == 0 {
		return 0
	}
	start := time.Now()
	if err := j.store.InsertBatch(ctx, records); err != nil {
		j.Errorf("journal flush failed, dropped %d reactions: %v", len(records), err)
		return 0
	}
	j.Debugf("journal flushed %d reactions in %v", len(records), time.Since(start))
	return len(records)
}
