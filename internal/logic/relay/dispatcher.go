package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/types"

	"github.com/zeromicro/go-zero/core/threading"
	"golang.org/x/time/rate"
)

// DispatchMode 多后端提交策略
type DispatchMode string

const (
	DispatchAll          DispatchMode = "all"           // 等待全部后端返回
	DispatchFirstSuccess DispatchMode = "first_success" // 任一成功后取消其余后端
)

const defaultBackendTimeout = 5 * time.Second

var (
	ErrRateLimited = errors.New("rate limited")
	ErrCanceled    = errors.New("canceled after sibling success")
)

// Backend 后端及其独立的超时与限速
type Backend struct {
	Adapter Adapter
	Timeout time.Duration
	Limiter *rate.Limiter // nil 表示不限速
}

// Dispatcher 并发提交到所有后端，按配置顺序返回结果
type Dispatcher struct {
	backends []Backend
	mode     DispatchMode
}

func NewDispatcher(mode DispatchMode, backends ...Backend) (*Dispatcher, error) {
	if len(backends) == 0 {
		return nil, errors.New("dispatcher: no backends configured")
	}
	switch mode {
	case "":
		mode = DispatchAll
	case DispatchAll, DispatchFirstSuccess:
	default:
		return nil, fmt.Errorf("dispatcher: unknown mode %q", mode)
	}
	for i := range backends {
		if backends[i].Adapter == nil {
			return nil, fmt.Errorf("dispatcher: backend #%d has no adapter", i)
		}
		if backends[i].Timeout <= 0 {
			backends[i].Timeout = defaultBackendTimeout
		}
	}
	return &Dispatcher{backends: backends, mode: mode}, nil
}

func (d *Dispatcher) Backends() []Backend {
	return d.backends
}

// Dispatch 每个后端一个 goroutine，互不阻塞；单个后端失败不影响其他后端
func (d *Dispatcher) Dispatch(ctx context.Context, sc *txbuilder.SigningContext, blockhash types.Hash, ev *core.PoolEvent) []core.RelayOutcome {
	outcomes := make([]core.RelayOutcome, len(d.backends))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var once sync.Once
	group := threading.NewRoutineGroup()
	for i := range d.backends {
		idx := i
		b := d.backends[idx]
		outcomes[idx] = core.RelayOutcome{
			Backend: b.Adapter.Name(),
			Kind:    core.OutcomeFailed,
			Err:     errors.New("backend did not report"),
		}

		if b.Limiter != nil && !b.Limiter.Allow() {
			outcomes[idx].Err = ErrRateLimited
			continue
		}

		group.RunSafe(func() {
			bctx, bcancel := context.WithTimeout(ctx, b.Timeout)
			defer bcancel()

			out := b.Adapter.Submit(bctx, sc, blockhash, ev)
			if out.Backend == "" {
				out.Backend = b.Adapter.Name()
			}
			if !out.Succeeded() && d.mode == DispatchFirstSuccess && errors.Is(ctx.Err(), context.Canceled) {
				out.Err = fmt.Errorf("%w: %v", ErrCanceled, out.Err)
			}
			outcomes[idx] = out

			if out.Succeeded() && d.mode == DispatchFirstSuccess {
				once.Do(cancel)
			}
		})
	}
	group.Wait()

	return outcomes
}
