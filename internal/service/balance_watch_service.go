package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"dex-sniper-sol/internal/observability"
	"dex-sniper-sol/internal/types"
	"dex-sniper-sol/pkg/logger"
)

const (
	defaultWatchInterval = 30 * time.Second
	fetchTimeout         = 5 * time.Second
)

// BalanceFetcher 查询账户 SOL 余额，blocto client.Client 直接满足
type BalanceFetcher interface {
	GetBalance(ctx context.Context, base58Addr string) (uint64, error)
}

// BalanceWatchService 周期性检查签名钱包余额，低于一次反应的花费时告警
type BalanceWatchService struct {
	fetcher  BalanceFetcher
	owner    types.Pubkey
	minimum  uint64 // 单次反应所需 lamports（买入 + 小费）
	interval time.Duration
	metrics  *observability.Metrics
	stopChan chan struct{}
	ctx      context.Context
	cancel   context.CancelCauseFunc
	last     atomic.Uint64
}

func NewBalanceWatchService(fetcher BalanceFetcher, owner types.Pubkey, minimum uint64, interval time.Duration, metrics *observability.Metrics) (*BalanceWatchService, error) {
	if fetcher == nil {
		return nil, errors.New("balance fetcher is required")
	}
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	return &BalanceWatchService{
		fetcher:  fetcher,
		owner:    owner,
		minimum:  minimum,
		interval: interval,
		metrics:  metrics,
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

func (s *BalanceWatchService) Start() {
	if err := s.update(); err != nil {
		logger.Warnf("[BalanceWatch] 首次查询失败: %v", err)
	}
	s.scheduleNext()
	<-s.stopChan
}

func (s *BalanceWatchService) scheduleNext() {
	time.AfterFunc(s.interval, func() {
		if err := s.update(); err != nil {
			logger.Warnf("[BalanceWatch] 周期性查询失败: %v", err)
		}
		select {
		case <-s.ctx.Done():
			return
		default:
			s.scheduleNext()
		}
	})
}

func (s *BalanceWatchService) Stop() {
	s.cancel(errors.New("BalanceWatchService stop"))
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
}

// Last 最近一次查询到的余额
func (s *BalanceWatchService) Last() uint64 {
	return s.last.Load()
}

func (s *BalanceWatchService) update() (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[BalanceWatch] update panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("update panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, fetchTimeout)
	defer cancel()

	balance, err := s.fetcher.GetBalance(ctx, s.owner.String())
	if err != nil {
		return fmt.Errorf("get balance of %s: %w", s.owner, err)
	}
	s.last.Store(balance)
	s.metrics.WalletBalance.Set(float64(balance))

	if balance < s.minimum {
		logger.Warnf("[BalanceWatch] 钱包 %s 余额 %d lamports 不足一次反应所需 %d", s.owner, balance, s.minimum)
	} else {
		logger.Debugf("[BalanceWatch] 钱包 %s 余额 %d lamports", s.owner, balance)
	}
	return nil
}
