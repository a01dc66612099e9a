package svc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dex-sniper-sol/internal/config"
	"dex-sniper-sol/internal/logic/dedup"
	"dex-sniper-sol/internal/logic/eventparser"
	"dex-sniper-sol/internal/logic/eventparser/common"
	"dex-sniper-sol/internal/logic/journal"
	"dex-sniper-sol/internal/logic/reactor"
	"dex-sniper-sol/internal/logic/relay"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/internal/mq"
	"dex-sniper-sol/internal/observability"
	"dex-sniper-sol/internal/service"
	"dex-sniper-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const initTimeout = 10 * time.Second

// ServiceContext 进程级共享资源，启动时一次性构造，运行期只读
type ServiceContext struct {
	Config       *config.SniperConfig
	Metrics      *observability.Metrics
	Signer       *txbuilder.SigningContext
	HTTPClient   *http.Client
	BackendConfs []relay.BackendConf
	Backends     []relay.Backend
	Reactor      *reactor.Reactor

	// 以下为可选组件，未配置时为 nil
	Redis    *redis.Client
	Producer *kafka.Producer
	PgPool   *pgxpool.Pool
	Journal  *journal.Journal
	Balance  *service.BalanceWatchService
}

// NewServiceContext 按配置组装 parser、去重、签名、提交后端与结果落地
func NewServiceContext(c *config.SniperConfig) (_ *ServiceContext, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	sc := &ServiceContext{
		Config:  c,
		Metrics: observability.NewMetrics(""),
	}
	defer func() {
		if err != nil {
			sc.Close()
		}
	}()

	// 1. 签名账户与买入参数
	account, err := c.Wallet.Account()
	if err != nil {
		return nil, err
	}
	settings, err := c.Trade.ToSettings()
	if err != nil {
		return nil, err
	}
	sc.Signer, err = txbuilder.NewSigningContext(account, settings)
	if err != nil {
		return nil, err
	}
	logger.Infof("signer %s, buy %d lamports, tip %d lamports", sc.Signer.Owner(), settings.BuyLamports, settings.TipLamports)

	// 2. 去重
	dedupOpt := c.Dedup.ToOptions()
	if dedupOpt.Mode == dedup.ModeRedis {
		sc.Redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err = sc.Redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis %s: %w", c.RedisAddr, err)
		}
		dedupOpt.Redis = sc.Redis
	}
	guard, err := dedup.New(dedupOpt)
	if err != nil {
		return nil, err
	}

	// 3. 提交后端
	sc.HTTPClient = relay.NewHTTPClient(time.Duration(c.Dispatch.HttpTimeoutMs) * time.Millisecond)
	sc.BackendConfs = make([]relay.BackendConf, 0, len(c.Relays))
	for i := range c.Relays {
		sc.BackendConfs = append(sc.BackendConfs, c.Relays[i].ToBackendConf())
	}
	sc.Backends, err = relay.NewBackends(sc.BackendConfs, sc.HTTPClient)
	if err != nil {
		return nil, err
	}
	dispatcher, err := relay.NewDispatcher(relay.DispatchMode(c.Dispatch.Mode), sc.Backends...)
	if err != nil {
		return nil, err
	}

	// 4. 结果落地
	var sinks []reactor.Sink
	if c.KafkaProducerConf.Enabled() {
		kc := c.KafkaProducerConf
		sc.Producer, err = mq.NewKafkaProducer(mq.KafkaProducerOption{
			Brokers:   kc.Brokers,
			BatchSize: kc.BatchSize,
			LingerMs:  kc.LingerMs,
			Topics:    []mq.TopicSpec{{Topic: kc.Topics.Outcome, Partitions: kc.Partitions.Outcome}},
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, mq.NewOutcomePublisher(sc.Producer, kc.Topics.Outcome, kc.Partitions.Outcome,
			time.Duration(kc.SendTimeoutMs)*time.Millisecond))
	}
	if c.PostgresDSN != "" {
		sc.PgPool, err = journal.NewPgPool(ctx, c.PostgresDSN)
		if err != nil {
			return nil, err
		}
		store := journal.NewPgStore(sc.PgPool)
		if err = store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sc.Journal = journal.New(store, journal.Options{
			BufferSize:    c.JournalConf.BufferSize,
			FlushInterval: time.Duration(c.JournalConf.FlushIntervalMs) * time.Millisecond,
		})
		sinks = append(sinks, sc.Journal)
	}

	// 5. 钱包余额巡检
	if endpoint := c.BalanceWatchEndpoint(); endpoint != "" {
		sc.Balance, err = service.NewBalanceWatchService(
			client.New(rpc.WithEndpoint(endpoint), rpc.WithHTTPClient(sc.HTTPClient)),
			sc.Signer.Owner(),
			settings.BuyLamports+settings.TipLamports,
			time.Duration(c.BalanceWatch.IntervalSec)*time.Second,
			sc.Metrics,
		)
		if err != nil {
			return nil, err
		}
	}

	// 6. 反应流程
	parser := eventparser.NewParser(common.DecodePolicy{
		AssumeLiquidityOnDecodeFailure: c.Trade.AssumeLiquidity(),
	})
	sc.Reactor, err = reactor.New(reactor.Options{
		Parser:        parser,
		Guard:         guard,
		Dispatcher:    dispatcher,
		Signer:        sc.Signer,
		Metrics:       sc.Metrics,
		Sinks:         sinks,
		DedupWithSlot: c.Dedup.WithSlot,
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("service context ready: %d relays, dispatch=%s, dedup=%s, sinks=%d",
		len(sc.Backends), c.Dispatch.Mode, dedupOpt.Mode, len(sinks))
	return sc, nil
}

// Close 释放外部连接；Journal 由 ServiceGroup 负责停止
func (sc *ServiceContext) Close() {
	if sc.Producer != nil {
		sc.Producer.Flush(3000)
		sc.Producer.Close()
	}
	if sc.PgPool != nil {
		sc.PgPool.Close()
	}
	if sc.Redis != nil {
		_ = sc.Redis.Close()
	}
	if sc.HTTPClient != nil {
		sc.HTTPClient.CloseIdleConnections()
	}
}
