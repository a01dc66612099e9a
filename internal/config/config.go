package config

import (
	"errors"
	"fmt"
	"time"

	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/logic/core"
	"dex-sniper-sol/internal/logic/dedup"
	"dex-sniper-sol/internal/logic/relay"
	"dex-sniper-sol/internal/logic/txbuilder"
	"dex-sniper-sol/pkg/logger"

	soltypes "github.com/blocto/solana-go-sdk/types"
)

type LogConfig struct {
	Format   string `yaml:"format" validate:"omitempty,oneof=console json"`        // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`                                                // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level" validate:"omitempty,oneof=debug info warn error"` // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"`                                               // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// KafkaProducerConfig 反应结果推送，brokers 为空时不启用
type KafkaProducerConfig struct {
	Brokers       string `yaml:"brokers"`         // Kafka broker 地址，多个用英文逗号分隔
	BatchSize     int    `yaml:"batch_size"`      // 批处理大小（单位字节）
	LingerMs      int    `yaml:"linger_ms"`       // 批处理最大延迟（毫秒）
	SendTimeoutMs int    `yaml:"send_timeout_ms"` // 单条消息等待 ack 的超时时间

	Topics struct {
		Outcome string `yaml:"outcome"` // 反应结果 topic
	} `yaml:"topics"`

	Partitions struct {
		Outcome int `yaml:"outcome"` // outcome topic 的分区数
	} `yaml:"partitions"`
}

func (c *KafkaProducerConfig) Enabled() bool {
	return c.Brokers != ""
}

// JournalConfig PostgreSQL 落库缓冲，postgres_dsn 为空时不启用
type JournalConfig struct {
	BufferSize      int `yaml:"buffer_size" validate:"gte=0"`       // 缓冲条数，达到后立即落库
	FlushIntervalMs int `yaml:"flush_interval_ms" validate:"gte=0"` // 定时落库间隔
}

type WalletConfig struct {
	PrivateKey string `yaml:"private_key" validate:"required"` // base58 编码的 64 字节私钥
}

// Account 解析签名账户
func (c *WalletConfig) Account() (soltypes.Account, error) {
	account, err := soltypes.AccountFromBase58(c.PrivateKey)
	if err != nil {
		return soltypes.Account{}, fmt.Errorf("invalid wallet private key: %w", err)
	}
	return account, nil
}

// TradeConfig 买入参数，SOL 数量以十进制字符串配置，避免浮点误差
type TradeConfig struct {
	ComputeUnitLimit uint32  `yaml:"compute_unit_limit"`                   // 0 表示不设置
	ComputeUnitPrice uint64  `yaml:"compute_unit_price"`                   // micro-lamports，0 表示不设置
	TipSol           string  `yaml:"tip_sol" validate:"omitempty,numeric"` // 给中继的小费
	BuySol           string  `yaml:"buy_sol" validate:"required,numeric"`  // 每次买入花费
	MinAmountOut     string  `yaml:"min_amount_out" validate:"omitempty,numeric"`
	OutDecimals      int32   `yaml:"out_decimals" validate:"gte=0,lte=18"` // min_amount_out 的精度
	ActivationPoint  *uint64 `yaml:"activation_point"`
	WrapReserve      bool    `yaml:"wrap_reserve"` // 下单前把 SOL 包装为 WSOL

	// payload 解码失败时是否假定已有流动性
	AssumeLiquidityOnDecodeFailure *bool `yaml:"assume_liquidity_on_decode_failure"`
}

// ToSettings 转换为构造交易用的参数
func (c *TradeConfig) ToSettings() (txbuilder.Settings, error) {
	buy, err := ToBaseUnits(c.BuySol, consts.SOLDecimals)
	if err != nil {
		return txbuilder.Settings{}, fmt.Errorf("trade.buy_sol: %w", err)
	}
	if buy == 0 {
		return txbuilder.Settings{}, errors.New("trade.buy_sol: must be greater than 0")
	}
	tip, err := ToBaseUnits(c.TipSol, consts.SOLDecimals)
	if err != nil {
		return txbuilder.Settings{}, fmt.Errorf("trade.tip_sol: %w", err)
	}
	minOut, err := ToBaseUnits(c.MinAmountOut, c.OutDecimals)
	if err != nil {
		return txbuilder.Settings{}, fmt.Errorf("trade.min_amount_out: %w", err)
	}
	return txbuilder.Settings{
		ComputeUnitLimit: c.ComputeUnitLimit,
		ComputeUnitPrice: c.ComputeUnitPrice,
		TipLamports:      tip,
		BuyLamports:      buy,
		MinAmountOut:     minOut,
		ActivationPoint:  c.ActivationPoint,
		WrapReserve:      c.WrapReserve,
	}, nil
}

func (c *TradeConfig) AssumeLiquidity() bool {
	if c.AssumeLiquidityOnDecodeFailure == nil {
		return true
	}
	return *c.AssumeLiquidityOnDecodeFailure
}

type DedupConfig struct {
	Mode     string `yaml:"mode" validate:"omitempty,oneof=memory lru ttl redis"`
	Capacity int    `yaml:"capacity" validate:"gte=0"` // lru / ttl 模式的容量
	TTLSec   int    `yaml:"ttl_sec" validate:"gte=0"`  // ttl / redis 模式的过期时间
	WithSlot bool   `yaml:"with_slot"`                 // key 附加 slot
}

func (c *DedupConfig) ToOptions() dedup.Options {
	return dedup.Options{
		Mode:     c.Mode,
		Capacity: c.Capacity,
		TTL:      time.Duration(c.TTLSec) * time.Second,
	}
}

type DispatchConfig struct {
	Mode          string `yaml:"mode" validate:"omitempty,oneof=all first_success"`
	HttpTimeoutMs int    `yaml:"http_timeout_ms" validate:"gte=0"` // 共享 HTTP client 的整体超时
}

// RelayConfig 单个提交后端
type RelayConfig struct {
	Name       string  `yaml:"name" validate:"required"`
	Kind       string  `yaml:"kind" validate:"required,oneof=rpc jito bloxroute nextblock"`
	URL        string  `yaml:"url" validate:"required,url"`
	AuthToken  string  `yaml:"auth_token"`
	Method     string  `yaml:"method"`                        // jito JSON-RPC 方法名，默认 sendTransaction
	TimeoutMs  int     `yaml:"timeout_ms" validate:"gte=0"`   // 单次提交超时
	RatePerSec float64 `yaml:"rate_per_sec" validate:"gte=0"` // 0 表示不限速
	Burst      int     `yaml:"burst" validate:"gte=0"`
	Probe      bool    `yaml:"probe"` // 启动时做连通性自检
}

func (c *RelayConfig) ToBackendConf() relay.BackendConf {
	return relay.BackendConf{
		Name:       c.Name,
		Kind:       core.RelayKind(c.Kind),
		URL:        c.URL,
		AuthToken:  c.AuthToken,
		Method:     c.Method,
		Timeout:    time.Duration(c.TimeoutMs) * time.Millisecond,
		RatePerSec: c.RatePerSec,
		Burst:      c.Burst,
		Probe:      c.Probe,
	}
}

// BalanceWatchConfig 钱包余额巡检，rpc_url 为空时取第一个 rpc 类型的 relay
type BalanceWatchConfig struct {
	Disabled    bool   `yaml:"disabled"`
	RpcURL      string `yaml:"rpc_url" validate:"omitempty,url"`
	IntervalSec int    `yaml:"interval_sec" validate:"gte=0"`
}

// BalanceWatchEndpoint 返回巡检使用的 RPC 地址，没有可用地址时返回空串
func (c *SniperConfig) BalanceWatchEndpoint() string {
	if c.BalanceWatch.Disabled {
		return ""
	}
	if c.BalanceWatch.RpcURL != "" {
		return c.BalanceWatch.RpcURL
	}
	for _, r := range c.Relays {
		if core.RelayKind(r.Kind) == core.RelayRPC {
			return r.URL
		}
	}
	return ""
}

// GrpcConfig gRPC 客户端连接相关配置
type GrpcConfig struct {
	Endpoint string `yaml:"endpoint" validate:"required"` // gRPC 服务端地址
	XToken   string `yaml:"x_token"`                      // x-token 认证
	Insecure bool   `yaml:"insecure"`                     // 不使用 TLS（本地调试）

	// 应用级逻辑心跳（ping）配置
	StreamPingIntervalSec int `yaml:"stream_ping_interval_sec"` // 应用层 ping 心跳间隔（秒）

	// gRPC Keepalive 底层连接检测配置
	KeepalivePingIntervalSec int `yaml:"keepalive_ping_interval_sec"` // 底层 keepalive 间隔（秒）
	KeepalivePingTimeoutSec  int `yaml:"keepalive_ping_timeout_sec"`  // 底层 keepalive 超时（秒）

	// gRPC 窗口大小调优
	InitialWindowSize     int `yaml:"initial_window_size"`      // 单流窗口大小（字节）
	InitialConnWindowSize int `yaml:"initial_conn_window_size"` // 整体连接窗口大小（字节）

	// 消息体大小限制
	MaxCallSendMsgSize int `yaml:"max_call_send_msg_size"` // 单条消息最大发送字节数
	MaxCallRecvMsgSize int `yaml:"max_call_recv_msg_size"` // 单条消息最大接收字节数

	// 超时与重连策略
	ReconnectIntervalSec int `yaml:"reconnect_interval_sec"` // 重连最小间隔（秒）
	ConnectTimeoutSec    int `yaml:"connect_timeout_sec"`    // 连接建立超时（秒）
	SendTimeoutSec       int `yaml:"send_timeout_sec"`       // 发送超时（秒）
	IdleTimeoutSec       int `yaml:"idle_timeout_sec"`       // 超过该时间未收到交易则重连

	TxChanSize int `yaml:"tx_chan_size"` // 交易缓冲通道长度，满了丢弃
}

// SniperConfig 主配置
type SniperConfig struct {
	LogConf           LogConfig           `yaml:"logger"`
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"`
	JournalConf       JournalConfig       `yaml:"journal"`

	RedisAddr   string `yaml:"redis_addr"`   // Redis 地址（dedup.mode=redis 时必填）
	PostgresDSN string `yaml:"postgres_dsn"` // PostgreSQL 数据源，为空不落库
	MetricsAddr string `yaml:"metrics_addr"` // /metrics 监听地址，为空不启动

	Wallet   WalletConfig   `yaml:"wallet"`
	Trade    TradeConfig    `yaml:"trade"`
	Dedup    DedupConfig    `yaml:"dedup"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Relays   []RelayConfig  `yaml:"relays" validate:"min=1,dive"`
	Grpc     GrpcConfig     `yaml:"grpc"`

	BalanceWatch BalanceWatchConfig `yaml:"balance_watch"`
}
