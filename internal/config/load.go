package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Load 读取配置：先加载 .env，再展开 ${VAR}，最后解析与校验
func Load(path string) (*SniperConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse 解析 yaml 内容，支持环境变量占位
func Parse(raw []byte) (*SniperConfig, error) {
	var c SniperConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *SniperConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Dedup.Mode == "redis" && c.RedisAddr == "" {
		return errors.New("invalid config: dedup.mode=redis requires redis_addr")
	}
	if _, err := c.Trade.ToSettings(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Relays))
	for _, r := range c.Relays {
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("invalid config: duplicate relay name %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

func (c *SniperConfig) applyDefaults() {
	g := &c.Grpc
	setDefault(&g.StreamPingIntervalSec, 10)
	setDefault(&g.KeepalivePingIntervalSec, 10)
	setDefault(&g.KeepalivePingTimeoutSec, 5)
	setDefault(&g.InitialWindowSize, 1<<30)
	setDefault(&g.InitialConnWindowSize, 1<<30)
	setDefault(&g.MaxCallSendMsgSize, 64<<20)
	setDefault(&g.MaxCallRecvMsgSize, 64<<20)
	setDefault(&g.ReconnectIntervalSec, 1)
	setDefault(&g.ConnectTimeoutSec, 10)
	setDefault(&g.SendTimeoutSec, 5)
	setDefault(&g.IdleTimeoutSec, 30)
	setDefault(&g.TxChanSize, 1024)

	setDefault(&c.JournalConf.BufferSize, 256)
	setDefault(&c.JournalConf.FlushIntervalMs, 1000)
	setDefault(&c.KafkaProducerConf.SendTimeoutMs, 3000)
	setDefault(&c.KafkaProducerConf.Partitions.Outcome, 1)
	if c.KafkaProducerConf.Topics.Outcome == "" {
		c.KafkaProducerConf.Topics.Outcome = "sniper-outcome"
	}
	setDefault(&c.Dispatch.HttpTimeoutMs, 10_000)
	setDefault(&c.BalanceWatch.IntervalSec, 30)
	if c.Trade.OutDecimals == 0 {
		c.Trade.OutDecimals = 6
	}
}

func setDefault(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

// ToBaseUnits 十进制字符串按精度转为最小单位，空串视为 0
func ToBaseUnits(s string, decimals int32) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("amount %q exceeds %d decimals", s, decimals)
	}
	if !units.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %q overflows", s)
	}
	return units.BigInt().Uint64(), nil
}
