package config

import (
	"os"
	"path/filepath"
	"testing"

	"dex-sniper-sol/internal/logic/core"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
wallet:
  private_key: ${TEST_SNIPER_KEY}
trade:
  buy_sol: "0.05"
  tip_sol: "0.001"
  min_amount_out: "12.5"
relays:
  - name: rpc
    kind: rpc
    url: http://127.0.0.1:8899
    timeout_ms: 1500
  - name: jito
    kind: jito
    url: https://jito.example.com/api/v1/transactions
    rate_per_sec: 2
grpc:
  endpoint: grpc.example.com:443
`

func testKey(t *testing.T) string {
	t.Helper()
	return base58.Encode(types.NewAccount().PrivateKey)
}

func TestParse_Minimal(t *testing.T) {
	key := testKey(t)
	t.Setenv("TEST_SNIPER_KEY", key)

	c, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, key, c.Wallet.PrivateKey)
	_, err = c.Wallet.Account()
	assert.NoError(t, err)

	// 默认值
	assert.Equal(t, 30, c.Grpc.IdleTimeoutSec)
	assert.Equal(t, 1024, c.Grpc.TxChanSize)
	assert.Equal(t, int32(6), c.Trade.OutDecimals)
	assert.True(t, c.Trade.AssumeLiquidity())
	assert.False(t, c.KafkaProducerConf.Enabled())

	s, err := c.Trade.ToSettings()
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), s.BuyLamports)
	assert.Equal(t, uint64(1_000_000), s.TipLamports)
	assert.Equal(t, uint64(12_500_000), s.MinAmountOut)

	// 巡检默认复用第一个 rpc relay
	assert.Equal(t, "http://127.0.0.1:8899", c.BalanceWatchEndpoint())
	assert.Equal(t, 30, c.BalanceWatch.IntervalSec)
	c.BalanceWatch.Disabled = true
	assert.Empty(t, c.BalanceWatchEndpoint())

	b := c.Relays[0].ToBackendConf()
	assert.Equal(t, core.RelayRPC, b.Kind)
	assert.Equal(t, int64(1500), b.Timeout.Milliseconds())
}

func TestParse_Invalid(t *testing.T) {
	t.Setenv("TEST_SNIPER_KEY", testKey(t))

	cases := map[string]string{
		"no relays": `
wallet: {private_key: x}
trade: {buy_sol: "1"}
grpc: {endpoint: a:1}
`,
		"bad kind": `
wallet: {private_key: x}
trade: {buy_sol: "1"}
relays: [{name: a, kind: carrier, url: "http://a"}]
grpc: {endpoint: a:1}
`,
		"zero buy": `
wallet: {private_key: x}
trade: {buy_sol: "0"}
relays: [{name: a, kind: rpc, url: "http://a"}]
grpc: {endpoint: a:1}
`,
		"too precise": `
wallet: {private_key: x}
trade: {buy_sol: "0.0000000001"}
relays: [{name: a, kind: rpc, url: "http://a"}]
grpc: {endpoint: a:1}
`,
		"duplicate relay": `
wallet: {private_key: x}
trade: {buy_sol: "1"}
relays: [{name: a, kind: rpc, url: "http://a"}, {name: a, kind: jito, url: "http://b"}]
grpc: {endpoint: a:1}
`,
		"redis without addr": `
wallet: {private_key: x}
trade: {buy_sol: "1"}
dedup: {mode: redis}
relays: [{name: a, kind: rpc, url: "http://a"}]
grpc: {endpoint: a:1}
`,
		"missing wallet": `
trade: {buy_sol: "1"}
relays: [{name: a, kind: rpc, url: "http://a"}]
grpc: {endpoint: a:1}
`,
	}
	for name, raw := range cases {
		_, err := Parse([]byte(raw))
		assert.Error(t, err, name)
	}
}

func TestLoad_File(t *testing.T) {
	t.Setenv("TEST_SNIPER_KEY", testKey(t))
	path := filepath.Join(t.TempDir(), "sniper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Relays, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestToBaseUnits(t *testing.T) {
	v, err := ToBaseUnits("1.5", 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), v)

	v, err = ToBaseUnits("", 9)
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = ToBaseUnits("-1", 9)
	assert.Error(t, err)
	_, err = ToBaseUnits("abc", 9)
	assert.Error(t, err)
	_, err = ToBaseUnits("0.1234567", 6)
	assert.Error(t, err)
	_, err = ToBaseUnits("100000000000000", 9)
	assert.Error(t, err)
}
