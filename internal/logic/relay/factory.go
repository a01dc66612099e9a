package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dex-sniper-sol/internal/logic/core"

	"github.com/zeromicro/go-zero/core/threading"
	"golang.org/x/time/rate"
)

// BackendConf 构造单个后端所需的参数
type BackendConf struct {
	Name       string
	Kind       core.RelayKind
	URL        string
	AuthToken  string
	Method     string
	Timeout    time.Duration
	RatePerSec float64 // <=0 不限速
	Burst      int
	Probe      bool
}

// NewBackends 按配置顺序创建后端，HTTP 类后端共享 client
func NewBackends(confs []BackendConf, client *http.Client) ([]Backend, error) {
	backends := make([]Backend, 0, len(confs))
	for _, c := range confs {
		adapter, err := newAdapter(c, client)
		if err != nil {
			return nil, err
		}

		b := Backend{Adapter: adapter, Timeout: c.Timeout}
		if c.RatePerSec > 0 {
			burst := c.Burst
			if burst <= 0 {
				burst = 1
			}
			b.Limiter = rate.NewLimiter(rate.Limit(c.RatePerSec), burst)
		}
		backends = append(backends, b)
	}
	return backends, nil
}

func newAdapter(c BackendConf, client *http.Client) (Adapter, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("relay %s: empty url", c.Name)
	}
	switch c.Kind {
	case core.RelayRPC:
		return NewRPCAdapter(c.Name, c.URL, client), nil
	case core.RelayJito:
		return NewJitoAdapter(c.Name, c.URL, c.Method, client), nil
	case core.RelayBloxroute, core.RelayNextBlock:
		return NewAuthRelayAdapter(c.Name, c.Kind, c.URL, c.AuthToken, client)
	default:
		return nil, fmt.Errorf("relay %s: unknown kind %q", c.Name, c.Kind)
	}
}

// ProbeAll 对开启自检的鉴权中继做后台连通性测试，不阻塞启动
func ProbeAll(ctx context.Context, confs []BackendConf, backends []Backend) {
	for i, b := range backends {
		if i >= len(confs) || !confs[i].Probe {
			continue
		}
		auth, ok := b.Adapter.(*AuthRelayAdapter)
		if !ok {
			continue
		}
		threading.GoSafe(func() {
			Probe(ctx, auth)
		})
	}
}
