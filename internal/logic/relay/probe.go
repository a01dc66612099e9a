package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dex-sniper-sol/pkg/logger"
)

const probeTimeout = 10 * time.Second

// ProbeResult 连通性自检结果，只用于日志
type ProbeResult struct {
	Backend string
	Status  int
	Err     error
}

// Probe 启动时向鉴权中继发送空交易，确认地址与 token 可达。
// 中继对空交易通常返回 4xx，这里只关心能否拿到 HTTP 响应。
func Probe(ctx context.Context, a *AuthRelayAdapter) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	res := ProbeResult{Backend: a.name}
	_, err := postJSON(ctx, a.client, a.url, a.header(), map[string]any{
		"transaction": map[string]string{"content": ""},
	})
	if err == nil {
		res.Status = http.StatusOK
		logger.Infof("[Relay:Probe] %s ok", a.name)
		return res
	}

	var se *StatusError
	if errors.As(err, &se) {
		res.Status = se.Code
		logger.Infof("[Relay:Probe] %s status %d", a.name, se.Code)
		return res
	}
	res.Err = err
	logger.Warnf("[Relay:Probe] %s unreachable: %v", a.name, err)
	return res
}
