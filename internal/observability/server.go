package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// MetricsServer 暴露 /metrics，实现 go-zero service.Service
type MetricsServer struct {
	logx.Logger
	srv *http.Server
}

func NewMetricsServer(addr string, m *Metrics) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &MetricsServer{
		Logger: logx.WithContext(context.Background()).WithFields(logx.Field("service", "metrics")),
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *MetricsServer) Start() {
	s.Infof("metrics server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Errorf("metrics server stopped: %v", err)
	}
}

func (s *MetricsServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.Errorf("metrics server shutdown: %v", err)
	}
}
