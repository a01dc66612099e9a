package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"dex-sniper-sol/internal/config"
	"dex-sniper-sol/internal/consts"
	"dex-sniper-sol/internal/observability"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

type GrpcStreamManager struct {
	logx.Logger
	mu                sync.Mutex
	conn              *grpc.ClientConn                     // gRPC 连接对象
	client            pb.GeyserClient                      // gRPC 客户端
	stopped           bool                                 // 标记是否已经停止
	stopCh            chan struct{}                        // Stop 时关闭
	reconnectAttempts int                                  // 连续重连次数
	reconnectInterval time.Duration                        // 重连基础间隔
	xToken            string                               // 认证用的 x-token
	pingInterval      time.Duration                        // 应用层心跳间隔
	sendTimeout       time.Duration                        // Send 超时
	idleTimeout       time.Duration                        // 超过该时间无任何推送则重连
	txChan            chan *pb.SubscribeUpdateTransaction // 交易数据通道
	connCancel        context.CancelFunc                   // 当前连接的 cancel 函数
	lastRecv          atomic.Int64                         // 最近一次收到推送的时间（Unix 毫秒）
	metrics           *observability.Metrics
}

func NewGrpcStreamManager(grpcConf config.GrpcConfig, txChan chan *pb.SubscribeUpdateTransaction, metrics *observability.Metrics) (*GrpcStreamManager, error) {
	creds := credentials.NewTLS(&tls.Config{InsecureSkipVerify: true})
	if grpcConf.Insecure {
		creds = insecure.NewCredentials()
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(grpcConf.ConnectTimeoutSec)*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		grpcConf.Endpoint,
		grpc.WithTransportCredentials(creds),
		grpc.WithInitialWindowSize(int32(grpcConf.InitialWindowSize)),
		grpc.WithInitialConnWindowSize(int32(grpcConf.InitialConnWindowSize)),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(grpcConf.MaxCallSendMsgSize),
			grpc.MaxCallRecvMsgSize(grpcConf.MaxCallRecvMsgSize),
		),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(grpcConf.KeepalivePingIntervalSec) * time.Second,
			Timeout:             time.Duration(grpcConf.KeepalivePingTimeoutSec) * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", grpcConf.Endpoint, err)
	}
	if metrics == nil {
		metrics = observability.NewMetrics("")
	}

	return &GrpcStreamManager{
		Logger:            logx.WithContext(context.Background()).WithFields(logx.Field("service", "grpc_stream")),
		conn:              conn,
		client:            pb.NewGeyserClient(conn),
		stopCh:            make(chan struct{}),
		reconnectInterval: time.Duration(grpcConf.ReconnectIntervalSec) * time.Second,
		xToken:            grpcConf.XToken,
		pingInterval:      time.Duration(grpcConf.StreamPingIntervalSec) * time.Second,
		sendTimeout:       time.Duration(grpcConf.SendTimeoutSec) * time.Second,
		idleTimeout:       time.Duration(grpcConf.IdleTimeoutSec) * time.Second,
		txChan:            txChan,
		metrics:           metrics,
	}, nil
}

// Start 建立订阅后阻塞到 Stop
func (m *GrpcStreamManager) Start() {
	m.mustConnect()
	<-m.stopCh
}

func (m *GrpcStreamManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return
	}
	m.stopped = true
	close(m.stopCh)
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
	}
}

func (m *GrpcStreamManager) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// mustConnect 循环直到连接成功或被停止
func (m *GrpcStreamManager) mustConnect() {
	for !m.isStopped() {
		if m.reconnectAttempts > 0 {
			wait := m.reconnectInterval
			if m.reconnectAttempts > 3 {
				wait *= 2
			}
			select {
			case <-m.stopCh:
				return
			case <-time.After(wait):
			}
		}
		m.reconnectAttempts++
		m.Infof("connecting, attempt %d", m.reconnectAttempts)

		err := m.connect()
		if err == nil {
			return
		}
		m.Errorf("connect failed: %v, will retry", err)
	}
}

// buildSubscribeRequest 只订阅涉及 Meteora Pools 程序、执行成功的非投票交易
func buildSubscribeRequest() *pb.SubscribeRequest {
	commitment := pb.CommitmentLevel_PROCESSED
	return &pb.SubscribeRequest{
		Transactions: map[string]*pb.SubscribeRequestFilterTransactions{
			"meteora_pools": {
				Vote:           boolPtr(false),
				Failed:         boolPtr(false),
				AccountInclude: consts.GrpcAccountInclude,
			},
		},
		Commitment: &commitment,
	}
}

// connect 只尝试一次
func (m *GrpcStreamManager) connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return errors.New("manager is stopped")
	}

	// 先关闭旧连接上的 goroutine
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	connCtx, connCancel := context.WithCancel(context.Background())

	metaCtx := metadata.NewOutgoingContext(connCtx, metadata.New(map[string]string{"x-token": m.xToken}))
	stream, err := m.client.Subscribe(metaCtx)
	if err != nil {
		connCancel()
		return fmt.Errorf("subscribe: %w", err)
	}
	if err := sendWithTimeout(connCtx, stream.Send, buildSubscribeRequest(), m.sendTimeout); err != nil {
		connCancel()
		return fmt.Errorf("send subscribe request: %w", err)
	}

	m.connCancel = connCancel
	m.reconnectAttempts = 0
	m.lastRecv.Store(time.Now().UnixMilli())
	m.Infof("subscription established, account_include=%v", consts.GrpcAccountInclude)

	go m.pingLoop(connCtx, stream)
	go m.idleWatch(connCtx, connCancel)
	go m.recvLoop(connCtx, stream)
	return nil
}

func (m *GrpcStreamManager) recvLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	for {
		update, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil && m.isStopped() {
				return
			}
			if errors.Is(err, io.EOF) {
				m.Infof("stream closed by server (EOF), will reconnect")
			} else {
				m.Errorf("stream error: %v, will reconnect", err)
			}
			m.reconnect()
			return
		}
		m.lastRecv.Store(time.Now().UnixMilli())

		if u, ok := update.GetUpdateOneof().(*pb.SubscribeUpdate_Transaction); ok {
			m.metrics.TxReceived.Inc()
			select {
			case m.txChan <- u.Transaction:
			default:
				m.metrics.TxDropped.Inc()
				m.Errorf("txChan is full, discard tx at slot %d", u.Transaction.GetSlot())
			}
		}
	}
}

// idleWatch 长时间无推送时取消当前连接，recvLoop 随之出错并重连
func (m *GrpcStreamManager) idleWatch(ctx context.Context, cancel context.CancelFunc) {
	if m.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(m.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idle := time.Since(time.UnixMilli(m.lastRecv.Load()))
			if idle > m.idleTimeout {
				m.Errorf("no update for %v, reconnecting", idle)
				cancel()
				return
			}
		}
	}
}

// 心跳，失败只记录日志
func (m *GrpcStreamManager) pingLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	if m.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ping := &pb.SubscribeRequest{Ping: &pb.SubscribeRequestPing{Id: 1}}
			if err := sendWithTimeout(ctx, stream.Send, ping, m.sendTimeout); err != nil {
				m.Errorf("ping failed: %v", err)
			}
		}
	}
}

func (m *GrpcStreamManager) reconnect() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	m.mu.Unlock()

	go m.mustConnect()
}

// 带超时的 Send
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}

func boolPtr(b bool) *bool {
	return &b
}
