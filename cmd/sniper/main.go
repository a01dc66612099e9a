package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"dex-sniper-sol/internal/config"
	"dex-sniper-sol/internal/logic/grpc"
	"dex-sniper-sol/internal/logic/relay"
	"dex-sniper-sol/internal/observability"
	"dex-sniper-sol/internal/svc"
	"dex-sniper-sol/pkg/logger"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/sniper.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		logx.Errorf("load config failed: %v", err)
		os.Exit(1)
	}
	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		logx.Errorf("init logger failed: %v", err)
		os.Exit(1)
	}

	serviceContext, err := svc.NewServiceContext(c)
	if err != nil {
		logger.Errorf("init service context failed: %v", err)
		os.Exit(1)
	}
	defer serviceContext.Close()

	// 连通性自检只记日志，不阻塞启动
	relay.ProbeAll(context.Background(), serviceContext.BackendConfs, serviceContext.Backends)

	sg := zerosvc.NewServiceGroup()

	txChan := make(chan *pb.SubscribeUpdateTransaction, c.Grpc.TxChanSize)
	grpcService, err := grpc.NewGrpcStreamManager(c.Grpc, txChan, serviceContext.Metrics)
	if err != nil {
		logger.Errorf("init grpc stream failed: %v", err)
		os.Exit(1)
	}
	sg.Add(grpcService)
	sg.Add(grpc.NewTxProcessor(txChan, serviceContext.Reactor, serviceContext.Metrics))

	if serviceContext.Balance != nil {
		sg.Add(serviceContext.Balance)
	}
	if serviceContext.Journal != nil {
		sg.Add(serviceContext.Journal)
	}
	if c.MetricsAddr != "" {
		sg.Add(observability.NewMetricsServer(c.MetricsAddr, serviceContext.Metrics))
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		logger.Infof("Shutting down services...")
		sg.Stop()
	}()

	logger.Infof("Starting sniper, watching %s", c.Grpc.Endpoint)
	start := time.Now()
	sg.Start()
	logger.Infof("sniper stopped after %v", time.Since(start).Truncate(time.Second))
}
