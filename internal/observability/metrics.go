// Package observability 提供 Prometheus 指标
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "dex_sniper"

// Metrics 全部指标
type Metrics struct {
	registry *prometheus.Registry

	// feed
	TxReceived prometheus.Counter
	TxDropped  prometheus.Counter
	TxInvalid  prometheus.Counter

	// 解析与过滤
	EventsParsed      *prometheus.CounterVec
	EventsFiltered    *prometheus.CounterVec
	DedupSuppressed   prometheus.Counter
	DedupErrors       prometheus.Counter
	ReactionsStarted  prometheus.Counter
	ReactionLatency   prometheus.Histogram
	ReactionSuccesses prometheus.Histogram

	// 提交
	RelayOutcomes *prometheus.CounterVec
	RelayLatency  *prometheus.HistogramVec

	// 落地
	SinkErrors *prometheus.CounterVec

	// 钱包
	WalletBalance prometheus.Gauge
}

// NewMetrics 在独立 registry 上注册指标，测试可重复创建
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		TxReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "tx_received_total",
			Help:      "Transactions received from the gRPC feed",
		}),
		TxDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "tx_dropped_total",
			Help:      "Transactions dropped because the processing channel was full",
		}),
		TxInvalid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "tx_invalid_total",
			Help:      "Transactions that failed validation or flattening",
		}),

		EventsParsed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "events_total",
			Help:      "Pool events parsed by kind",
		}, []string{"kind"}),
		EventsFiltered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "events_filtered_total",
			Help:      "Events rejected before dedup by reason",
		}, []string{"reason"}),
		DedupSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "dedup_suppressed_total",
			Help:      "Events suppressed as duplicates",
		}),
		DedupErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "dedup_errors_total",
			Help:      "Dedup guard failures (event skipped)",
		}),
		ReactionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "reactions_total",
			Help:      "Reactions dispatched",
		}),
		ReactionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "reaction_latency_seconds",
			Help:      "Time from transaction receipt to all backends reporting",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ReactionSuccesses: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reactor",
			Name:      "reaction_successful_backends",
			Help:      "Number of backends that accepted each reaction",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		}),

		RelayOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "outcomes_total",
			Help:      "Relay outcomes by backend and result",
		}, []string{"backend", "result"}),
		RelayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "submit_latency_seconds",
			Help:      "Build and submit latency per backend",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"backend"}),

		SinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "errors_total",
			Help:      "Outcome sink failures by sink",
		}, []string{"sink"}),

		WalletBalance: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "balance_lamports",
			Help:      "Last observed SOL balance of the signing wallet",
		}),
	}
}

// Registry 供测试读取指标
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
