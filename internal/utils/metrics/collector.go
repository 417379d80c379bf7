// internal/utils/metrics/collector.go
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricType представляет тип метрики
type MetricType string

const (
	CacheRequestsType  MetricType = "cache_requests"
	RPCLatencyType     MetricType = "rpc_latency"
	RPCErrorsType      MetricType = "rpc_errors"
	SubscriptionsType  MetricType = "subscriptions"
	PoolReservesType   MetricType = "pool_reserves"
	BuiltActionsType   MetricType = "built_actions"
)

// Cache request outcomes.
const (
	CacheHit       = "hit"
	CacheMiss      = "miss"
	CacheCoalesced = "coalesced"
	CacheFetched   = "fetched"
)

// Collector owns a private registry so two sessions in one process never
// collide on registration. All methods are nil-safe.
type Collector struct {
	registry *prometheus.Registry
	metrics  sync.Map

	cacheRequests *prometheus.CounterVec
	rpcLatency    *prometheus.HistogramVec
	rpcErrors     *prometheus.CounterVec
	subscriptions *prometheus.GaugeVec
	poolReserves  *prometheus.GaugeVec
	builtActions  *prometheus.CounterVec
}

// NewCollector создает новый экземпляр коллектора метрик
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenswap",
			Name:      "cache_requests_total",
			Help:      "Account cache requests by outcome",
		}, []string{"outcome"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tokenswap",
			Name:      "rpc_latency_seconds",
			Help:      "RPC request latency",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"method"}),
		rpcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenswap",
			Name:      "rpc_errors_total",
			Help:      "Failed RPC requests",
		}, []string{"method"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tokenswap",
			Name:      "active_subscriptions",
			Help:      "Live websocket subscriptions",
		}, []string{"kind"}),
		poolReserves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tokenswap",
			Name:      "pool_reserves_raw",
			Help:      "Raw holding-account balances of resolved pools",
		}, []string{"pool", "side"}),
		builtActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tokenswap",
			Name:      "built_actions_total",
			Help:      "Instruction sets assembled by action",
		}, []string{"action"}),
	}

	metricsMap := map[MetricType]prometheus.Collector{
		CacheRequestsType: c.cacheRequests,
		RPCLatencyType:    c.rpcLatency,
		RPCErrorsType:     c.rpcErrors,
		SubscriptionsType: c.subscriptions,
		PoolReservesType:  c.poolReserves,
		BuiltActionsType:  c.builtActions,
	}
	for metricType, metric := range metricsMap {
		c.metrics.Store(metricType, metric)
		c.registry.MustRegister(metric)
	}
	return c
}

// Registry exposes the session registry for an HTTP handler or a test gatherer.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Reset сбрасывает все метрики (полезно для тестирования)
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.GaugeVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})
}

// CacheRequest counts one cache lookup outcome.
func (c *Collector) CacheRequest(outcome string) {
	if c == nil {
		return
	}
	c.cacheRequests.WithLabelValues(outcome).Inc()
}

// ObserveRPC records the latency and the failure of one RPC call.
func (c *Collector) ObserveRPC(method string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
	if err != nil {
		c.rpcErrors.WithLabelValues(method).Inc()
	}
}

// SubscriptionOpened increments the live subscription gauge for kind.
func (c *Collector) SubscriptionOpened(kind string) {
	if c == nil {
		return
	}
	c.subscriptions.WithLabelValues(kind).Inc()
}

// SubscriptionClosed decrements the live subscription gauge for kind.
func (c *Collector) SubscriptionClosed(kind string) {
	if c == nil {
		return
	}
	c.subscriptions.WithLabelValues(kind).Dec()
}

// SetPoolReserves publishes both raw reserves of a pool.
func (c *Collector) SetPoolReserves(pool string, reserves [2]uint64) {
	if c == nil {
		return
	}
	for i, r := range reserves {
		c.poolReserves.WithLabelValues(pool, strconv.Itoa(i)).Set(float64(r))
	}
}

// ActionBuilt counts an assembled instruction set.
func (c *Collector) ActionBuilt(action string) {
	if c == nil {
		return
	}
	c.builtActions.WithLabelValues(action).Inc()
}
