// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Gateway metrics
	GatewayCallLatency *prometheus.HistogramVec
	RPCCallLatency     *prometheus.HistogramVec

	// Refresh metrics
	RefreshesTotal  *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	StaleDiscards   prometheus.Counter

	// Cache metrics
	CachedStablecoins prometheus.Gauge

	// Subscription metrics
	AccountNotifications prometheus.Counter
	WSReconnects         prometheus.Counter

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stablefun"
	}

	return &Metrics{
		// Command metrics
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "commands_total",
			Help:      "Total number of commands dispatched by kind and status",
		}, []string{"kind", "status"}),
		CommandDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "command_duration_seconds",
			Help:      "End-to-end command duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),

		// Gateway metrics
		GatewayCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_latency_seconds",
			Help:      "Gateway operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		// Refresh metrics
		RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "refreshes_total",
			Help:      "Total number of cache refreshes by status",
		}, []string{"status"}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "refresh_duration_seconds",
			Help:      "Full cache refresh duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		StaleDiscards: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "stale_discards_total",
			Help:      "Total number of fetch results discarded as stale",
		}),

		// Cache metrics
		CachedStablecoins: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "stablecoins",
			Help:      "Current number of stablecoins held in the cache",
		}),

		// Subscription metrics
		AccountNotifications: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "account_notifications_total",
			Help:      "Total number of program account notifications received",
		}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "ws_reconnects_total",
			Help:      "Total number of WebSocket reconnects",
		}),

		// Health metrics
		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful full refresh",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCommand records a dispatched command.
func RecordCommand(kind, status string, durationSeconds float64) {
	DefaultMetrics.CommandsTotal.WithLabelValues(kind, status).Inc()
	DefaultMetrics.CommandDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordGatewayCall records gateway operation latency.
func RecordGatewayCall(method string, seconds float64) {
	DefaultMetrics.GatewayCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRefresh records a full cache refresh.
func RecordRefresh(status string, durationSeconds float64) {
	DefaultMetrics.RefreshesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.RefreshDuration.Observe(durationSeconds)
}

// RecordStaleDiscard increments the stale result discard counter.
func RecordStaleDiscard() {
	DefaultMetrics.StaleDiscards.Inc()
}

// UpdateCachedStablecoins updates the cache size gauge.
func UpdateCachedStablecoins(n int) {
	DefaultMetrics.CachedStablecoins.Set(float64(n))
}

// RecordAccountNotification increments the account notification counter.
func RecordAccountNotification() {
	DefaultMetrics.AccountNotifications.Inc()
}

// RecordWSReconnect increments the WebSocket reconnect counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}
