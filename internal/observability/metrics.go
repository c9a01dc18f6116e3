package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dajtovon_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dajtovon_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheResults counts stats cache lookups by result (hit, miss, error).
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dajtovon_cache_results_total",
		Help: "Stats cache lookups by result",
	}, []string{"result"})

	// ReactionsTotal counts reaction requests by target, action and outcome.
	ReactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dajtovon_reactions_total",
		Help: "Reaction requests by target type, action and outcome",
	}, []string{"target", "action", "outcome"})

	// NotificationsCreated counts persisted notifications by kind.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dajtovon_notifications_created_total",
		Help: "Persisted notifications by kind",
	}, []string{"kind"})

	// NotificationsSuppressed counts events dropped because actor and recipient match.
	NotificationsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dajtovon_notifications_self_suppressed_total",
		Help: "Events not turned into notifications because the actor owns the target",
	})

	// NotificationDeliveries counts live pushes by outcome (delivered, failed).
	NotificationDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dajtovon_notification_deliveries_total",
		Help: "Live notification pushes by outcome",
	}, []string{"outcome"})

	// WebSocketConnectionsTotal is the gauge of registered live connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dajtovon_websocket_connections_total",
		Help: "Total number of registered WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dajtovon_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dajtovon_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// RateLimitRejections counts rejected requests per limiter policy.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dajtovon_rate_limit_rejections_total",
		Help: "Requests rejected by the sliding window limiter",
	}, []string{"policy"})

	// RateLimitBuckets is the number of keys tracked by the limiter.
	RateLimitBuckets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dajtovon_rate_limit_buckets",
		Help: "Number of live sliding window buckets",
	})

	// RateLimitEvictions counts idle buckets removed by the sweeper.
	RateLimitEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dajtovon_rate_limit_evictions_total",
		Help: "Idle sliding window buckets evicted",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
