package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records repository query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modulehub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// MediaUploads counts accepted and rejected uploads by media kind and store.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modulehub_media_uploads_total",
		Help: "Total number of media uploads",
	}, []string{"kind", "store", "result"})

	// ProviderCalls counts calls to billing providers.
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modulehub_provider_calls_total",
		Help: "Total number of billing provider calls",
	}, []string{"provider", "operation", "result"})

	// ProviderLatency records billing provider call latency.
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "modulehub_provider_latency_seconds",
		Help:    "Billing provider call latency in seconds",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"provider", "operation"})

	// WebhookEvents counts received Stripe webhook events by type and outcome.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modulehub_webhook_events_total",
		Help: "Total number of billing webhook events",
	}, []string{"type", "outcome"})

	// ChatMessages counts persisted chat messages by module.
	ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modulehub_chat_messages_total",
		Help: "Total number of chat messages sent",
	}, []string{"module"})

	// WebSocketConnections is the gauge of websocket connections per hub.
	WebSocketConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "modulehub_websocket_connections",
		Help: "Number of websocket connections per hub",
	}, []string{"hub"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "modulehub_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackProviderCall returns a function recording latency and outcome of a provider call.
func TrackProviderCall(provider, operation string) func(error) {
	start := time.Now()
	return func(err error) {
		ProviderLatency.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		ProviderCalls.WithLabelValues(provider, operation, result).Inc()
	}
}
