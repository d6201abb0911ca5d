// Package metrics provides Prometheus metrics for the chat relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChatRequestsTotal counts relay requests by mode and outcome.
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests",
		},
		[]string{"mode", "status"},
	)

	// ChatDuration measures end-to-end request duration, retrieval included.
	ChatDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "relay",
			Name:      "chat_duration_seconds",
			Help:      "Duration of chat requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"mode"},
	)

	// StreamFragments observes how many fragments a streamed answer had.
	StreamFragments = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "relay",
			Name:      "stream_fragments",
			Help:      "Distribution of fragments per streamed answer",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// RetrievalTotal counts knowledge base lookups by outcome.
	RetrievalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "retrieval_total",
			Help:      "Total number of knowledge base lookups",
		},
		[]string{"status"},
	)

	// RetrievalCacheTotal counts retrieval cache hits and misses.
	RetrievalCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "retrieval_cache_total",
			Help:      "Retrieval cache lookups",
		},
		[]string{"result"},
	)

	// ProviderErrorsTotal counts classified provider failures.
	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "relay",
			Name:      "provider_errors_total",
			Help:      "Total number of provider errors",
		},
		[]string{"provider", "kind"},
	)

	// WebsocketSessions tracks open /ws sessions.
	WebsocketSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "relay",
			Name:      "websocket_sessions",
			Help:      "Number of open websocket sessions",
		},
	)
)

// RecordChat records one finished chat request.
func RecordChat(mode, status string, seconds float64) {
	ChatRequestsTotal.WithLabelValues(mode, status).Inc()
	ChatDuration.WithLabelValues(mode).Observe(seconds)
}

func RecordFragments(n int) {
	StreamFragments.Observe(float64(n))
}

func RecordRetrieval(status string) {
	RetrievalTotal.WithLabelValues(status).Inc()
}

func RecordCacheHit()  { RetrievalCacheTotal.WithLabelValues("hit").Inc() }
func RecordCacheMiss() { RetrievalCacheTotal.WithLabelValues("miss").Inc() }

func RecordProviderError(provider, kind string) {
	ProviderErrorsTotal.WithLabelValues(provider, kind).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
