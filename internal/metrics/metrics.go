package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the dashboard and the bot
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	ExperienceTransitionsTotal *prometheus.CounterVec
	GuildListThrottledTotal    prometheus.Counter
	PremiumActivationsTotal    prometheus.Counter

	// Notification Metrics
	EventsRelayedTotal      prometheus.Counter
	OutboxBacklog           prometheus.Gauge
	NotificationsSentTotal  *prometheus.CounterVec
	NotificationDeliveryLag prometheus.Histogram
}

// NewMetricsRegistry registers every metric on reg. Tests pass a fresh
// prometheus.NewRegistry(); processes pass prometheus.DefaultRegisterer.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servercv_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "servercv_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "servercv_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servercv_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servercv_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Business Metrics
		ExperienceTransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servercv_experience_transitions_total",
				Help: "Experience lifecycle transitions by transition and outcome",
			},
			[]string{"transition", "outcome"},
		),
		GuildListThrottledTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "servercv_guild_list_throttled_total",
				Help: "Guild listing calls rejected by the per-user cooldown",
			},
		),
		PremiumActivationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "servercv_premium_activations_total",
				Help: "Accepted payment confirmations",
			},
		),

		// Notification Metrics
		EventsRelayedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "servercv_events_relayed_total",
				Help: "Outbox events published to the event stream",
			},
		),
		OutboxBacklog: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "servercv_outbox_backlog",
				Help: "Outbox events waiting to be published",
			},
		),
		NotificationsSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "servercv_notifications_sent_total",
				Help: "Discord notifications by event kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		NotificationDeliveryLag: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "servercv_notification_delivery_lag_seconds",
				Help:    "Time between a lifecycle event and its Discord notification",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 300},
			},
		),
	}
}

// ObserveTransition counts one lifecycle transition outcome. Nil-safe so
// services can run without metrics in tests.
func (m *MetricsRegistry) ObserveTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.ExperienceTransitionsTotal.WithLabelValues(transition, outcome).Inc()
}

// ObserveCache counts a hit or miss for a cache key pattern.
func (m *MetricsRegistry) ObserveCache(pattern string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(pattern).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}
