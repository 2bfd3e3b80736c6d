package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platinummonkey/hub/pkg/webhooks"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Delivery metrics
	DeliveriesTotal    *prometheus.CounterVec
	DeliveryDuration   *prometheus.HistogramVec
	EventsTotal        *prometheus.CounterVec
	RateLimitedTotal   *prometheus.CounterVec
	SubscriptionsGauge prometheus.Gauge

	// Management API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics on a private
// registry so independent instances never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		DeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_webhook_deliveries_total",
				Help: "Total number of webhook delivery attempts",
			},
			[]string{"event_type", "status"},
		),
		DeliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hub_webhook_delivery_duration_seconds",
				Help:    "Webhook delivery duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event_type"},
		),
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_webhook_events_total",
				Help: "Total number of triggered events",
			},
			[]string{"event_type"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_webhook_rate_limited_total",
				Help: "Total number of deliveries dropped by rate limiting",
			},
			[]string{"url"},
		),
		SubscriptionsGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hub_webhook_subscriptions",
				Help: "Number of registered subscriptions",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_http_requests_total",
				Help: "Total number of management API requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hub_http_request_duration_seconds",
				Help:    "Management API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.DeliveriesTotal,
		m.DeliveryDuration,
		m.EventsTotal,
		m.RateLimitedTotal,
		m.SubscriptionsGauge,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// ObserveEvent implements webhooks.Recorder.
func (m *Metrics) ObserveEvent(eventType webhooks.EventType) {
	m.EventsTotal.WithLabelValues(string(eventType)).Inc()
}

// ObserveDelivery implements webhooks.Recorder.
func (m *Metrics) ObserveDelivery(eventType webhooks.EventType, status string, duration time.Duration) {
	m.DeliveriesTotal.WithLabelValues(string(eventType), status).Inc()
	m.DeliveryDuration.WithLabelValues(string(eventType)).Observe(duration.Seconds())
}

// ObserveRateLimited implements webhooks.Recorder.
func (m *Metrics) ObserveRateLimited(url string) {
	m.RateLimitedTotal.WithLabelValues(url).Inc()
}

// SetSubscriptions implements webhooks.Recorder.
func (m *Metrics) SetSubscriptions(count int) {
	m.SubscriptionsGauge.Set(float64(count))
}

// Handler returns the /metrics endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// InstrumentHandler wraps an HTTP handler with request count and duration
// metrics labeled by route path.
func (m *Metrics) InstrumentHandler(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status code for metrics labels.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
