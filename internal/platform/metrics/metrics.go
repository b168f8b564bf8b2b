package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPLatency        *prometheus.HistogramVec
	ParcelsCreated     prometheus.Counter
	TrackingAppended   prometheus.Counter
	PaymentsRecorded   prometheus.Counter
	PaymentRejections  *prometheus.CounterVec
	GatewayLatency     prometheus.Histogram
	RidersActivated    prometheus.Counter
	RoleCacheLookups   *prometheus.CounterVec
	OutboxPublished    prometheus.Counter
	OutboxPublishError prometheus.Counter
}

// New creates and registers all Prometheus metrics on reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profast_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code",
		}, []string{"method", "route", "status"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "profast_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ParcelsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "profast_parcels_created_total",
			Help: "Total number of parcels created",
		}),
		TrackingAppended: f.NewCounter(prometheus.CounterOpts{
			Name: "profast_tracking_events_appended_total",
			Help: "Total number of tracking events appended",
		}),
		PaymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "profast_payments_recorded_total",
			Help: "Total number of payments recorded",
		}),
		PaymentRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profast_payment_rejections_total",
			Help: "Payment record attempts rejected, by error code",
		}, []string{"code"}),
		GatewayLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "profast_payment_gateway_duration_seconds",
			Help:    "Latency of payment intent creation at the gateway",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RidersActivated: f.NewCounter(prometheus.CounterOpts{
			Name: "profast_riders_activated_total",
			Help: "Total number of rider applications moved to active",
		}),
		RoleCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profast_role_cache_lookups_total",
			Help: "Role cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "profast_outbox_published_total",
			Help: "Outbox entries published to the broker",
		}),
		OutboxPublishError: f.NewCounter(prometheus.CounterOpts{
			Name: "profast_outbox_publish_errors_total",
			Help: "Outbox publish batches that failed",
		}),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) IncParcelsCreated() {
	if m == nil {
		return
	}
	m.ParcelsCreated.Inc()
}

func (m *Metrics) IncTrackingAppended() {
	if m == nil {
		return
	}
	m.TrackingAppended.Inc()
}

func (m *Metrics) IncPaymentsRecorded() {
	if m == nil {
		return
	}
	m.PaymentsRecorded.Inc()
}

func (m *Metrics) IncPaymentRejected(code string) {
	if m == nil {
		return
	}
	m.PaymentRejections.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveGateway(d time.Duration) {
	if m == nil {
		return
	}
	m.GatewayLatency.Observe(d.Seconds())
}

func (m *Metrics) IncRidersActivated() {
	if m == nil {
		return
	}
	m.RidersActivated.Inc()
}

// IncRoleCache records a role cache lookup; result is hit, miss or error.
func (m *Metrics) IncRoleCache(result string) {
	if m == nil {
		return
	}
	m.RoleCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) AddOutboxPublished(n int) {
	if m == nil {
		return
	}
	m.OutboxPublished.Add(float64(n))
}

func (m *Metrics) IncOutboxPublishError() {
	if m == nil {
		return
	}
	m.OutboxPublishError.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
