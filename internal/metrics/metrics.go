// Package metrics exposes Prometheus collectors for HTTP traffic and ledger events.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/seams-estates/seams/internal/models"
)

const namespace = "seams"

// Metrics holds every collector. Create one per registry.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	statusCategory *prometheus.CounterVec

	paymentsRecorded *prometheus.CounterVec
	amountRecorded   *prometheus.CounterVec
	paymentsVerified prometheus.Counter
	billsMarkedPaid  prometheus.Counter
	billsPosted      *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg gets a fresh registry
// with the Go and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		statusCategory: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_status_category_total",
			Help:      "Total number of responses by status category (2xx, 4xx, 5xx)",
		}, []string{"category"}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments submitted, by method",
		}, []string{"method"}),
		amountRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_kes_total",
			Help:      "Sum of submitted payment amounts in KES, by method",
		}, []string{"method"}),
		paymentsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_verified_total",
			Help:      "Payments verified",
		}),
		billsMarkedPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_marked_paid_total",
			Help:      "Bills settled by verified payments",
		}),
		billsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_posted_total",
			Help:      "Bills posted, by type",
		}, []string{"bill_type"}),
	}

	reg.MustRegister(
		m.requests, m.duration, m.statusCategory,
		m.paymentsRecorded, m.amountRecorded, m.paymentsVerified, m.billsMarkedPaid, m.billsPosted,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) PaymentRecorded(method models.PaymentMethod, amount decimal.Decimal) {
	m.paymentsRecorded.WithLabelValues(string(method)).Inc()
	f, _ := amount.Float64()
	m.amountRecorded.WithLabelValues(string(method)).Add(f)
}

func (m *Metrics) PaymentVerified(billsMarkedPaid int) {
	m.paymentsVerified.Inc()
	m.billsMarkedPaid.Add(float64(billsMarkedPaid))
}

func (m *Metrics) BillPosted(billType models.ChargeType, _ decimal.Decimal) {
	m.billsPosted.WithLabelValues(string(billType)).Inc()
}

// statusCategory buckets an HTTP status code.
func statusCategory(status int) string {
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

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware records request count, status class and latency.
// Requests are labeled by their ServeMux pattern so ids do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.statusCategory.WithLabelValues(statusCategory(rec.status)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
