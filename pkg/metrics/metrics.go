package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cart_service"

// Metrics groups the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	CartMutations   *prometheus.CounterVec
	CatalogFetches  *prometheus.HistogramVec
	CartTotalAmount prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Applied cart mutations by action.",
		}, []string{"action"}),
		CatalogFetches: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_duration_seconds",
			Help:      "Duration of catalog fetches in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		CartTotalAmount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_total_amount",
			Help:      "Current cart grand total in the default currency.",
		}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.CartMutations, m.CatalogFetches, m.CartTotalAmount)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveCartMutation(action string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveCatalogFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.CatalogFetches.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) SetCartTotal(amount float64) {
	if m == nil {
		return
	}
	m.CartTotalAmount.Set(amount)
}
