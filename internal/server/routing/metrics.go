package routing

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "gantry"

// Metrics holds the dispatch instrumentation shared by all listeners.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	forwardsTotal   *prometheus.CounterVec
	catchersTotal   *prometheus.CounterVec
}

// NewMetrics registers the dispatch metrics on the given registerer. A nil
// registerer falls back to the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Requests dispatched, by listener, method, and response code.",
		}, []string{"listener", "method", "code"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling latency, by listener and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"listener", "route"}),

		forwardsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "route_forwards_total",
			Help:      "Candidate routes abandoned by a forwarding guard or constraint.",
		}, []string{"listener", "route"}),

		catchersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "catcher_invocations_total",
			Help:      "Error responses handled, by listener and status code.",
		}, []string{"listener", "code"}),
	}
}

func (m *Metrics) observeRequest(listener, method string, code int, route string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(listener, method, strconv.Itoa(code)).Inc()
	if route == "" {
		route = "none"
	}
	m.requestDuration.WithLabelValues(listener, route).Observe(elapsed.Seconds())
}

func (m *Metrics) observeForward(listener, route string) {
	if m == nil {
		return
	}
	m.forwardsTotal.WithLabelValues(listener, route).Inc()
}

func (m *Metrics) observeCatcher(listener string, code int) {
	if m == nil {
		return
	}
	m.catchersTotal.WithLabelValues(listener, strconv.Itoa(code)).Inc()
}
