// Package metrics exposes prometheus counters for the auth API and the
// credential store connection.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/gophauth/internal/server/connections"
)

// Metrics owns a private registry, so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	storeState      *prometheus.GaugeVec
	storeTransition *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_http_requests_total",
				Help: "Total number of API requests by route and status code",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gophauth_http_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		storeState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gophauth_store_state",
				Help: "1 for the current credential store connection state, 0 otherwise",
			},
			[]string{"state"},
		),
		storeTransition: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_store_transitions_total",
				Help: "Credential store connection state transitions",
			},
			[]string{"state"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.storeState,
		m.storeTransition,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.setStoreState(connections.StateCold)

	return m
}

// ObserveRequest records one finished API request. route is the matched
// pattern, not the raw path.
func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// StoreObserver returns a connections.Observer feeding the store gauges.
func (m *Metrics) StoreObserver() connections.Observer {
	return func(s connections.State) {
		m.storeTransition.WithLabelValues(string(s)).Inc()
		m.setStoreState(s)
	}
}

func (m *Metrics) setStoreState(current connections.State) {
	for _, s := range []connections.State{connections.StateCold, connections.StateConnecting, connections.StateLive} {
		v := 0.0
		if s == current {
			v = 1
		}
		m.storeState.WithLabelValues(string(s)).Set(v)
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
