package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "whalesentinel"

// Metrics holds the poller's Prometheus collectors.
type Metrics struct {
	Ticks               *prometheus.CounterVec
	TickDuration        prometheus.Histogram
	SymbolFetchFailures prometheus.Counter
	Classifications     *prometheus.CounterVec
	AlertsActive        prometheus.Gauge
	AlertsCreated       prometheus.Counter
	AlertsExpired       prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Polling ticks by outcome.",
		}, []string{"outcome"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of a polling tick.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		SymbolFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbol_fetch_failures_total",
			Help:      "Symbols skipped because their candles could not be fetched.",
		}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Non-empty classifications by kind.",
		}, []string{"kind"}),
		AlertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_active",
			Help:      "Live alert records.",
		}),
		AlertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_created_total",
			Help:      "Alert records created.",
		}),
		AlertsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_expired_total",
			Help:      "Alert records removed by TTL.",
		}),
	}
	reg.MustRegister(m.Ticks, m.TickDuration, m.SymbolFetchFailures,
		m.Classifications, m.AlertsActive, m.AlertsCreated, m.AlertsExpired)
	return m
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
