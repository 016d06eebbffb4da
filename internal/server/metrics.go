package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the server's Prometheus collectors on a private registry,
// so tests can run handlers side by side without duplicate registration
// panics.
type Metrics struct {
	registry      *prometheus.Registry
	conversions   prometheus.Counter
	records       prometheus.Counter
	diagnostics   prometheus.Counter
	requestErrors prometheus.Counter
}

// NewMetrics builds and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reshape_conversions_total",
			Help: "Trees converted successfully.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reshape_records_total",
			Help: "Records visited across all conversions.",
		}),
		diagnostics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reshape_diagnostics_total",
			Help: "Recoverable per-action problems reported during conversions.",
		}),
		requestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reshape_request_errors_total",
			Help: "Requests rejected or failed.",
		}),
	}
	m.registry.MustRegister(
		m.conversions,
		m.records,
		m.diagnostics,
		m.requestErrors,
		collectors.NewGoCollector(),
	)
	return m
}
