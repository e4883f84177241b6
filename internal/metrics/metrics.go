// Package metrics exposes Prometheus collectors for the dev server: rebuild
// outcomes and durations, connected live-reload clients, reload messages and
// served HTTP responses.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rebuild results used as the "result" label.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics groups the collectors of one dev session.
type Metrics struct {
	RebuildsTotal   *prometheus.CounterVec
	RebuildDuration prometheus.Histogram
	ClientsActive   prometheus.Gauge
	ReloadsSent     prometheus.Counter
	RequestsTotal   *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg gets a
// fresh registry so that parallel sessions in tests never collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		RebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unreact_rebuilds_total",
				Help: "Number of full rebuilds triggered by file changes",
			},
			[]string{"result"},
		),
		RebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "unreact_rebuild_duration_seconds",
				Help:    "Time spent in one full rebuild",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		),
		ClientsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "unreact_ws_clients",
				Help: "Number of connected live-reload clients",
			},
		),
		ReloadsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "unreact_reload_messages_total",
				Help: "Number of reload messages handed to clients",
			},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unreact_http_requests_total",
				Help: "HTTP responses served by the dev file server",
			},
			[]string{"code"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RebuildsTotal,
		m.RebuildDuration,
		m.ClientsActive,
		m.ReloadsSent,
		m.RequestsTotal,
	)

	return m
}

// ObserveRebuild records one rebuild attempt.
func (m *Metrics) ObserveRebuild(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.RebuildsTotal.WithLabelValues(result).Inc()
	m.RebuildDuration.Observe(d.Seconds())
}

// ObserveRequest records one HTTP response by status code.
func (m *Metrics) ObserveRequest(code int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}

// SetClients updates the connected client gauge.
func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.ClientsActive.Set(float64(n))
}

// AddReloads counts reload messages handed to clients.
func (m *Metrics) AddReloads(n int) {
	if m == nil {
		return
	}
	m.ReloadsSent.Add(float64(n))
}

// Handler serves the Prometheus text exposition of this session.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
