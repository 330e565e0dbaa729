// Package metrics exposes Prometheus instruments for badge runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the badge pipeline.
// Tracks per-badge outcomes, skips and render durations.
type Metrics struct {
	registry *prometheus.Registry

	BadgesRendered   *prometheus.CounterVec
	BadgesFailed     *prometheus.CounterVec
	PositionsSkipped prometheus.Counter
	OrdersSkipped    prometheus.Counter
	Runs             *prometheus.CounterVec
	RenderDuration   prometheus.Histogram
}

// New creates a Metrics instance registered on its own registry, so
// several pipelines in one process (and tests) never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		BadgesRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "badgegen_badges_rendered_total",
			Help: "Total number of badges rendered, by category",
		}, []string{"category"}),
		BadgesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "badgegen_badges_failed_total",
			Help: "Total number of positions that failed, by pipeline stage",
		}, []string{"stage"}),
		PositionsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "badgegen_positions_skipped_total",
			Help: "Total number of positions skipped as non-printable",
		}),
		OrdersSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "badgegen_orders_skipped_total",
			Help: "Total number of orders skipped by the last-update cursor",
		}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "badgegen_runs_total",
			Help: "Total number of pipeline runs, by mode and status",
		}, []string{"mode", "status"}),
		RenderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "badgegen_render_duration_seconds",
			Help:    "Duration of a single badge render including PDF conversion",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// Registry returns the registry the instruments live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRendered records a finished badge.
// Call with time.Now() at the start of the render.
func (m *Metrics) ObserveRendered(category string, start time.Time) {
	m.BadgesRendered.WithLabelValues(category).Inc()
	m.RenderDuration.Observe(time.Since(start).Seconds())
}

// IncrementFailed records a position that failed at stage
func (m *Metrics) IncrementFailed(stage string) {
	m.BadgesFailed.WithLabelValues(stage).Inc()
}

// IncrementSkipped records a non-printable position
func (m *Metrics) IncrementSkipped() {
	m.PositionsSkipped.Inc()
}

// IncrementOrdersSkipped records an order filtered by the cursor
func (m *Metrics) IncrementOrdersSkipped() {
	m.OrdersSkipped.Inc()
}

// IncrementRun records a completed run
func (m *Metrics) IncrementRun(mode, status string) {
	m.Runs.WithLabelValues(mode, status).Inc()
}
