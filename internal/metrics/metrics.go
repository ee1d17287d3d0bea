// Package metrics exposes Prometheus collectors for the reconciliation loops.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nvrsync"

type Metrics struct {
	cycles       *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	hostFailures *prometheus.CounterVec
	cameraOps    *prometheus.CounterVec
	nextDelay    *prometheus.GaugeVec
	overlapSkips *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Reconciliation cycles by loop and outcome (ok, error).",
		}, []string{"loop", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one reconciliation cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"loop"}),
		hostFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "host_failures_total",
			Help:      "Per-host fetch failures, by loop.",
		}, []string{"loop"}),
		cameraOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "camera_operations_total",
			Help:      "Camera writes issued by the loops, by operation and outcome.",
		}, []string{"op", "outcome"}),
		nextDelay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "next_delay_seconds",
			Help:      "Delay before the next cycle of each loop.",
		}, []string{"loop"}),
		overlapSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overlap_skips_total",
			Help:      "Cycles not started because the previous one was still running.",
		}, []string{"loop"}),
	}

	reg.MustRegister(m.cycles, m.duration, m.hostFailures, m.cameraOps, m.nextDelay, m.overlapSkips)
	return m
}

// ObserveCycle records one finished cycle.
func (m *Metrics) ObserveCycle(loop string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.cycles.WithLabelValues(loop, outcome).Inc()
	m.duration.WithLabelValues(loop).Observe(d.Seconds())
}

// HostFailures adds n failed hosts for loop.
func (m *Metrics) HostFailures(loop string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.hostFailures.WithLabelValues(loop).Add(float64(n))
}

// CameraOp counts one camera write.
func (m *Metrics) CameraOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.cameraOps.WithLabelValues(op, outcome).Inc()
}

// NextDelay records the delay chosen after a cycle.
func (m *Metrics) NextDelay(loop string, d time.Duration) {
	if m == nil {
		return
	}
	m.nextDelay.WithLabelValues(loop).Set(d.Seconds())
}

// OverlapSkip counts a cycle refused by the in-progress guard.
func (m *Metrics) OverlapSkip(loop string) {
	if m == nil {
		return
	}
	m.overlapSkips.WithLabelValues(loop).Inc()
}
