package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for update-dotdee runs.
// A zero-value or disabled Metrics accepts every call and records nothing.
type Metrics struct {
	config MetricsConfig

	updates        *prometheus.CounterVec
	updateDuration *prometheus.HistogramVec
	fragments      *prometheus.CounterVec
	contentBytes   prometheus.Gauge
	lastSuccess    prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_total",
				Help:      "Total number of update runs by result",
			},
			[]string{"result"},
		),
		updateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "update_duration_seconds",
				Help:      "Duration of update runs in seconds",
				Buckets:   buckets,
			},
			[]string{"result"},
		),
		fragments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fragments_total",
				Help:      "Total number of fragments materialized by kind",
			},
			[]string{"kind"},
		),
		contentBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "generated_bytes",
				Help:      "Size of the last generated file in bytes",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful update",
			},
		),
	}

	registry.MustRegister(
		m.updates,
		m.updateDuration,
		m.fragments,
		m.contentBytes,
		m.lastSuccess,
	)

	return m, nil
}

// RecordUpdate records a finished update with its result label and duration.
func (m *Metrics) RecordUpdate(result string, duration time.Duration) {
	if m == nil || m.updates == nil {
		return
	}
	m.updates.WithLabelValues(result).Inc()
	m.updateDuration.WithLabelValues(result).Observe(duration.Seconds())
	if result == ResultUpdated || result == ResultForced || result == ResultUnchanged {
		m.lastSuccess.SetToCurrentTime()
	}
}

// RecordFragment records one materialized fragment ("static" or "executable").
func (m *Metrics) RecordFragment(kind string) {
	if m == nil || m.fragments == nil {
		return
	}
	m.fragments.WithLabelValues(kind).Inc()
}

// SetGeneratedBytes records the size of the generated file.
func (m *Metrics) SetGeneratedBytes(n int) {
	if m == nil || m.contentBytes == nil {
		return
	}
	m.contentBytes.Set(float64(n))
}

// Registry returns the underlying registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile flushes all metrics to the configured textfile.
func (m *Metrics) WriteTextfile() error {
	if m == nil || m.registry == nil || m.config.Textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.config.Textfile, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Update results used as metric labels.
const (
	ResultUpdated   = "updated"
	ResultUnchanged = "unchanged"
	ResultForced    = "forced"
	ResultRefused   = "refused"
	ResultFailed    = "failed"
)

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
