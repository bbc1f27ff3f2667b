package pushmetrics

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PushMetrics collects reload-run counters on a private registry so they
// can be pushed to an external Prometheus endpoint. It never exposes a
// scrape handler of its own.
type PushMetrics struct {
	registry *prometheus.Registry
	pusher   Pusher

	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	rowsIngested   prometheus.Counter
	rowsSkipped    *prometheus.CounterVec

	snapshotRecords         prometheus.Gauge
	snapshotDuplicateEmails prometheus.Gauge
	snapshotDuplicatePhones prometheus.Gauge
	snapshotCreated         prometheus.Gauge
	memoryUsage             prometheus.Gauge
}

// New registers the push collectors on the given registry. A nil registry
// gets a fresh private one.
func New(registry *prometheus.Registry, pusher Pusher, environment, version string) *PushMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	constLabels := prometheus.Labels{}
	if env := strings.TrimSpace(environment); env != "" {
		constLabels["environment"] = env
	}
	if v := strings.TrimSpace(version); v != "" {
		constLabels["version"] = v
	}

	m := &PushMetrics{
		registry: registry,
		pusher:   pusher,
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rollcall_reloads_total",
			Help:        "Reload attempts by outcome.",
			ConstLabels: constLabels,
		}, []string{"status"}),
		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "rollcall_reload_duration_seconds",
			Help:        "Wall-clock duration of reload runs.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}),
		rowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "rollcall_rows_ingested_total",
			Help:        "Rows accepted into snapshots.",
			ConstLabels: constLabels,
		}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "rollcall_rows_skipped_total",
			Help:        "Rows dropped during ingestion by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		snapshotRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rollcall_snapshot_records",
			Help:        "Record count of the current snapshot.",
			ConstLabels: constLabels,
		}),
		snapshotDuplicateEmails: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rollcall_snapshot_duplicate_emails",
			Help:        "Rows sharing an email in the current snapshot.",
			ConstLabels: constLabels,
		}),
		snapshotDuplicatePhones: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rollcall_snapshot_duplicate_phones",
			Help:        "Rows sharing a phone number in the current snapshot.",
			ConstLabels: constLabels,
		}),
		snapshotCreated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rollcall_snapshot_created_timestamp_seconds",
			Help:        "Unix time the current snapshot was built.",
			ConstLabels: constLabels,
		}),
		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "rollcall_memory_usage_bytes",
			Help:        "Memory obtained from the OS by the process.",
			ConstLabels: constLabels,
		}),
	}

	registry.MustRegister(
		m.reloads,
		m.reloadDuration,
		m.rowsIngested,
		m.rowsSkipped,
		m.snapshotRecords,
		m.snapshotDuplicateEmails,
		m.snapshotDuplicatePhones,
		m.snapshotCreated,
		m.memoryUsage,
	)
	return m
}

// RecordReload counts one finished reload attempt by outcome.
func (m *PushMetrics) RecordReload(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(normalizeLabel(status)).Inc()
	m.reloadDuration.Observe(d.Seconds())
}

// AddRowsIngested adds the row count of one accepted generation.
func (m *PushMetrics) AddRowsIngested(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rowsIngested.Add(float64(count))
}

// AddRowsSkipped adds dropped rows by reason.
func (m *PushMetrics) AddRowsSkipped(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rowsSkipped.WithLabelValues(normalizeLabel(reason)).Add(float64(count))
}

// SetSnapshot updates the gauges describing the live snapshot.
func (m *PushMetrics) SetSnapshot(records, duplicateEmails, duplicatePhones int, at time.Time) {
	if m == nil {
		return
	}
	m.snapshotRecords.Set(float64(records))
	m.snapshotDuplicateEmails.Set(float64(duplicateEmails))
	m.snapshotDuplicatePhones.Set(float64(duplicatePhones))
	if !at.IsZero() {
		m.snapshotCreated.Set(float64(at.Unix()))
	}
}

// SetMemoryUsage updates the process memory gauge.
func (m *PushMetrics) SetMemoryUsage(bytes uint64) {
	if m == nil {
		return
	}
	m.memoryUsage.Set(float64(bytes))
}

// Push sends the current collector state through the configured pusher.
func (m *PushMetrics) Push(ctx context.Context) error {
	if m == nil || m.pusher == nil {
		return nil
	}
	return m.pusher.Push(ctx, m.registry)
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
