package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/backupd/backupd/pkg/metrics"
)

func init() {
	metrics.RegisterScanMetricsConstructor(newScanMetrics)
}

type scanMetrics struct {
	reconcileDuration prometheus.Histogram
	entriesDirtied    prometheus.Counter
	entriesDeleted    prometheus.Counter
	entriesInserted   prometheus.Counter
	scanDuration      *prometheus.HistogramVec
}

func newScanMetrics() metrics.ScanMetrics {
	reg := metrics.GetRegistry()
	return &scanMetrics{
		reconcileDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "backupd_scan_reconcile_duration_seconds",
			Help:    "Duration of a single general-pass reconcile step.",
			Buckets: prometheus.DefBuckets,
		}),
		entriesDirtied: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "backupd_scan_entries_dirtied_total",
			Help: "Total files cache entries marked dirty by a scan.",
		}),
		entriesDeleted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "backupd_scan_entries_deleted_total",
			Help: "Total files cache entries deleted because their path vanished.",
		}),
		entriesInserted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "backupd_scan_entries_inserted_total",
			Help: "Total files cache entries inserted for newly discovered paths.",
		}),
		scanDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backupd_scan_duration_seconds",
			Help:    "Duration of a full Scan call, by backup set.",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}, []string{"backup_set"}),
	}
}

func (m *scanMetrics) ObserveReconcile(d time.Duration) {
	m.reconcileDuration.Observe(d.Seconds())
}

func (m *scanMetrics) RecordEntryDirtied() {
	m.entriesDirtied.Inc()
}

func (m *scanMetrics) RecordEntryDeleted() {
	m.entriesDeleted.Inc()
}

func (m *scanMetrics) RecordEntryInserted() {
	m.entriesInserted.Inc()
}

func (m *scanMetrics) ObserveScan(backupSet string, d time.Duration) {
	m.scanDuration.WithLabelValues(backupSet).Observe(d.Seconds())
}
