package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/backupd/backupd/pkg/metrics"
)

func init() {
	metrics.RegisterGCMetricsConstructor(newGCMetrics)
}

type gcMetrics struct {
	marked            prometheus.Counter
	swept             prometheus.Counter
	reclaimedBytes    prometheus.Counter
	falsePositiveRate prometheus.Gauge
	markDuration      prometheus.Histogram
	sweepDuration     prometheus.Histogram
}

func newGCMetrics() metrics.GCMetrics {
	reg := metrics.GetRegistry()
	return &gcMetrics{
		marked: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "backupd_gc_objects_marked_total",
			Help: "Total objects reached during the mark phase.",
		}),
		swept: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "backupd_gc_objects_swept_total",
			Help: "Total objects deleted during the sweep phase.",
		}),
		reclaimedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "backupd_gc_reclaimed_bytes_total",
			Help: "Total ciphertext bytes reclaimed by sweep.",
		}),
		falsePositiveRate: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "backupd_gc_bloom_false_positive_rate",
			Help: "Configured false-positive rate of the mark phase's Bloom filter for the most recent run.",
		}),
		markDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "backupd_gc_mark_duration_seconds",
			Help:    "Duration of the mark phase.",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 3600},
		}),
		sweepDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "backupd_gc_sweep_duration_seconds",
			Help:    "Duration of the sweep phase.",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 3600},
		}),
	}
}

func (m *gcMetrics) RecordMarked() {
	m.marked.Inc()
}

func (m *gcMetrics) RecordSwept(reclaimedBytes int) {
	m.swept.Inc()
	m.reclaimedBytes.Add(float64(reclaimedBytes))
}

func (m *gcMetrics) RecordFalsePositiveBudget(rate float64) {
	m.falsePositiveRate.Set(rate)
}

func (m *gcMetrics) ObserveRun(markDuration, sweepDuration time.Duration) {
	m.markDuration.Observe(markDuration.Seconds())
	m.sweepDuration.Observe(sweepDuration.Seconds())
}
