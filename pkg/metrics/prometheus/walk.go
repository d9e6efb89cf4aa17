package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/backupd/backupd/pkg/metrics"
)

func init() {
	metrics.RegisterWalkMetricsConstructor(newWalkMetrics)
}

type walkMetrics struct {
	objectsUploaded *prometheus.CounterVec
	objectsSkipped  *prometheus.CounterVec
	plaintextBytes  *prometheus.HistogramVec
	ciphertextBytes *prometheus.HistogramVec
	uploadDuration  *prometheus.HistogramVec
	backupDuration  *prometheus.HistogramVec
	backupOutcomes  *prometheus.CounterVec
}

func newWalkMetrics() metrics.WalkMetrics {
	reg := metrics.GetRegistry()
	sizeBuckets := []float64{1024, 8192, 65536, 262144, 1048576, 10485760, 104857600}
	return &walkMetrics{
		objectsUploaded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "backupd_walk_objects_uploaded_total",
			Help: "Total objects put to the storage backend, by kind.",
		}, []string{"kind"}),
		objectsSkipped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "backupd_walk_objects_skipped_total",
			Help: "Total objects whose OID already existed, by kind (dedup hits).",
		}, []string{"kind"}),
		plaintextBytes: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backupd_walk_plaintext_bytes",
			Help:    "Plaintext payload size of uploaded objects.",
			Buckets: sizeBuckets,
		}, []string{"kind"}),
		ciphertextBytes: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backupd_walk_ciphertext_bytes",
			Help:    "Sealed payload size of uploaded objects.",
			Buckets: sizeBuckets,
		}, []string{"kind"}),
		uploadDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backupd_walk_upload_duration_seconds",
			Help:    "Duration of a single object's seal-and-put, by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		backupDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backupd_walk_backup_duration_seconds",
			Help:    "Duration of a full Backup call, by backup set.",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 3600, 14400},
		}, []string{"backup_set"}),
		backupOutcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "backupd_walk_backup_outcomes_total",
			Help: "Total Backup calls, by backup set and outcome.",
		}, []string{"backup_set", "outcome"}),
	}
}

func (m *walkMetrics) RecordObjectUploaded(kind string, plaintextBytes, ciphertextBytes int) {
	m.objectsUploaded.WithLabelValues(kind).Inc()
	m.plaintextBytes.WithLabelValues(kind).Observe(float64(plaintextBytes))
	m.ciphertextBytes.WithLabelValues(kind).Observe(float64(ciphertextBytes))
}

func (m *walkMetrics) RecordObjectSkipped(kind string) {
	m.objectsSkipped.WithLabelValues(kind).Inc()
}

func (m *walkMetrics) ObserveUpload(kind string, d time.Duration) {
	m.uploadDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *walkMetrics) ObserveBackup(backupSet string, d time.Duration, ok bool) {
	m.backupDuration.WithLabelValues(backupSet).Observe(d.Seconds())
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.backupOutcomes.WithLabelValues(backupSet, outcome).Inc()
}
