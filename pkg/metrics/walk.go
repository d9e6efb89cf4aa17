package metrics

import "time"

// WalkMetrics observes the Backup Walker's object serialization and
// upload activity. Pass nil to disable collection with zero overhead.
type WalkMetrics interface {
	// RecordObjectUploaded counts a successful put of a new object,
	// labeled by kind ("tree", "inode", "blob").
	RecordObjectUploaded(kind string, plaintextBytes, ciphertextBytes int)

	// RecordObjectSkipped counts an object whose OID already existed in
	// the object cache, so no upload or seal was necessary (dedup hit).
	RecordObjectSkipped(kind string)

	// ObserveUpload records the duration of a single object's
	// seal-and-put, labeled by kind.
	ObserveUpload(kind string, duration time.Duration)

	// ObserveBackup records one full Backup call's wall-clock duration,
	// labeled by the backup set name and whether it succeeded.
	ObserveBackup(backupSet string, duration time.Duration, ok bool)
}

var newPrometheusWalkMetrics func() WalkMetrics

// RegisterWalkMetricsConstructor is called by the Prometheus
// implementation's init to wire NewWalkMetrics.
func RegisterWalkMetricsConstructor(constructor func() WalkMetrics) {
	newPrometheusWalkMetrics = constructor
}

// NewWalkMetrics returns a Prometheus-backed WalkMetrics, or nil if
// metrics are disabled.
func NewWalkMetrics() WalkMetrics {
	if !IsEnabled() || newPrometheusWalkMetrics == nil {
		return nil
	}
	return newPrometheusWalkMetrics()
}

// RecordObjectUploaded records an upload if m is non-nil.
func RecordObjectUploaded(m WalkMetrics, kind string, plaintextBytes, ciphertextBytes int) {
	if m != nil {
		m.RecordObjectUploaded(kind, plaintextBytes, ciphertextBytes)
	}
}

// RecordObjectSkipped records a dedup hit if m is non-nil.
func RecordObjectSkipped(m WalkMetrics, kind string) {
	if m != nil {
		m.RecordObjectSkipped(kind)
	}
}

// ObserveUpload records an upload's duration if m is non-nil.
func ObserveUpload(m WalkMetrics, kind string, duration time.Duration) {
	if m != nil {
		m.ObserveUpload(kind, duration)
	}
}

// ObserveBackup records a full backup's duration if m is non-nil.
func ObserveBackup(m WalkMetrics, backupSet string, duration time.Duration, ok bool) {
	if m != nil {
		m.ObserveBackup(backupSet, duration, ok)
	}
}
