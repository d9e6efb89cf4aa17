package metrics

import "time"

// ScanMetrics observes the Scanner's filesystem reconciliation passes.
// Pass nil to disable collection with zero overhead.
type ScanMetrics interface {
	// ObserveReconcile records how long one general-pass reconcile step
	// took.
	ObserveReconcile(duration time.Duration)

	// RecordEntryDirtied counts an entry whose stat tuple changed and
	// was therefore marked dirty (obj_id cleared).
	RecordEntryDirtied()

	// RecordEntryDeleted counts an entry removed because its path no
	// longer exists on disk.
	RecordEntryDeleted()

	// RecordEntryInserted counts a new child row created during
	// directory-listing reconciliation.
	RecordEntryInserted()

	// ObserveScan records one full Scan call's wall-clock duration,
	// labeled by the backup set name.
	ObserveScan(backupSet string, duration time.Duration)
}

// newPrometheusScanMetrics is set by pkg/metrics/prometheus on import.
var newPrometheusScanMetrics func() ScanMetrics

// RegisterScanMetricsConstructor is called by the Prometheus
// implementation's init to wire NewScanMetrics without this package
// importing the Prometheus client directly.
func RegisterScanMetricsConstructor(constructor func() ScanMetrics) {
	newPrometheusScanMetrics = constructor
}

// NewScanMetrics returns a Prometheus-backed ScanMetrics, or nil if
// metrics are disabled.
func NewScanMetrics() ScanMetrics {
	if !IsEnabled() || newPrometheusScanMetrics == nil {
		return nil
	}
	return newPrometheusScanMetrics()
}

// ObserveReconcile records a reconcile step if m is non-nil.
func ObserveReconcile(m ScanMetrics, duration time.Duration) {
	if m != nil {
		m.ObserveReconcile(duration)
	}
}

// RecordEntryDirtied records a dirtied entry if m is non-nil.
func RecordEntryDirtied(m ScanMetrics) {
	if m != nil {
		m.RecordEntryDirtied()
	}
}

// RecordEntryDeleted records a deleted entry if m is non-nil.
func RecordEntryDeleted(m ScanMetrics) {
	if m != nil {
		m.RecordEntryDeleted()
	}
}

// RecordEntryInserted records an inserted entry if m is non-nil.
func RecordEntryInserted(m ScanMetrics) {
	if m != nil {
		m.RecordEntryInserted()
	}
}

// ObserveScan records a full scan pass's duration if m is non-nil.
func ObserveScan(m ScanMetrics, backupSet string, duration time.Duration) {
	if m != nil {
		m.ObserveScan(backupSet, duration)
	}
}
