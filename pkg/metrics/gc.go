package metrics

import "time"

// GCMetrics observes the two-pass garbage collector's mark and sweep
// phases. Pass nil to disable collection with zero overhead.
type GCMetrics interface {
	// RecordMarked counts one object reached during the mark phase and
	// added to the Bloom filter.
	RecordMarked()

	// RecordSwept counts one object deleted during the sweep phase
	// because the filter reported it absent.
	RecordSwept(reclaimedBytes int)

	// RecordFalsePositiveBudget records the Bloom filter's configured
	// false-positive rate for the run, so an operator can correlate a
	// run's parameters with its reclaimed-byte count.
	RecordFalsePositiveBudget(rate float64)

	// ObserveRun records one full Run call's wall-clock duration, split
	// into the mark-phase and sweep-phase durations.
	ObserveRun(markDuration, sweepDuration time.Duration)
}

var newPrometheusGCMetrics func() GCMetrics

// RegisterGCMetricsConstructor is called by the Prometheus
// implementation's init to wire NewGCMetrics.
func RegisterGCMetricsConstructor(constructor func() GCMetrics) {
	newPrometheusGCMetrics = constructor
}

// NewGCMetrics returns a Prometheus-backed GCMetrics, or nil if metrics
// are disabled.
func NewGCMetrics() GCMetrics {
	if !IsEnabled() || newPrometheusGCMetrics == nil {
		return nil
	}
	return newPrometheusGCMetrics()
}

// RecordMarked records a marked object if m is non-nil.
func RecordMarked(m GCMetrics) {
	if m != nil {
		m.RecordMarked()
	}
}

// RecordSwept records a swept object if m is non-nil.
func RecordSwept(m GCMetrics, reclaimedBytes int) {
	if m != nil {
		m.RecordSwept(reclaimedBytes)
	}
}

// RecordFalsePositiveBudget records the configured false-positive rate if
// m is non-nil.
func RecordFalsePositiveBudget(m GCMetrics, rate float64) {
	if m != nil {
		m.RecordFalsePositiveBudget(rate)
	}
}

// ObserveRun records a full GC run's phase durations if m is non-nil.
func ObserveRun(m GCMetrics, markDuration, sweepDuration time.Duration) {
	if m != nil {
		m.ObserveRun(markDuration, sweepDuration)
	}
}
