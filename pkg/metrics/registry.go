// Package metrics defines the engine's observability surface as a set of
// nil-safe interfaces: ScanMetrics, WalkMetrics, and GCMetrics. Each
// interface has a matching New*Metrics constructor here that returns nil
// when metrics are disabled, and a Prometheus-backed implementation in
// pkg/metrics/prometheus that registers itself with this package's
// constructor hooks on import, so callers never need to import the
// Prometheus client package directly.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var registry *prometheus.Registry

// InitRegistry creates the process-wide Prometheus registry. Must be
// called before any New*Metrics constructor for metrics collection to be
// enabled; until then every constructor returns nil and every operation
// in this package is a no-op.
func InitRegistry() *prometheus.Registry {
	registry = prometheus.NewRegistry()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return registry != nil
}

// GetRegistry returns the process-wide registry, or nil if metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}
