// Package metrics provides Prometheus metrics for workspace operations.
//
// Metrics are optional. Until InitRegistry is called every constructor
// returns a no-op implementation, so the workspace runs the same code path
// with or without collection.
//
// Usage:
//
//	// Enable collection (typically in main.go when metrics.enabled is set)
//	metrics.InitRegistry()
//
//	// Components receive a WorkspaceMetrics; nil means no-op
//	m := metrics.NewWorkspaceMetrics()
//	gw := persistence.NewGateway(blobs, opts, m)
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is the global Prometheus registry for all dittows metrics.
	// Written once by InitRegistry, read many times afterwards.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// Call it before creating any metrics instances. Calling it more than
// once is harmless; later calls are ignored.
//
// If it is never called, GetRegistry returns nil and all metrics
// constructors return no-op implementations.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global Prometheus registry, or nil when metrics
// are disabled.
//
// Safe to call concurrently; the sync.Once in InitRegistry orders the
// write before any read that observes it.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
