package config

import (
	"github.com/marmos91/dittows/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Workspace is the collector shared by the gateway, workspace and
	// process table (never nil, no-op if disabled)
	Workspace metrics.WorkspaceMetrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed workspace metrics
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns the no-op implementation (zero overhead)
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Workspace: metrics.NoOp(),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})

	return &MetricsResult{
		Server:    server,
		Workspace: metrics.NewWorkspaceMetrics(),
	}
}
