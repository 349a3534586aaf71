package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Blob read outcomes reported by RecordBlobRead.
const (
	ReadLoaded    = "loaded"
	ReadAbsent    = "absent"
	ReadRecovered = "recovered"
)

// WorkspaceMetrics provides observability for workspace intents and the
// persistence gateway.
//
// This interface is optional: components given nil fall back to NoOp and
// proceed without collection.
type WorkspaceMetrics interface {
	// RecordIntent records a completed workspace intent.
	//
	// Parameters:
	//   - operation: Intent name (e.g., "CreateEntry", "DeleteSelection")
	//   - duration: Time taken to complete the intent
	//   - err: Error if the intent was rejected, nil if committed
	RecordIntent(operation string, duration time.Duration, err error)

	// RecordBlobWrite records one blob written to the store.
	//
	// Parameters:
	//   - blob: Logical blob name (files, settings, sessionUI, auth)
	//   - size: Encoded frame size in bytes
	//   - err: Error from the store, nil on success
	RecordBlobWrite(blob string, size int, err error)

	// RecordBlobRead records the outcome of loading one blob
	// (ReadLoaded, ReadAbsent or ReadRecovered).
	RecordBlobRead(blob, outcome string)

	// RecordBlobDelete records one blob removal.
	RecordBlobDelete(blob string, err error)

	// SetOpenTabs updates the number of open tabs.
	SetOpenTabs(count int)

	// SetTreeNodes updates the number of nodes in the tree, root included.
	SetTreeNodes(count int)

	// RecordProcessTransition records a simulated process entering status.
	RecordProcessTransition(status string)
}

// NoOp returns a WorkspaceMetrics that discards everything.
func NoOp() WorkspaceMetrics {
	return noopWorkspaceMetrics{}
}

// OrNoOp returns m, or NoOp when m is nil.
func OrNoOp(m WorkspaceMetrics) WorkspaceMetrics {
	if m == nil {
		return NoOp()
	}
	return m
}

// workspaceMetrics is the Prometheus implementation of WorkspaceMetrics.
type workspaceMetrics struct {
	intentsTotal      *prometheus.CounterVec
	intentDuration    *prometheus.HistogramVec
	blobWritesTotal   *prometheus.CounterVec
	blobBytesWritten  *prometheus.CounterVec
	blobReadsTotal    *prometheus.CounterVec
	blobDeletesTotal  *prometheus.CounterVec
	openTabs          prometheus.Gauge
	treeNodes         prometheus.Gauge
	processTransition *prometheus.CounterVec
}

// NewWorkspaceMetrics creates a Prometheus-backed WorkspaceMetrics on the
// global registry.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewWorkspaceMetrics() WorkspaceMetrics {
	if !IsEnabled() {
		return NoOp()
	}
	return NewWorkspaceMetricsWith(GetRegistry())
}

// NewWorkspaceMetricsWith registers the workspace metrics on reg. Tests use
// it with a private registry to avoid duplicate registration.
func NewWorkspaceMetricsWith(reg prometheus.Registerer) WorkspaceMetrics {
	factory := promauto.With(reg)

	return &workspaceMetrics{
		intentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittows_workspace_intents_total",
				Help: "Total number of workspace intents by operation and status",
			},
			[]string{"operation", "status"},
		),
		intentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittows_workspace_intent_duration_seconds",
				Help: "Duration of workspace intents in seconds, persistence included",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
				},
			},
			[]string{"operation"},
		),
		blobWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittows_persistence_blob_writes_total",
				Help: "Total number of blob writes by blob and status",
			},
			[]string{"blob", "status"},
		),
		blobBytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittows_persistence_blob_bytes_written_total",
				Help: "Total encoded bytes written by blob",
			},
			[]string{"blob"},
		),
		blobReadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittows_persistence_blob_reads_total",
				Help: "Total number of blob loads by blob and outcome (loaded, absent, recovered)",
			},
			[]string{"blob", "outcome"},
		),
		blobDeletesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittows_persistence_blob_deletes_total",
				Help: "Total number of blob deletions by blob and status",
			},
			[]string{"blob", "status"},
		),
		openTabs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dittows_session_open_tabs",
				Help: "Current number of open tabs",
			},
		),
		treeNodes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "dittows_tree_nodes",
				Help: "Current number of nodes in the file tree, root included",
			},
		),
		processTransition: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittows_process_transitions_total",
				Help: "Total number of simulated process status transitions by target status",
			},
			[]string{"status"},
		),
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (m *workspaceMetrics) RecordIntent(operation string, duration time.Duration, err error) {
	m.intentsTotal.WithLabelValues(operation, statusOf(err)).Inc()
	m.intentDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *workspaceMetrics) RecordBlobWrite(blob string, size int, err error) {
	m.blobWritesTotal.WithLabelValues(blob, statusOf(err)).Inc()
	if err == nil {
		m.blobBytesWritten.WithLabelValues(blob).Add(float64(size))
	}
}

func (m *workspaceMetrics) RecordBlobRead(blob, outcome string) {
	m.blobReadsTotal.WithLabelValues(blob, outcome).Inc()
}

func (m *workspaceMetrics) RecordBlobDelete(blob string, err error) {
	m.blobDeletesTotal.WithLabelValues(blob, statusOf(err)).Inc()
}

func (m *workspaceMetrics) SetOpenTabs(count int) {
	m.openTabs.Set(float64(count))
}

func (m *workspaceMetrics) SetTreeNodes(count int) {
	m.treeNodes.Set(float64(count))
}

func (m *workspaceMetrics) RecordProcessTransition(status string) {
	m.processTransition.WithLabelValues(status).Inc()
}

// noopWorkspaceMetrics is a no-op implementation of WorkspaceMetrics with zero overhead.
type noopWorkspaceMetrics struct{}

func (noopWorkspaceMetrics) RecordIntent(operation string, duration time.Duration, err error) {}
func (noopWorkspaceMetrics) RecordBlobWrite(blob string, size int, err error)                {}
func (noopWorkspaceMetrics) RecordBlobRead(blob, outcome string)                             {}
func (noopWorkspaceMetrics) RecordBlobDelete(blob string, err error)                         {}
func (noopWorkspaceMetrics) SetOpenTabs(count int)                                           {}
func (noopWorkspaceMetrics) SetTreeNodes(count int)                                          {}
func (noopWorkspaceMetrics) RecordProcessTransition(status string)                           {}
