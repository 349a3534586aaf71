// Package process simulates the lifecycle of scripts run from the
// workspace.
//
// Nothing is executed. A started process sits in StatusStarting until a
// delayed transition, scheduled on a cancellable clock timer, moves it to
// StatusRunning. Each transition fires at most once and never after Stop
// or Shutdown.
package process

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittows/internal/clock"
	"github.com/marmos91/dittows/internal/logger"
	"github.com/marmos91/dittows/pkg/metrics"
)

// Status is the lifecycle state of a simulated process.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusErrored  Status = "errored"
)

// Resource figures reported once a process reaches StatusRunning.
const (
	RunningCPU    = 1.5
	RunningMemory = 42
)

var (
	// ErrNotFound is returned for an unknown process ID.
	ErrNotFound = errors.New("process not found")

	// ErrShutdown is returned by Start after Shutdown.
	ErrShutdown = errors.New("process table shut down")
)

// Process is a snapshot of one simulated process.
type Process struct {
	ID      string
	Name    string
	Status  Status
	CPU     float64
	Memory  int
	Uptime  string
	Command string
}

// entry is the mutable record behind a Process. gen increments on every
// schedule so a timer that lost a race with Stop or Restart can tell it
// is stale.
type entry struct {
	proc    Process
	timer   *clock.Timer
	gen     uint64
	onReady func(Process)
}

// Table owns the simulated processes, newest first.
//
// Thread Safety:
// All methods are safe for concurrent use. Timer callbacks take the same
// lock as callers.
type Table struct {
	mu      sync.Mutex
	clock   clock.Clock
	metrics metrics.WorkspaceMetrics
	entries []*entry
	closed  bool
}

// NewTable creates an empty table driven by clk. A nil m disables metrics.
func NewTable(clk clock.Clock, m metrics.WorkspaceMetrics) *Table {
	return &Table{clock: clk, metrics: metrics.OrNoOp(m)}
}

// Start registers a process in StatusStarting at the front of the table
// and schedules its transition to StatusRunning after delay. A delay <= 0
// transitions immediately.
func (t *Table) Start(name, command string, delay time.Duration) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return Process{}, ErrShutdown
	}

	e := &entry{proc: Process{
		ID:      uuid.NewString(),
		Name:    name,
		Status:  StatusStarting,
		Uptime:  "0s",
		Command: command,
	}}
	e.onReady = func(p Process) {
		p.Status = StatusRunning
		p.CPU = RunningCPU
		p.Memory = RunningMemory
		p.Uptime = "1s"
		e.proc = p
	}
	t.entries = append([]*entry{e}, t.entries...)
	t.metrics.RecordProcessTransition(string(StatusStarting))
	logger.Debug("Process %s (%s) starting: %s", e.proc.ID, name, command)

	t.schedule(e, delay)
	return e.proc, nil
}

// Restart puts a process back in StatusStarting with zero uptime and
// schedules its transition to StatusRunning after delay. Any pending
// transition is cancelled first.
func (t *Table) Restart(id string, delay time.Duration) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.find(id)
	if e == nil {
		return Process{}, ErrNotFound
	}
	if t.closed {
		return Process{}, ErrShutdown
	}

	t.cancel(e)
	e.proc.Status = StatusStarting
	e.proc.Uptime = "0s"
	e.onReady = func(p Process) {
		p.Status = StatusRunning
		e.proc = p
	}
	t.metrics.RecordProcessTransition(string(StatusStarting))

	t.schedule(e, delay)
	return e.proc, nil
}

// Stop cancels any pending transition and marks the process stopped.
func (t *Table) Stop(id string) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.find(id)
	if e == nil {
		return Process{}, ErrNotFound
	}

	t.cancel(e)
	e.proc.Status = StatusStopped
	e.proc.CPU = 0
	e.proc.Memory = 0
	t.metrics.RecordProcessTransition(string(StatusStopped))
	return e.proc, nil
}

// Get returns the process with the given ID.
func (t *Table) Get(id string) (Process, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.find(id)
	if e == nil {
		return Process{}, ErrNotFound
	}
	return e.proc, nil
}

// List returns all processes, newest first.
func (t *Table) List() []Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Process, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.proc
	}
	return out
}

// Pending returns the number of scheduled transitions.
func (t *Table) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, e := range t.entries {
		if e.timer != nil {
			n++
		}
	}
	return n
}

// Shutdown cancels every pending transition. Processes keep their current
// status; Start is rejected afterwards.
func (t *Table) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for _, e := range t.entries {
		t.cancel(e)
	}
}

// schedule arms the transition timer for e. Must be called with mu held.
func (t *Table) schedule(e *entry, delay time.Duration) {
	e.gen++
	if delay <= 0 {
		t.complete(e)
		return
	}

	gen := e.gen
	e.timer = t.clock.AfterFunc(delay, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.closed || e.gen != gen || e.timer == nil {
			return
		}
		t.complete(e)
	})
}

// complete applies the pending transition. Must be called with mu held.
func (t *Table) complete(e *entry) {
	e.timer = nil
	if e.onReady == nil {
		return
	}
	ready := e.onReady
	e.onReady = nil
	ready(e.proc)
	t.metrics.RecordProcessTransition(string(e.proc.Status))
	logger.Debug("Process %s (%s) %s", e.proc.ID, e.proc.Name, e.proc.Status)
}

// cancel stops a pending timer. Must be called with mu held.
func (t *Table) cancel(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	e.onReady = nil
}

func (t *Table) find(id string) *entry {
	i := slices.IndexFunc(t.entries, func(e *entry) bool { return e.proc.ID == id })
	if i < 0 {
		return nil
	}
	return t.entries[i]
}
