// Package workspace is the composition root of a project workspace. It
// couples the file tree, the editor session, project settings, the signed
// in user and simulated processes, and persists every committed change
// through a persistence.Gateway.
//
// Every intent runs to completion under a single lock, computes the next
// tree and session values from the current ones, commits them, saves, and
// returns a Snapshot of the result.
package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/dittows/internal/clock"
	"github.com/marmos91/dittows/internal/logger"
	"github.com/marmos91/dittows/pkg/metrics"
	"github.com/marmos91/dittows/pkg/persistence"
	"github.com/marmos91/dittows/pkg/process"
	"github.com/marmos91/dittows/pkg/session"
	"github.com/marmos91/dittows/pkg/settings"
	"github.com/marmos91/dittows/pkg/tree"
)

var (
	// ErrNoActiveFile is returned by intents that act on the active tab
	// when no tab is active.
	ErrNoActiveFile = errors.New("no active file")

	// ErrNotSignedIn is returned when Options.RequireSignIn is set and
	// nobody is signed in.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrClosed is returned by every intent after Close.
	ErrClosed = errors.New("workspace closed")
)

// Default intent parameters.
const (
	DefaultMaxUploadBytes = 1 << 20
	DefaultRunDelay       = 2 * time.Second
	DefaultRestartDelay   = time.Second
)

// Options configures a Workspace.
type Options struct {
	// MaxUploadBytes rejects uploaded files larger than this (default 1 MiB)
	MaxUploadBytes int

	// RunDelay is the simulated start-up time of a run (default 2s)
	RunDelay time.Duration

	// RestartDelay is the simulated start-up time of a restart (default 1s)
	RestartDelay time.Duration

	// RequireSignIn rejects every intent except SignIn while signed out
	RequireSignIn bool

	// Clock drives process transitions (default clock.Real())
	Clock clock.Clock

	// Metrics records intent outcomes (default no-op)
	Metrics metrics.WorkspaceMetrics
}

func (o *Options) applyDefaults() {
	if o.MaxUploadBytes == 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if o.RunDelay == 0 {
		o.RunDelay = DefaultRunDelay
	}
	if o.RestartDelay == 0 {
		o.RestartDelay = DefaultRestartDelay
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	o.Metrics = metrics.OrNoOp(o.Metrics)
}

// Workspace owns the live state of one project.
//
// Thread Safety:
// All methods are safe for concurrent use. Intents are serialized, so
// saves land in commit order. Process transitions are guarded by the
// process table and show up in the next Snapshot.
type Workspace struct {
	mu      sync.Mutex
	gateway *persistence.Gateway
	opts    Options

	tree     tree.Tree
	session  session.State
	settings settings.Settings
	user     string
	procs    *process.Table

	recovered []string
	closed    bool
}

// Open loads persisted state through gw and returns a ready workspace.
//
// Loading never fails on bad data: unreadable blobs fall back to their
// defaults and are reported by Recovered. Restored tabs that no longer
// resolve to files are dropped. Open does not write anything.
func Open(ctx context.Context, gw *persistence.Gateway, opts Options) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	loaded := gw.Load(ctx)
	w := &Workspace{
		gateway:   gw,
		opts:      opts,
		tree:      loaded.Tree,
		session:   session.FromUI(loaded.UI).Retain(loaded.Tree.IsFile),
		settings:  loaded.Settings,
		procs:     process.NewTable(opts.Clock, opts.Metrics),
		recovered: loaded.Recovered,
	}
	if loaded.Auth != nil {
		w.user = loaded.Auth.Email
	}
	if len(loaded.Recovered) > 0 {
		logger.Warn("Workspace opened with defaults for unreadable blobs: %s", strings.Join(loaded.Recovered, ", "))
	}
	logger.Debug("Workspace opened: %d nodes, %d tabs", w.tree.Len(), len(w.session.OpenPaths()))

	w.updateGauges()
	return w, nil
}

// Recovered lists the blobs that were unreadable at Open and replaced by
// their defaults.
func (w *Workspace) Recovered() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.recovered...)
}

// Snapshot returns the current state.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Close cancels every pending process transition. Intents fail with
// ErrClosed afterwards. Close is idempotent.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.procs.Shutdown()
	return nil
}

// intent is the body of a state change. It runs with mu held and assigns
// the next state directly on success. It returns whether the persisted
// state changed and must be saved.
type intent func() (persist bool, err error)

// do runs fn as the named intent: guards, commit, save, metrics.
func (w *Workspace) do(ctx context.Context, op string, fn intent) (Snapshot, error) {
	start := time.Now()

	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.run(ctx, op, fn)
	w.opts.Metrics.RecordIntent(op, time.Since(start), err)
	if err != nil {
		logger.Debug("Intent %s failed: %v", op, err)
	}
	return w.snapshotLocked(), err
}

func (w *Workspace) run(ctx context.Context, op string, fn intent) error {
	if w.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.opts.RequireSignIn && w.user == "" && op != opSignIn {
		return ErrNotSignedIn
	}

	persist, err := fn()
	if err != nil {
		return err
	}
	if persist {
		w.gateway.Save(ctx, w.tree, w.settings, w.session.UI())
	}
	w.updateGauges()
	return nil
}

func (w *Workspace) updateGauges() {
	w.opts.Metrics.SetOpenTabs(len(w.session.OpenPaths()))
	w.opts.Metrics.SetTreeNodes(w.tree.Len())
}

func (w *Workspace) snapshotLocked() Snapshot {
	return Snapshot{
		Tree:      w.tree,
		Session:   w.session,
		Settings:  w.settings.Clone(),
		User:      w.user,
		Processes: w.procs.List(),
	}
}

// Intent names, used for metrics and logs.
const (
	opSelectPath      = "select_path"
	opCloseTab        = "close_tab"
	opFocusTab        = "focus_tab"
	opCreateEntry     = "create_entry"
	opUploadEntries   = "upload_entries"
	opDeleteSelection = "delete_selection"
	opDeletePath      = "delete_path"
	opEditFile        = "edit_file"
	opSelectAll       = "select_all"
	opClearSelection  = "clear_selection"
	opMoveEntry       = "move_entry"
	opRenameEntry     = "rename_entry"
	opSetView         = "set_view"
	opUpdateSettings  = "update_settings"
	opSignIn          = "sign_in"
	opSignOut         = "sign_out"
	opRunActiveFile   = "run_active_file"
	opRestartProcess  = "restart_process"
	opStopProcess     = "stop_process"
)
