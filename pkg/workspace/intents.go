package workspace

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/marmos91/dittows/internal/logger"
	"github.com/marmos91/dittows/pkg/persistence"
	"github.com/marmos91/dittows/pkg/process"
	"github.com/marmos91/dittows/pkg/session"
	"github.com/marmos91/dittows/pkg/settings"
	"github.com/marmos91/dittows/pkg/tree"
)

// ============================================================================
// Selection and tabs
// ============================================================================

// SelectPath updates the selection with path. A single-select of a file
// also opens it as the active tab and switches to the IDE view.
//
// Returns a tree.ErrNotFound error if path does not resolve.
func (w *Workspace) SelectPath(ctx context.Context, path string, multi bool) (Snapshot, error) {
	return w.do(ctx, opSelectPath, func() (bool, error) {
		node := w.tree.Find(path)
		if node == nil {
			return false, tree.NewError(tree.ErrNotFound, "no such file or directory", path)
		}

		next := w.session.ToggleSelect(path, multi)
		if !multi && node.IsFile() {
			next = next.Open(path).SetView(session.ViewIDE)
		}
		return w.setSession(next), nil
	})
}

// CloseTab closes the tab for path. Closing the active tab activates the
// tab in the last position.
func (w *Workspace) CloseTab(ctx context.Context, path string) (Snapshot, error) {
	return w.do(ctx, opCloseTab, func() (bool, error) {
		return w.setSession(w.session.Close(path)), nil
	})
}

// FocusTab activates an open tab. Paths that are not open are ignored.
func (w *Workspace) FocusTab(ctx context.Context, path string) (Snapshot, error) {
	return w.do(ctx, opFocusTab, func() (bool, error) {
		return w.setSession(w.session.Focus(path)), nil
	})
}

// SelectAll selects every path in the tree, root included.
func (w *Workspace) SelectAll(ctx context.Context) (Snapshot, error) {
	return w.do(ctx, opSelectAll, func() (bool, error) {
		return w.setSession(w.session.SelectAll(w.tree.Paths())), nil
	})
}

// ClearSelection empties the selection.
func (w *Workspace) ClearSelection(ctx context.Context) (Snapshot, error) {
	return w.do(ctx, opClearSelection, func() (bool, error) {
		return w.setSession(w.session.ClearSelection()), nil
	})
}

// SetView switches the top-level view.
func (w *Workspace) SetView(ctx context.Context, v session.View) (Snapshot, error) {
	return w.do(ctx, opSetView, func() (bool, error) {
		if _, err := session.ParseView(string(v)); err != nil {
			return false, err
		}
		return w.setSession(w.session.SetView(v)), nil
	})
}

// ============================================================================
// Tree changes
// ============================================================================

// CreateEntry creates an empty file or directory named name under the
// root. Surrounding whitespace is trimmed from name.
func (w *Workspace) CreateEntry(ctx context.Context, kind tree.Kind, name string) (Snapshot, error) {
	return w.CreateEntryIn(ctx, w.gateway.RootPath(), kind, name)
}

// CreateEntryIn creates an empty file or directory named name under the
// directory at parentPath.
func (w *Workspace) CreateEntryIn(ctx context.Context, parentPath string, kind tree.Kind, name string) (Snapshot, error) {
	return w.do(ctx, opCreateEntry, func() (bool, error) {
		next, _, err := w.tree.Create(parentPath, strings.TrimSpace(name), kind)
		if err != nil {
			return false, err
		}
		w.tree = next
		return true, nil
	})
}

// UploadEntries imports files under the root. Files larger than
// Options.MaxUploadBytes and names that already exist are skipped and
// reported; the rest are added.
func (w *Workspace) UploadEntries(ctx context.Context, candidates []tree.Candidate) (Snapshot, UploadReport, error) {
	return w.UploadEntriesIn(ctx, w.gateway.RootPath(), candidates)
}

// UploadEntriesIn imports files under the directory at parentPath.
func (w *Workspace) UploadEntriesIn(ctx context.Context, parentPath string, candidates []tree.Candidate) (Snapshot, UploadReport, error) {
	var report UploadReport
	snap, err := w.do(ctx, opUploadEntries, func() (bool, error) {
		trimmed := make([]tree.Candidate, len(candidates))
		for i, c := range candidates {
			trimmed[i] = tree.Candidate{Name: strings.TrimSpace(c.Name), Content: c.Content}
		}

		next, imported, err := w.tree.BulkImport(parentPath, trimmed, w.opts.MaxUploadBytes)
		if err != nil {
			return false, err
		}
		for _, n := range imported.Added {
			report.Added = append(report.Added, n.Path)
		}
		report.Skipped = imported.Skipped
		for _, s := range imported.Skipped {
			logger.Info("Upload skipped %q: %s", s.Name, s.Reason)
		}

		if len(imported.Added) == 0 {
			return false, nil
		}
		w.tree = next
		return true, nil
	})
	return snap, report, err
}

// DeleteSelection removes every selected node and its descendants, then
// clears the selection. An empty selection is a no-op.
func (w *Workspace) DeleteSelection(ctx context.Context) (Snapshot, error) {
	return w.do(ctx, opDeleteSelection, func() (bool, error) {
		if w.session.SelectionLen() == 0 {
			return false, nil
		}
		next, removed := w.tree.DeleteMany(w.session.Selected())
		w.tree = next
		w.setSession(w.session.Reconcile(removed).ClearSelection())
		return len(removed) > 0, nil
	})
}

// DeletePath removes the node at path and its descendants.
func (w *Workspace) DeletePath(ctx context.Context, path string) (Snapshot, error) {
	return w.do(ctx, opDeletePath, func() (bool, error) {
		next, removed := w.tree.DeleteMany([]string{path})
		if len(removed) == 0 {
			if w.tree.Find(path) == nil {
				return false, tree.NewError(tree.ErrNotFound, "no such file or directory", path)
			}
			return false, nil
		}
		w.tree = next
		w.setSession(w.session.Reconcile(removed))
		return true, nil
	})
}

// EditActiveFile replaces the content of the active tab's file.
func (w *Workspace) EditActiveFile(ctx context.Context, content string) (Snapshot, error) {
	return w.do(ctx, opEditFile, func() (bool, error) {
		active := w.session.ActivePath()
		if active == "" {
			return false, ErrNoActiveFile
		}
		return w.edit(active, content), nil
	})
}

// EditFile replaces the content of the file at path. Paths that do not
// resolve to a file are ignored.
func (w *Workspace) EditFile(ctx context.Context, path, content string) (Snapshot, error) {
	return w.do(ctx, opEditFile, func() (bool, error) {
		return w.edit(path, content), nil
	})
}

func (w *Workspace) edit(path, content string) bool {
	next := w.tree.UpdateContent(path, content)
	if next.Root() == w.tree.Root() {
		return false
	}
	w.tree = next
	return true
}

// MoveEntry moves the node at srcPath under the directory at
// dstParentPath. Open tabs and selected paths follow the node.
func (w *Workspace) MoveEntry(ctx context.Context, srcPath, dstParentPath string) (Snapshot, error) {
	return w.do(ctx, opMoveEntry, func() (bool, error) {
		next, err := w.tree.Move(srcPath, dstParentPath)
		if err != nil {
			return false, err
		}
		if next.Root() == w.tree.Root() {
			return false, nil
		}
		w.tree = next
		w.setSession(w.session.Remap(srcPath, tree.ChildPath(dstParentPath, pathBase(srcPath))))
		return true, nil
	})
}

// RenameEntry renames the node at path in place. Open tabs and selected
// paths follow the node.
func (w *Workspace) RenameEntry(ctx context.Context, path, newName string) (Snapshot, error) {
	return w.do(ctx, opRenameEntry, func() (bool, error) {
		newName = strings.TrimSpace(newName)
		next, err := w.tree.Rename(path, newName)
		if err != nil {
			return false, err
		}
		if next.Root() == w.tree.Root() {
			return false, nil
		}
		w.tree = next
		w.setSession(w.session.Remap(path, tree.ChildPath(pathDir(path), newName)))
		return true, nil
	})
}

// ============================================================================
// Settings and identity
// ============================================================================

// UpdateSettings applies fn to a copy of the current settings. The result
// is validated before it is committed.
func (w *Workspace) UpdateSettings(ctx context.Context, fn func(settings.Settings) settings.Settings) (Snapshot, error) {
	return w.do(ctx, opUpdateSettings, func() (bool, error) {
		next := fn(w.settings.Clone())
		if err := settings.Validate(next); err != nil {
			return false, err
		}
		w.settings = next
		return true, nil
	})
}

// SignIn records email as the signed in user. With remember set the
// sign-in is persisted and restored by the next Open.
func (w *Workspace) SignIn(ctx context.Context, email string, remember bool) (Snapshot, error) {
	return w.do(ctx, opSignIn, func() (bool, error) {
		auth := persistence.Auth{Email: strings.TrimSpace(email)}
		if err := persistence.ValidateAuth(auth); err != nil {
			return false, err
		}
		w.user = auth.Email
		if remember {
			w.gateway.SaveAuth(ctx, auth)
		}
		logger.Info("Signed in as %s", auth.Email)
		return false, nil
	})
}

// SignOut forgets the user and tears down the session: pending process
// transitions are cancelled, tabs reset to their defaults and the stored
// sign-in and session blobs are removed. The tree and settings are kept.
func (w *Workspace) SignOut(ctx context.Context) (Snapshot, error) {
	return w.do(ctx, opSignOut, func() (bool, error) {
		w.procs.Shutdown()
		w.procs = process.NewTable(w.opts.Clock, w.opts.Metrics)

		w.user = ""
		w.session = session.FromUI(w.gateway.Defaults().UI).Retain(w.tree.IsFile)
		w.gateway.ClearSessionOnly(ctx)
		logger.Info("Signed out")
		return false, nil
	})
}

// ============================================================================
// Processes
// ============================================================================

// RunActiveFile starts a simulated process for the active file.
func (w *Workspace) RunActiveFile(ctx context.Context) (Snapshot, error) {
	return w.do(ctx, opRunActiveFile, func() (bool, error) {
		node := w.tree.Find(w.session.ActivePath())
		if !node.IsFile() {
			return false, ErrNoActiveFile
		}
		_, err := w.procs.Start(node.Name, fmt.Sprintf("python3 %s", node.Name), w.opts.RunDelay)
		return false, err
	})
}

// RestartProcess restarts the simulated process id.
func (w *Workspace) RestartProcess(ctx context.Context, id string) (Snapshot, error) {
	return w.do(ctx, opRestartProcess, func() (bool, error) {
		_, err := w.procs.Restart(id, w.opts.RestartDelay)
		return false, err
	})
}

// StopProcess stops the simulated process id.
func (w *Workspace) StopProcess(ctx context.Context, id string) (Snapshot, error) {
	return w.do(ctx, opStopProcess, func() (bool, error) {
		_, err := w.procs.Stop(id)
		return false, err
	})
}

// setSession commits next and reports whether its persisted part changed.
func (w *Workspace) setSession(next session.State) bool {
	prev := w.session.UI()
	w.session = next
	cur := next.UI()
	return prev.ActivePath != cur.ActivePath ||
		prev.View != cur.View ||
		!slices.Equal(prev.OpenPaths, cur.OpenPaths)
}

func pathBase(p string) string {
	return p[strings.LastIndex(p, "/")+1:]
}

func pathDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}
