// Package session tracks the editor session coupled to a file tree: open
// tabs, the active tab, the multi-selection set and the top-level view.
//
// State is an immutable value. Every operation returns a new State and
// leaves the receiver untouched, so a State handed to a caller is a
// stable snapshot.
package session

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// View is the top-level screen of the workspace.
type View string

const (
	ViewIDE       View = "ide"
	ViewProcesses View = "processes"
	ViewSettings  View = "settings"
	ViewProfile   View = "profile"
)

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewIDE, ViewProcesses, ViewSettings, ViewProfile:
		return v, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// State is the session coupled to a tree.
//
// Invariants:
//   - openPaths holds distinct paths in tab order
//   - activePath is empty or a member of openPaths
//   - selected may reference paths that no longer exist until reconciled
type State struct {
	openPaths  []string
	activePath string
	selected   map[string]struct{}
	view       View
}

// New returns an empty session on the IDE view.
func New() State {
	return State{view: ViewIDE}
}

// OpenPaths returns a copy of the open tabs in tab order.
func (s State) OpenPaths() []string {
	return slices.Clone(s.openPaths)
}

// ActivePath returns the focused tab, or "".
func (s State) ActivePath() string {
	return s.activePath
}

// View returns the current top-level view.
func (s State) View() View {
	if s.view == "" {
		return ViewIDE
	}
	return s.view
}

// IsOpen reports whether path is an open tab.
func (s State) IsOpen(path string) bool {
	return slices.Contains(s.openPaths, path)
}

// IsSelected reports whether path is in the selection set.
func (s State) IsSelected(path string) bool {
	_, ok := s.selected[path]
	return ok
}

// Selected returns the selection set as a sorted slice.
func (s State) Selected() []string {
	out := make([]string, 0, len(s.selected))
	for p := range s.selected {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SelectionLen returns the size of the selection set.
func (s State) SelectionLen() int {
	return len(s.selected)
}

// Open adds path as the last tab if it is not already open, and makes it
// active. Tab order is unchanged when the path is already open.
func (s State) Open(path string) State {
	if !s.IsOpen(path) {
		s.openPaths = append(slices.Clone(s.openPaths), path)
	}
	s.activePath = path
	return s
}

// Focus activates an already open tab. Paths that are not open leave the
// state unchanged.
func (s State) Focus(path string) State {
	if s.IsOpen(path) {
		s.activePath = path
	}
	return s
}

// Close removes the tab for path. When the closed tab was active the tab
// now in the last position becomes active, or none if no tabs remain.
// Closing a path that is not open leaves the state unchanged.
func (s State) Close(path string) State {
	idx := slices.Index(s.openPaths, path)
	if idx < 0 {
		return s
	}

	s.openPaths = slices.Delete(slices.Clone(s.openPaths), idx, idx+1)
	if s.activePath == path {
		s.activePath = ""
		if n := len(s.openPaths); n > 0 {
			s.activePath = s.openPaths[n-1]
		}
	}
	return s
}

// ToggleSelect updates the selection. Single-select replaces the set with
// {path}; multi-select toggles membership of path.
func (s State) ToggleSelect(path string, multi bool) State {
	if !multi {
		s.selected = map[string]struct{}{path: {}}
		return s
	}

	next := s.cloneSelected()
	if _, ok := next[path]; ok {
		delete(next, path)
	} else {
		next[path] = struct{}{}
	}
	s.selected = next
	return s
}

// SelectAll replaces the selection with paths.
func (s State) SelectAll(paths []string) State {
	next := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		next[p] = struct{}{}
	}
	s.selected = next
	return s
}

// ClearSelection empties the selection set.
func (s State) ClearSelection() State {
	s.selected = nil
	return s
}

// SetView switches the top-level view.
func (s State) SetView(v View) State {
	s.view = v
	return s
}

// Reconcile drops deleted paths from the tabs and the selection in one
// pass. A deleted active path is cleared, not replaced by another tab.
func (s State) Reconcile(deleted []string) State {
	if len(deleted) == 0 {
		return s
	}
	gone := make(map[string]struct{}, len(deleted))
	for _, p := range deleted {
		gone[p] = struct{}{}
	}

	s.openPaths = slices.DeleteFunc(slices.Clone(s.openPaths), func(p string) bool {
		_, hit := gone[p]
		return hit
	})
	if _, hit := gone[s.activePath]; hit {
		s.activePath = ""
	}

	next := make(map[string]struct{}, len(s.selected))
	for p := range s.selected {
		if _, hit := gone[p]; !hit {
			next[p] = struct{}{}
		}
	}
	s.selected = next
	return s
}

// Remap rewrites every tab and selected path at or below oldPrefix to sit
// below newPrefix instead. Used after a node is moved or renamed.
func (s State) Remap(oldPrefix, newPrefix string) State {
	rewrite := func(p string) string {
		switch {
		case p == oldPrefix:
			return newPrefix
		case strings.HasPrefix(p, oldPrefix+"/"):
			return newPrefix + p[len(oldPrefix):]
		default:
			return p
		}
	}

	open := make([]string, len(s.openPaths))
	for i, p := range s.openPaths {
		open[i] = rewrite(p)
	}
	s.openPaths = open
	s.activePath = rewrite(s.activePath)

	next := make(map[string]struct{}, len(s.selected))
	for p := range s.selected {
		next[rewrite(p)] = struct{}{}
	}
	s.selected = next
	return s
}

// Retain keeps only tabs for which isFile reports true and clears the
// active path if its tab was dropped. Used to reconcile a restored session
// with a restored tree.
func (s State) Retain(isFile func(path string) bool) State {
	seen := make(map[string]struct{}, len(s.openPaths))
	kept := make([]string, 0, len(s.openPaths))
	for _, p := range s.openPaths {
		if _, dup := seen[p]; dup || !isFile(p) {
			continue
		}
		seen[p] = struct{}{}
		kept = append(kept, p)
	}
	s.openPaths = kept
	if !slices.Contains(kept, s.activePath) {
		s.activePath = ""
	}
	return s
}

func (s State) cloneSelected() map[string]struct{} {
	out := make(map[string]struct{}, len(s.selected)+1)
	for p := range s.selected {
		out[p] = struct{}{}
	}
	return out
}
