package session

import "slices"

// UI is the persisted part of a session. The selection set is transient
// and never stored.
type UI struct {
	OpenPaths  []string
	ActivePath string
	View       View
}

// UI extracts the persisted fields.
func (s State) UI() UI {
	return UI{
		OpenPaths:  slices.Clone(s.openPaths),
		ActivePath: s.activePath,
		View:       s.View(),
	}
}

// FromUI rebuilds a session from its persisted fields. Duplicate tabs are
// dropped and an active path that is not open is cleared, so the result
// always satisfies the State invariants.
func FromUI(ui UI) State {
	s := State{view: ui.View}
	if _, err := ParseView(string(ui.View)); err != nil {
		s.view = ViewIDE
	}
	for _, p := range ui.OpenPaths {
		if !slices.Contains(s.openPaths, p) {
			s.openPaths = append(s.openPaths, p)
		}
	}
	if slices.Contains(s.openPaths, ui.ActivePath) {
		s.activePath = ui.ActivePath
	}
	return s
}
