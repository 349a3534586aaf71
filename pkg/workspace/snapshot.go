package workspace

import (
	"github.com/marmos91/dittows/pkg/process"
	"github.com/marmos91/dittows/pkg/session"
	"github.com/marmos91/dittows/pkg/settings"
	"github.com/marmos91/dittows/pkg/tree"
)

// Snapshot is an immutable view of a workspace after an intent.
type Snapshot struct {
	Tree     tree.Tree
	Session  session.State
	Settings settings.Settings

	// User is the signed in email, or ""
	User string

	// Processes lists simulated processes, newest first
	Processes []process.Process
}

// ActiveFile returns the node of the active tab, or nil.
func (s Snapshot) ActiveFile() *tree.Node {
	p := s.Session.ActivePath()
	if p == "" {
		return nil
	}
	return s.Tree.Find(p)
}

// SignedIn reports whether a user is signed in.
func (s Snapshot) SignedIn() bool {
	return s.User != ""
}

// UploadReport summarizes an upload.
type UploadReport struct {
	// Added holds the paths of created files in upload order
	Added []string

	// Skipped holds rejected files in upload order
	Skipped []tree.Skipped
}
