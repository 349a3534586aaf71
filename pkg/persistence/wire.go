package persistence

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/dittows/pkg/session"
	"github.com/marmos91/dittows/pkg/settings"
	"github.com/marmos91/dittows/pkg/tree"
)

// Wire shapes of the persisted blobs. Field names are shared by the JSON
// and CBOR codecs.

// wireNode is one node of the files blob.
type wireNode struct {
	ID       string     `json:"id" cbor:"id"`
	Name     string     `json:"name" cbor:"name"`
	Type     *tree.Kind `json:"type" cbor:"type"`
	Path     string     `json:"path" cbor:"path"`
	Content  *string    `json:"content,omitempty" cbor:"content,omitempty"`
	Children []wireNode `json:"children,omitempty" cbor:"children,omitempty"`
}

// wireUI is the sessionUI blob. The legacy field names openFilePaths and
// activeFilePath are accepted on read.
type wireUI struct {
	OpenPaths  []string `json:"openPaths" cbor:"openPaths"`
	ActivePath string   `json:"activePath" cbor:"activePath"`
	ActiveTab  string   `json:"activeTab" cbor:"activeTab"`

	LegacyOpenPaths  []string `json:"openFilePaths,omitempty" cbor:"openFilePaths,omitempty"`
	LegacyActivePath string   `json:"activeFilePath,omitempty" cbor:"activeFilePath,omitempty"`
}

// Auth is the remembered sign-in, stored only when requested.
type Auth struct {
	Email string `json:"email" cbor:"email" validate:"required,email"`
}

var validate = validator.New()

// ValidateAuth checks an Auth value.
func ValidateAuth(a Auth) error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

func encodeTree(t tree.Tree) []wireNode {
	return []wireNode{toWire(t.Root())}
}

func toWire(n *tree.Node) wireNode {
	kind := n.Kind
	w := wireNode{ID: n.ID, Name: n.Name, Type: &kind, Path: n.Path}
	if n.IsFile() {
		content := n.Content
		w.Content = &content
		return w
	}
	if len(n.Children) > 0 {
		w.Children = make([]wireNode, len(n.Children))
		for i, c := range n.Children {
			w.Children[i] = toWire(c)
		}
	}
	return w
}

// decodeTree rebuilds and validates a tree from the files blob.
func decodeTree(nodes []wireNode, rootPath string) (tree.Tree, error) {
	if len(nodes) != 1 {
		return tree.Tree{}, fmt.Errorf("%w: files blob must hold exactly one root, got %d", ErrMalformed, len(nodes))
	}

	root, err := fromWire(nodes[0])
	if err != nil {
		return tree.Tree{}, err
	}
	if err := tree.Validate(root, rootPath); err != nil {
		return tree.Tree{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return tree.New(root), nil
}

func fromWire(w wireNode) (*tree.Node, error) {
	if w.Type == nil {
		return nil, fmt.Errorf("%w: node %q has no type", ErrMalformed, w.Path)
	}

	n := &tree.Node{ID: w.ID, Name: w.Name, Kind: *w.Type, Path: w.Path}
	switch n.Kind {
	case tree.KindFile:
		if len(w.Children) > 0 {
			return nil, fmt.Errorf("%w: file %q has children", ErrMalformed, w.Path)
		}
		if w.Content != nil {
			n.Content = *w.Content
		}
	case tree.KindDirectory:
		if w.Content != nil && *w.Content != "" {
			return nil, fmt.Errorf("%w: directory %q has content", ErrMalformed, w.Path)
		}
		if len(w.Children) > 0 {
			n.Children = make([]*tree.Node, len(w.Children))
			for i, c := range w.Children {
				child, err := fromWire(c)
				if err != nil {
					return nil, err
				}
				n.Children[i] = child
			}
		}
	}
	return n, nil
}

func encodeUI(ui session.UI) wireUI {
	open := ui.OpenPaths
	if open == nil {
		open = []string{}
	}
	return wireUI{OpenPaths: open, ActivePath: ui.ActivePath, ActiveTab: string(ui.View)}
}

func decodeUI(w wireUI) (session.UI, error) {
	view := session.ViewIDE
	if w.ActiveTab != "" {
		v, err := session.ParseView(w.ActiveTab)
		if err != nil {
			return session.UI{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		view = v
	}

	open, active := w.OpenPaths, w.ActivePath
	if open == nil {
		open = w.LegacyOpenPaths
	}
	if active == "" {
		active = w.LegacyActivePath
	}
	return session.UI{OpenPaths: open, ActivePath: active, View: view}, nil
}

func decodeSettings(s settings.Settings) (settings.Settings, error) {
	if s.EnvVars == nil {
		s.EnvVars = []settings.EnvVar{}
	}
	if s.SSHKeys == nil {
		s.SSHKeys = []settings.SSHKey{}
	}
	if err := settings.Validate(s); err != nil {
		return settings.Settings{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return s, nil
}
