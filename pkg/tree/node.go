// Package tree implements the virtual project file tree.
//
// A tree is a hierarchy of immutable Nodes rooted at a single directory
// with a fixed path. Every operation returns a new tree value; nodes
// outside the changed root-to-target spine are shared between the old and
// new value. Callers must never modify a Node obtained from a tree.
package tree

import (
	"fmt"
	"strings"
)

// Kind distinguishes the two node variants.
type Kind int

const (
	// KindFile is a leaf carrying text content.
	KindFile Kind = iota

	// KindDirectory is a container of child nodes.
	KindDirectory
)

// String returns the persisted name of the kind ("file" or "directory").
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case KindFile, KindDirectory:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid node kind %d", int(k))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// ParseKind parses "file" or "directory".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "file":
		return KindFile, nil
	case "directory", "dir":
		return KindDirectory, nil
	default:
		return 0, fmt.Errorf("unknown node kind %q", s)
	}
}

// Node is a file or directory in the tree.
//
// Identity Fields:
//   - ID: opaque, assigned at creation, never reused, stable across edits
//   - Name: single path segment, unique among siblings
//   - Path: parent path + "/" + name; the canonical external address
//
// Variant Fields:
//   - Content: only meaningful for KindFile
//   - Children: only meaningful for KindDirectory, in display order
type Node struct {
	ID       string
	Name     string
	Kind     Kind
	Path     string
	Content  string
	Children []*Node
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool {
	return n != nil && n.Kind == KindDirectory
}

// IsFile reports whether n is a file.
func (n *Node) IsFile() bool {
	return n != nil && n.Kind == KindFile
}

// Size returns the content length in bytes (0 for directories).
func (n *Node) Size() int {
	if n.IsFile() {
		return len(n.Content)
	}
	return 0
}

// child returns the direct child named name, or nil.
func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// withChildren returns a shallow copy of n holding children.
func (n *Node) withChildren(children []*Node) *Node {
	cp := *n
	cp.Children = children
	return &cp
}

// ChildPath builds the path of a child named name under parentPath.
func ChildPath(parentPath, name string) string {
	if parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}

// IsWithin reports whether p equals ancestor or lies below it. The test
// respects segment boundaries: "/a/bc" is not within "/a/b".
func IsWithin(p, ancestor string) bool {
	if p == ancestor {
		return true
	}
	if ancestor == "/" {
		return strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, ancestor+"/")
}

// ValidName checks that name is usable as a single path segment.
func ValidName(name string) error {
	switch {
	case name == "":
		return NewError(ErrInvalidName, "name must not be empty", "")
	case name == "." || name == "..":
		return NewError(ErrInvalidName, "name is reserved", name)
	case strings.ContainsAny(name, "/\x00"):
		return NewError(ErrInvalidName, "name must be a single path segment", name)
	}
	return nil
}
