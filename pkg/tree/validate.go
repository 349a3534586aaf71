package tree

import "fmt"

// Validate checks every structural invariant of a tree rooted at root:
//   - root is a directory at rootPath with no content
//   - every name is a valid segment, unique among its siblings
//   - every path equals parent path + "/" + name
//   - files have no children, directories have no content
//   - IDs are non-empty and unique (a node reachable twice fails here,
//     which also rules out cycles)
//
// Returns a TreeError with code ErrMalformed describing the first
// violation found.
func Validate(root *Node, rootPath string) error {
	if root == nil {
		return NewError(ErrMalformed, "tree has no root", "")
	}
	if root.Kind != KindDirectory {
		return NewError(ErrMalformed, "root is not a directory", root.Path)
	}
	if root.Path != rootPath {
		return NewError(ErrMalformed, fmt.Sprintf("root path must be %s", rootPath), root.Path)
	}

	v := validator{ids: make(map[string]struct{})}
	return v.check(root)
}

type validator struct {
	ids map[string]struct{}
}

func (v *validator) check(n *Node) error {
	if n.ID == "" {
		return NewError(ErrMalformed, "node has no id", n.Path)
	}
	if _, seen := v.ids[n.ID]; seen {
		return NewError(ErrMalformed, "duplicate node id "+n.ID, n.Path)
	}
	v.ids[n.ID] = struct{}{}

	switch n.Kind {
	case KindFile:
		if len(n.Children) > 0 {
			return NewError(ErrMalformed, "file has children", n.Path)
		}
		return nil
	case KindDirectory:
		if n.Content != "" {
			return NewError(ErrMalformed, "directory has content", n.Path)
		}
	default:
		return NewError(ErrMalformed, "unknown node kind", n.Path)
	}

	names := make(map[string]struct{}, len(n.Children))
	for _, c := range n.Children {
		if c == nil {
			return NewError(ErrMalformed, "nil child", n.Path)
		}
		if ValidName(c.Name) != nil {
			return NewError(ErrMalformed, fmt.Sprintf("invalid name %q", c.Name), n.Path)
		}
		if _, dup := names[c.Name]; dup {
			return NewError(ErrMalformed, "duplicate sibling name", c.Path)
		}
		names[c.Name] = struct{}{}
		if want := ChildPath(n.Path, c.Name); c.Path != want {
			return NewError(ErrMalformed, "path does not match position, want "+want, c.Path)
		}
		if err := v.check(c); err != nil {
			return err
		}
	}
	return nil
}
