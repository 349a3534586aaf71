package tree

import (
	"github.com/google/uuid"
)

// newID assigns node identifiers. Tests may replace it for deterministic IDs.
var newID = uuid.NewString

// Tree is an immutable file tree value.
//
// The zero value is not usable; build one with New or Seed. All mutating
// methods leave the receiver untouched and return a new Tree that shares
// every unchanged subtree with the receiver.
type Tree struct {
	root *Node
}

// New wraps an existing root directory. The caller must not modify root
// (or any node below it) afterwards. Use Validate first when root comes
// from an untrusted source.
func New(root *Node) Tree {
	return Tree{root: root}
}

// Empty returns a tree holding only a root directory.
func Empty(rootPath, rootName string) Tree {
	return Tree{root: &Node{
		ID:   "root",
		Name: rootName,
		Kind: KindDirectory,
		Path: rootPath,
	}}
}

// Root returns the root directory.
func (t Tree) Root() *Node {
	return t.root
}

// RootPath returns the fixed path of the root directory.
func (t Tree) RootPath() string {
	if t.root == nil {
		return ""
	}
	return t.root.Path
}

// Find returns the node at path, or nil.
func (t Tree) Find(path string) *Node {
	return FindByPath(t.root, path)
}

// IsFile reports whether path addresses a file.
func (t Tree) IsFile(path string) bool {
	return t.Find(path).IsFile()
}

// Paths returns every path in pre-order, root first.
func (t Tree) Paths() []string {
	return CollectAllPaths(t.root)
}

// Len returns the number of nodes, including the root.
func (t Tree) Len() int {
	return CountNodes(t.root)
}

// Create appends an empty file or directory named name as the last child
// of the directory at parentPath.
//
// Returns:
//   - The new tree and the created node on success
//   - ErrInvalidName if name is not a single usable segment
//   - ErrParentNotFound if parentPath does not resolve to a directory
//   - ErrNameConflict if the parent already has a child named name
//
// On error the receiver is returned unchanged.
func (t Tree) Create(parentPath, name string, kind Kind) (Tree, *Node, error) {
	if err := ValidName(name); err != nil {
		return t, nil, err
	}

	parent := t.Find(parentPath)
	if !parent.IsDir() {
		return t, nil, NewError(ErrParentNotFound, "parent directory not found", parentPath)
	}
	if parent.child(name) != nil {
		return t, nil, NewError(ErrNameConflict, "name already exists", ChildPath(parentPath, name))
	}

	node := &Node{
		ID:   newID(),
		Name: name,
		Kind: kind,
		Path: ChildPath(parentPath, name),
	}

	root := MapByPath(t.root, parentPath, func(dir *Node) *Node {
		return dir.withChildren(appendChild(dir.Children, node))
	})
	return Tree{root: root}, node, nil
}

// UpdateContent replaces the content of the file at path. If path does not
// resolve to a file the receiver is returned unchanged; the caller cannot
// always know the file still exists at edit time.
func (t Tree) UpdateContent(path, content string) Tree {
	if !t.IsFile(path) {
		return t
	}
	root := MapByPath(t.root, path, func(n *Node) *Node {
		cp := *n
		cp.Content = content
		return &cp
	})
	return Tree{root: root}
}

// DeleteMany removes every node whose path is in paths together with all
// descendants of removed directories, in a single pass.
//
// The root directory is permanent: naming its path clears its children.
// Paths that do not resolve are ignored, so repeating a call is a no-op.
//
// Returns the new tree and every removed path (named and implied) in
// pre-order, for session reconciliation.
func (t Tree) DeleteMany(paths []string) (Tree, []string) {
	if len(paths) == 0 || t.root == nil {
		return t, nil
	}

	targets := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		targets[p] = struct{}{}
	}

	var removed []string
	_, clearRoot := targets[t.root.Path]

	var collect func(n *Node, doomed bool)
	collect = func(n *Node, doomed bool) {
		if !doomed {
			_, doomed = targets[n.Path]
		}
		if doomed {
			removed = append(removed, n.Path)
		}
		for _, c := range n.Children {
			collect(c, doomed)
		}
	}
	for _, c := range t.root.Children {
		collect(c, clearRoot)
	}

	if len(removed) == 0 {
		return t, nil
	}

	if clearRoot {
		return Tree{root: t.root.withChildren(nil)}, removed
	}

	root := FilterOut(t.root, func(n *Node) bool {
		_, hit := targets[n.Path]
		return hit
	})
	return Tree{root: root}, removed
}

// Candidate is a file offered for import.
type Candidate struct {
	Name    string
	Content string
}

// Skipped describes a candidate that BulkImport did not add.
type Skipped struct {
	Name   string
	Reason ErrorCode
}

// ImportReport summarizes a BulkImport call.
type ImportReport struct {
	// Added holds the created nodes in candidate order
	Added []*Node

	// Skipped holds rejected candidates in candidate order
	Skipped []Skipped
}

// BulkImport appends each candidate as a file under parentPath.
//
// Import is partial-success: a candidate whose name collides with an
// existing sibling (or with an earlier candidate in the same batch), whose
// content exceeds sizeLimit bytes, or whose name is invalid is skipped and
// reported, and the rest of the batch continues. A sizeLimit <= 0 disables
// the size check. Only a missing parent aborts the whole batch with
// ErrParentNotFound.
func (t Tree) BulkImport(parentPath string, candidates []Candidate, sizeLimit int) (Tree, ImportReport, error) {
	var report ImportReport

	parent := t.Find(parentPath)
	if !parent.IsDir() {
		return t, report, NewError(ErrParentNotFound, "parent directory not found", parentPath)
	}

	taken := make(map[string]struct{}, len(parent.Children)+len(candidates))
	for _, c := range parent.Children {
		taken[c.Name] = struct{}{}
	}

	added := make([]*Node, 0, len(candidates))
	for _, cand := range candidates {
		if ValidName(cand.Name) != nil {
			report.Skipped = append(report.Skipped, Skipped{Name: cand.Name, Reason: ErrInvalidName})
			continue
		}
		if sizeLimit > 0 && len(cand.Content) > sizeLimit {
			report.Skipped = append(report.Skipped, Skipped{Name: cand.Name, Reason: ErrOversizeUpload})
			continue
		}
		if _, dup := taken[cand.Name]; dup {
			report.Skipped = append(report.Skipped, Skipped{Name: cand.Name, Reason: ErrNameConflict})
			continue
		}
		taken[cand.Name] = struct{}{}
		added = append(added, &Node{
			ID:      newID(),
			Name:    cand.Name,
			Kind:    KindFile,
			Path:    ChildPath(parentPath, cand.Name),
			Content: cand.Content,
		})
	}

	if len(added) == 0 {
		return t, report, nil
	}
	report.Added = added

	root := MapByPath(t.root, parentPath, func(dir *Node) *Node {
		return dir.withChildren(appendChild(dir.Children, added...))
	})
	return Tree{root: root}, report, nil
}

// Move relocates the node at srcPath to be the last child of the directory
// at dstParentPath. Paths of the node and all its descendants are
// regenerated; IDs are kept.
//
// Errors:
//   - ErrRootImmutable if srcPath is the root
//   - ErrNotFound if srcPath does not resolve
//   - ErrParentNotFound if dstParentPath is not a directory
//   - ErrCycle if dstParentPath is srcPath or lies inside it
//   - ErrNameConflict if the destination already has a child with that name
//
// Moving a node into its current parent is a no-op.
func (t Tree) Move(srcPath, dstParentPath string) (Tree, error) {
	if srcPath == t.RootPath() {
		return t, NewError(ErrRootImmutable, "cannot move the root directory", srcPath)
	}
	src := t.Find(srcPath)
	if src == nil {
		return t, NewError(ErrNotFound, "no such file or directory", srcPath)
	}
	dst := t.Find(dstParentPath)
	if !dst.IsDir() {
		return t, NewError(ErrParentNotFound, "destination directory not found", dstParentPath)
	}
	if IsWithin(dstParentPath, srcPath) {
		return t, NewError(ErrCycle, "cannot move a directory into itself", dstParentPath)
	}
	if dst.child(src.Name) == src {
		return t, nil
	}
	if dst.child(src.Name) != nil {
		return t, NewError(ErrNameConflict, "name already exists", ChildPath(dstParentPath, src.Name))
	}

	detached := FilterOut(t.root, func(n *Node) bool { return n == src })
	moved := rebase(src, ChildPath(dstParentPath, src.Name))
	root := MapByPath(detached, dstParentPath, func(dir *Node) *Node {
		return dir.withChildren(appendChild(dir.Children, moved))
	})
	return Tree{root: root}, nil
}

// Rename gives the node at path a new name in place, keeping its position
// among its siblings. Paths of the node and all its descendants are
// regenerated; IDs are kept.
func (t Tree) Rename(path, newName string) (Tree, error) {
	if err := ValidName(newName); err != nil {
		return t, err
	}
	if path == t.RootPath() {
		return t, NewError(ErrRootImmutable, "cannot rename the root directory", path)
	}
	node := t.Find(path)
	if node == nil {
		return t, NewError(ErrNotFound, "no such file or directory", path)
	}
	if node.Name == newName {
		return t, nil
	}

	parentPath := path[:len(path)-len(node.Name)-1]
	if parentPath == "" {
		parentPath = "/"
	}
	parent := t.Find(parentPath)
	if !parent.IsDir() {
		return t, NewError(ErrParentNotFound, "parent directory not found", parentPath)
	}
	if parent.child(newName) != nil {
		return t, NewError(ErrNameConflict, "name already exists", ChildPath(parentPath, newName))
	}

	renamed := *node
	renamed.Name = newName
	replacement := rebase(&renamed, ChildPath(parentPath, newName))

	root := MapByPath(t.root, parentPath, func(dir *Node) *Node {
		children := make([]*Node, len(dir.Children))
		for i, c := range dir.Children {
			if c == node {
				children[i] = replacement
			} else {
				children[i] = c
			}
		}
		return dir.withChildren(children)
	})
	return Tree{root: root}, nil
}

// rebase returns a copy of n placed at path, with every descendant path
// regenerated below it.
func rebase(n *Node, path string) *Node {
	cp := *n
	cp.Path = path
	if len(n.Children) > 0 {
		cp.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = rebase(c, ChildPath(path, c.Name))
		}
	}
	return &cp
}

// appendChild returns a fresh slice; the input may be shared with other
// tree values and must not be appended to in place.
func appendChild(children []*Node, add ...*Node) []*Node {
	out := make([]*Node, 0, len(children)+len(add))
	out = append(out, children...)
	return append(out, add...)
}
