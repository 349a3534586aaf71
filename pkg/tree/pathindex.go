package tree

// FindByPath returns the first node (depth-first, pre-order) whose path
// equals path, or nil.
func FindByPath(root *Node, path string) *Node {
	if root == nil {
		return nil
	}
	if root.Path == path {
		return root
	}
	for _, child := range root.Children {
		if found := FindByPath(child, path); found != nil {
			return found
		}
	}
	return nil
}

// CollectAllPaths returns the path of every node, files and directories,
// in pre-order.
func CollectAllPaths(root *Node) []string {
	paths := make([]string, 0, CountNodes(root))
	Walk(root, func(n *Node) bool {
		paths = append(paths, n.Path)
		return true
	})
	return paths
}

// Walk visits nodes in pre-order. Returning false from fn stops the walk.
// Walk reports whether it visited every node.
func Walk(root *Node, fn func(*Node) bool) bool {
	if root == nil {
		return true
	}
	if !fn(root) {
		return false
	}
	for _, child := range root.Children {
		if !Walk(child, fn) {
			return false
		}
	}
	return true
}

// CountNodes counts all nodes in a tree.
func CountNodes(root *Node) int {
	if root == nil {
		return 0
	}
	count := 1
	for _, child := range root.Children {
		count += CountNodes(child)
	}
	return count
}

// MapByPath returns a tree where the node at path is replaced by
// transform(node). Every ancestor on the root-to-target chain is copied;
// all other nodes are shared with the input. If no node has the path the
// input root is returned as is.
func MapByPath(root *Node, path string, transform func(*Node) *Node) *Node {
	out, _ := mapByPath(root, path, transform)
	return out
}

func mapByPath(n *Node, path string, transform func(*Node) *Node) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	if n.Path == path {
		return transform(n), true
	}
	if !IsWithin(path, n.Path) {
		return n, false
	}
	for i, child := range n.Children {
		replaced, ok := mapByPath(child, path, transform)
		if !ok {
			continue
		}
		children := make([]*Node, len(n.Children))
		copy(children, n.Children)
		children[i] = replaced
		return n.withChildren(children), true
	}
	return n, false
}

// FilterOut returns a tree without every node satisfying pred. A removed
// directory takes its whole subtree with it. The root itself is never
// removed. Subtrees with nothing removed are shared with the input.
func FilterOut(root *Node, pred func(*Node) bool) *Node {
	out, _ := filterChildren(root, pred)
	return out
}

func filterChildren(n *Node, pred func(*Node) bool) (*Node, bool) {
	if n == nil || len(n.Children) == 0 {
		return n, false
	}

	changed := false
	kept := make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		if pred(child) {
			changed = true
			continue
		}
		filtered, childChanged := filterChildren(child, pred)
		if childChanged {
			changed = true
		}
		kept = append(kept, filtered)
	}

	if !changed {
		return n, false
	}
	return n.withChildren(kept), true
}
