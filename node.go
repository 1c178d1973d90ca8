package symkit

// Node is a node in an immutable syntax tree owned by an adapter. Values are
// compared with ==, so an adapter must hand out the same comparable value
// every time it exposes the same underlying node.
type Node interface {
	// Kind returns the node's kind tag, e.g. "class_declaration".
	Kind() string
	// Parent returns the enclosing node, or nil at the root.
	Parent() Node
	// Children returns the direct child nodes in source order.
	Children() []Node
}

// NodeSet is a set of nodes treated as exclusion boundaries.
type NodeSet map[Node]struct{}

// NewNodeSet returns a set holding nodes. Nil entries are ignored.
func NewNodeSet(nodes ...Node) NodeSet {
	set := make(NodeSet, len(nodes))
	for _, n := range nodes {
		if n != nil {
			set[n] = struct{}{}
		}
	}
	return set
}

// Contains reports whether n is in the set.
func (s NodeSet) Contains(n Node) bool {
	_, ok := s[n]
	return ok
}

// FindDescendants returns root and its descendants whose dynamic type is T,
// in pre-order. A node of type T is returned without searching it further,
// and nodes in excluded are skipped along with their whole subtree.
func FindDescendants[T Node](root Node, excluded ...Node) []T {
	var out []T
	walkDescendants(root, NewNodeSet(excluded...), func(n Node) bool {
		t, ok := n.(T)
		if ok {
			out = append(out, t)
		}
		return ok
	})
	return out
}

// FindDescendantsOfKind is FindDescendants for trees whose node kinds are
// string tags rather than Go types. A node matches when its Kind is any of
// kinds.
func FindDescendantsOfKind(root Node, kinds []string, excluded ...Node) []Node {
	return FindDescendantsIn(root, kinds, NewNodeSet(excluded...))
}

// FindDescendantsIn is FindDescendantsOfKind with a prebuilt exclusion set,
// for callers that search many subtrees against the same boundaries.
func FindDescendantsIn(root Node, kinds []string, excluded NodeSet) []Node {
	match := kindMatcher(kinds)
	var out []Node
	walkDescendants(root, excluded, func(n Node) bool {
		if match(n.Kind()) {
			out = append(out, n)
			return true
		}
		return false
	})
	return out
}

// walkDescendants visits n and its subtree in pre-order. visit reports
// whether n matched; matched nodes are not descended into.
func walkDescendants(n Node, excluded NodeSet, visit func(Node) bool) {
	if n == nil || excluded.Contains(n) {
		return
	}
	if visit(n) {
		return
	}
	for _, child := range n.Children() {
		walkDescendants(child, excluded, visit)
	}
}

// FindNearestAncestor walks up from n, n included, and returns the first
// node whose dynamic type is T. It reports false when the root is passed
// without a match or when n is nil.
func FindNearestAncestor[T Node](n Node) (T, bool) {
	for ; n != nil; n = n.Parent() {
		if t, ok := n.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// FindNearestAncestorOfKind walks up from n, n included, and returns the
// first node whose Kind is any of kinds, or nil.
func FindNearestAncestorOfKind(n Node, kinds ...string) Node {
	match := kindMatcher(kinds)
	for ; n != nil; n = n.Parent() {
		if match(n.Kind()) {
			return n
		}
	}
	return nil
}

func kindMatcher(kinds []string) func(string) bool {
	if len(kinds) == 1 {
		k := kinds[0]
		return func(s string) bool { return s == k }
	}
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return func(s string) bool { return set[s] }
}
