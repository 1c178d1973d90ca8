// Package sitter adapts tree-sitter syntax trees to the symkit node model.
//
// A Tree materializes one *Node per tree-sitter node when it is parsed, so
// node identity is plain pointer equality and exclusion sets work without
// relying on the binding's own node caching.
package sitter

import (
	"context"
	"errors"
	"fmt"
	"os"

	ts "github.com/smacker/go-tree-sitter"

	"github.com/jward/symkit"
)

// ErrUnsupportedLanguage is returned when no grammar exists for a language.
var ErrUnsupportedLanguage = errors.New("sitter: unsupported language")

// Tree is a parsed source file together with its source bytes.
type Tree struct {
	raw      *ts.Tree
	src      []byte
	lang     string
	root     *Node
	byKey    map[nodeKey]*Node
	numNodes int
}

// nodeKey locates a tree-sitter node within its tree. Byte range, node
// type and depth together separate nodes that share a range, such as a
// wrapper node and its only child.
type nodeKey struct {
	start, end uint32
	kind       string
	depth      int
}

// Parse parses src with the grammar for lang.
func Parse(ctx context.Context, src []byte, lang string) (*Tree, error) {
	grammar, ok := GrammarForLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	parser := ts.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	raw, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("sitter: parse %s: %w", lang, err)
	}

	t := &Tree{raw: raw, src: src, lang: lang, byKey: make(map[nodeKey]*Node)}
	t.root = t.materialize(raw.RootNode(), nil, 0)
	return t, nil
}

// ParseFile reads path and parses it with the grammar chosen by its
// extension.
func ParseFile(ctx context.Context, path string) (*Tree, error) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sitter: read %s: %w", path, err)
	}
	return Parse(ctx, src, lang)
}

func (t *Tree) materialize(raw *ts.Node, parent *Node, depth int) *Node {
	n := &Node{tree: t, raw: raw, parent: parent, depth: depth}
	t.byKey[keyOf(raw, depth)] = n
	t.numNodes++

	count := int(raw.ChildCount())
	if count > 0 {
		n.children = make([]*Node, 0, count)
	}
	for i := 0; i < count; i++ {
		child := raw.Child(i)
		if child == nil {
			continue
		}
		c := t.materialize(child, n, depth+1)
		n.children = append(n.children, c)
		if child.IsNamed() {
			n.named = append(n.named, c)
		}
	}
	return n
}

func keyOf(raw *ts.Node, depth int) nodeKey {
	return nodeKey{start: raw.StartByte(), end: raw.EndByte(), kind: raw.Type(), depth: depth}
}

// Close releases the underlying tree-sitter tree.
func (t *Tree) Close() {
	if t.raw != nil {
		t.raw.Close()
		t.raw = nil
	}
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte { return t.src }

// Language returns the canonical language name.
func (t *Tree) Language() string { return t.lang }

// Len returns the number of nodes in the tree, tokens included.
func (t *Tree) Len() int { return t.numNodes }

// Wrap returns the Node for a raw tree-sitter node of this tree, or nil when
// the node does not belong to it.
func (t *Tree) Wrap(raw *ts.Node) *Node {
	if raw == nil {
		return nil
	}
	depth := 0
	for p := raw.Parent(); p != nil; p = p.Parent() {
		depth++
	}
	return t.byKey[keyOf(raw, depth)]
}

// NodeAt returns the smallest named node spanning the 0-based line and
// column, or nil when the position is outside the source.
func (t *Tree) NodeAt(line, col int) *Node {
	if line < 0 || col < 0 {
		return nil
	}
	p := ts.Point{Row: uint32(line), Column: uint32(col)}
	rootRaw := t.root.raw
	if p.Row > rootRaw.EndPoint().Row {
		return nil
	}
	return t.Wrap(rootRaw.NamedDescendantForPointRange(p, p))
}

// Node is a tree-sitter node inside a Tree.
type Node struct {
	tree     *Tree
	raw      *ts.Node
	parent   *Node
	children []*Node // every child, tokens included
	named    []*Node
	depth    int
}

var (
	_ symkit.Node       = (*Node)(nil)
	_ symkit.Renderable = (*Node)(nil)
)

// Kind returns the tree-sitter node type, e.g. "function_declaration".
func (n *Node) Kind() string { return n.raw.Type() }

// Parent returns the enclosing node, or nil at the root.
func (n *Node) Parent() symkit.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children returns the named children. Anonymous tokens such as keywords
// and punctuation are left out.
func (n *Node) Children() []symkit.Node {
	out := make([]symkit.Node, len(n.named))
	for i, c := range n.named {
		out[i] = c
	}
	return out
}

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree { return n.tree }

// Raw returns the underlying tree-sitter node.
func (n *Node) Raw() *ts.Node { return n.raw }

// Text returns the node's source text verbatim.
func (n *Node) Text() string {
	return string(n.tree.src[n.raw.StartByte():n.raw.EndByte()])
}

// Start returns the 0-based start line and column.
func (n *Node) Start() (line, col int) {
	p := n.raw.StartPoint()
	return int(p.Row), int(p.Column)
}

// End returns the 0-based end line and column.
func (n *Node) End() (line, col int) {
	p := n.raw.EndPoint()
	return int(p.Row), int(p.Column)
}

// Field returns the child stored under a grammar field name, or nil.
func (n *Node) Field(name string) *Node {
	raw := n.raw.ChildByFieldName(name)
	if raw == nil {
		return nil
	}
	for _, c := range n.children {
		if c.raw.StartByte() == raw.StartByte() && c.raw.EndByte() == raw.EndByte() && c.raw.Type() == raw.Type() {
			return c
		}
	}
	return nil
}

// FieldAll returns every child stored under a grammar field name, for
// fields that repeat such as the names in "X, Y int".
func (n *Node) FieldAll(name string) []*Node {
	var out []*Node
	for i, c := range n.children {
		if n.raw.FieldNameForChild(i) == name {
			out = append(out, c)
		}
	}
	return out
}

// NamedChildren returns the named children as concrete nodes.
func (n *Node) NamedChildren() []*Node { return n.named }

// IsLeaf reports whether the node has no children at all.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// String returns "kind@line:col" for diagnostics.
func (n *Node) String() string {
	line, col := n.Start()
	return fmt.Sprintf("%s@%d:%d", n.Kind(), line, col)
}

// AsNode converts a symkit.Node produced by this package back to *Node.
func AsNode(n symkit.Node) (*Node, bool) {
	sn, ok := n.(*Node)
	return sn, ok && sn != nil
}

// Nodes converts a slice of symkit nodes to concrete nodes, dropping any
// that did not come from this package.
func Nodes(in []symkit.Node) []*Node {
	out := make([]*Node, 0, len(in))
	for _, n := range in {
		if sn, ok := AsNode(n); ok {
			out = append(out, sn)
		}
	}
	return out
}
