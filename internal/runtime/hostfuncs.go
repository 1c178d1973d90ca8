package runtime

import (
	"context"
	"os"

	"github.com/risor-io/risor/object"
	"github.com/rs/zerolog"

	"github.com/jward/symkit"
	"github.com/jward/symkit/internal/sitter"
)

// scriptTree is the handle scripts hold for a parsed file.
type scriptTree struct {
	tree *sitter.Tree
}

func (t *scriptTree) Root() *scriptNode { return &scriptNode{node: t.tree.Root()} }
func (t *scriptTree) Language() string { return t.tree.Language() }
func (t *scriptTree) Len() int { return t.tree.Len() }

// scriptNode is the handle scripts hold for a syntax node. It exposes only
// plain values; navigation goes through the host functions.
type scriptNode struct {
	node *sitter.Node
}

func (n *scriptNode) Kind() string { return n.node.Kind() }
func (n *scriptNode) Text() string { return n.node.Text() }
func (n *scriptNode) String() string { return n.node.String() }

func (n *scriptNode) StartLine() int {
	line, _ := n.node.Start()
	return line
}

func (n *scriptNode) StartCol() int {
	_, col := n.node.Start()
	return col
}

func (n *scriptNode) EndLine() int {
	line, _ := n.node.End()
	return line
}

func (n *scriptNode) EndCol() int {
	_, col := n.node.End()
	return col
}

func nodeObject(n *sitter.Node) object.Object {
	if n == nil {
		return object.Nil
	}
	p, err := object.NewProxy(&scriptNode{node: n})
	if err != nil {
		return object.Errorf("proxy error: %v", err)
	}
	return p
}

func nodeList(nodes []*sitter.Node) object.Object {
	items := make([]object.Object, 0, len(nodes))
	for _, n := range nodes {
		obj := nodeObject(n)
		if object.IsError(obj) {
			return obj
		}
		items = append(items, obj)
	}
	return object.NewList(items)
}

func toNode(fn string, obj object.Object) (*sitter.Node, *object.Error) {
	proxy, ok := obj.(*object.Proxy)
	if !ok {
		return nil, object.Errorf("%s: expected node, got %s", fn, obj.Type())
	}
	switch v := proxy.Interface().(type) {
	case *scriptNode:
		return v.node, nil
	case *scriptTree:
		return v.tree.Root(), nil
	}
	return nil, object.Errorf("%s: expected node, got %T", fn, proxy.Interface())
}

func toStrings(fn string, obj object.Object) ([]string, *object.Error) {
	if s, ok := obj.(*object.String); ok {
		return []string{s.Value()}, nil
	}
	list, ok := obj.(*object.List)
	if !ok {
		return nil, object.Errorf("%s: expected list of strings, got %s", fn, obj.Type())
	}
	out := make([]string, 0, len(list.Value()))
	for _, item := range list.Value() {
		s, ok := item.(*object.String)
		if !ok {
			return nil, object.Errorf("%s: expected string, got %s", fn, item.Type())
		}
		out = append(out, s.Value())
	}
	return out, nil
}

// makeParseFn creates the "parse" host function.
//
// parse(path, language) → tree
func makeParseFn(sess *session) *object.Builtin {
	return object.NewBuiltin("parse", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("parse", 2, len(args))
		}
		pathStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("parse: path must be a string, got %s", args[0].Type())
		}
		langStr, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("parse: language must be a string, got %s", args[1].Type())
		}

		src, err := os.ReadFile(pathStr.Value())
		if err != nil {
			return object.Errorf("parse: reading %s: %v", pathStr.Value(), err)
		}
		return parseSource(ctx, sess, src, langStr.Value())
	})
}

// makeParseSrcFn creates "parse_src", which parses a source string.
//
// parse_src(source, language) → tree
func makeParseSrcFn(sess *session) *object.Builtin {
	return object.NewBuiltin("parse_src", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("parse_src", 2, len(args))
		}
		srcStr, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("parse_src: source must be a string, got %s", args[0].Type())
		}
		langStr, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("parse_src: language must be a string, got %s", args[1].Type())
		}
		return parseSource(ctx, sess, []byte(srcStr.Value()), langStr.Value())
	})
}

func parseSource(ctx context.Context, sess *session, src []byte, lang string) object.Object {
	tree, err := sitter.Parse(ctx, src, lang)
	if err != nil {
		return object.Errorf("parse: %v", err)
	}
	sess.track(tree)

	proxy, err := object.NewProxy(&scriptTree{tree: tree})
	if err != nil {
		return object.Errorf("parse: proxy error: %v", err)
	}
	return proxy
}

// node_text(node) → string
func makeNodeTextFn() *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		n, errObj := toNode("node_text", args[0])
		if errObj != nil {
			return errObj
		}
		return object.NewString(n.Text())
	})
}

// node_child(node, field) → node or nil
func makeNodeChildFn() *object.Builtin {
	return object.NewBuiltin("node_child", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("node_child", 2, len(args))
		}
		n, errObj := toNode("node_child", args[0])
		if errObj != nil {
			return errObj
		}
		fieldStr, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("node_child: field must be a string, got %s", args[1].Type())
		}
		return nodeObject(n.Field(fieldStr.Value()))
	})
}

// node_children(node) → list of named children
func makeNodeChildrenFn() *object.Builtin {
	return object.NewBuiltin("node_children", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_children", 1, len(args))
		}
		n, errObj := toNode("node_children", args[0])
		if errObj != nil {
			return errObj
		}
		return nodeList(n.NamedChildren())
	})
}

// makeFindDescendantsFn creates "find_descendants". The start node is
// included, a match is not searched further, and excluded subtrees are
// skipped entirely.
//
// find_descendants(node, kinds, excluded=[]) → list of nodes
func makeFindDescendantsFn() *object.Builtin {
	return object.NewBuiltin("find_descendants", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 || len(args) > 3 {
			return object.NewArgsRangeError("find_descendants", 2, 3, len(args))
		}
		root, errObj := toNode("find_descendants", args[0])
		if errObj != nil {
			return errObj
		}
		kinds, errObj := toStrings("find_descendants", args[1])
		if errObj != nil {
			return errObj
		}

		var excluded []symkit.Node
		if len(args) == 3 && args[2] != object.Nil {
			list, ok := args[2].(*object.List)
			if !ok {
				return object.Errorf("find_descendants: excluded must be a list, got %s", args[2].Type())
			}
			for _, item := range list.Value() {
				n, errObj := toNode("find_descendants", item)
				if errObj != nil {
					return errObj
				}
				excluded = append(excluded, n)
			}
		}

		return nodeList(sitter.Nodes(symkit.FindDescendantsOfKind(root, kinds, excluded...)))
	})
}

// find_ancestor(node, kinds) → node or nil, the node itself included
func makeFindAncestorFn() *object.Builtin {
	return object.NewBuiltin("find_ancestor", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("find_ancestor", 2, len(args))
		}
		n, errObj := toNode("find_ancestor", args[0])
		if errObj != nil {
			return errObj
		}
		kinds, errObj := toStrings("find_ancestor", args[1])
		if errObj != nil {
			return errObj
		}
		anc := symkit.FindNearestAncestorOfKind(n, kinds...)
		if anc == nil {
			return object.Nil
		}
		sn, _ := sitter.AsNode(anc)
		return nodeObject(sn)
	})
}

// render_node(node) → string
func makeRenderNodeFn() *object.Builtin {
	return object.NewBuiltin("render_node", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("render_node", 1, len(args))
		}
		n, errObj := toNode("render_node", args[0])
		if errObj != nil {
			return errObj
		}
		text, err := symkit.RenderNode(n)
		if err != nil {
			return object.Errorf("render_node: %v", err)
		}
		return object.NewString(text)
	})
}

// emit(value) appends value to the host's results. Trees are closed when the
// script ends, so nodes and trees are copied out as plain maps.
func makeEmitFn(r *Runtime) *object.Builtin {
	return object.NewBuiltin("emit", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("emit", 1, len(args))
		}
		r.emit(detach(args[0].Interface()))
		return object.Nil
	})
}

// detach replaces every node and tree handle inside v with a map of its
// plain values.
func detach(v any) any {
	switch v := v.(type) {
	case *scriptNode:
		startLine, startCol := v.node.Start()
		endLine, endCol := v.node.End()
		return map[string]any{
			"kind":       v.node.Kind(),
			"text":       v.node.Text(),
			"start_line": startLine,
			"start_col":  startCol,
			"end_line":   endLine,
			"end_col":    endCol,
		}
	case *scriptTree:
		return map[string]any{
			"language": v.tree.Language(),
			"nodes":    v.tree.Len(),
		}
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = detach(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = detach(item)
		}
		return out
	default:
		return v
	}
}

// logObject provides log.Debug/Info/Warn/Error for scripts.
type logObject struct {
	logger zerolog.Logger
}

func (l *logObject) Debug(msg string) { l.logger.Debug().Str("source", "script").Msg(msg) }
func (l *logObject) Info(msg string) { l.logger.Info().Str("source", "script").Msg(msg) }
func (l *logObject) Warn(msg string) { l.logger.Warn().Str("source", "script").Msg(msg) }
func (l *logObject) Error(msg string) { l.logger.Error().Str("source", "script").Msg(msg) }
