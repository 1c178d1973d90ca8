// Package symkit provides small, stateless helpers over a syntax tree and a
// symbol graph owned by some other compiler front end. The package never
// parses, binds or caches anything itself; it only walks structures that an
// adapter exposes through the [Node] and [Symbol] interfaces.
//
// # Operations
//
//   - [FindDescendants] and [FindDescendantsOfKind]: depth-first search for
//     nodes of a kind, pruning excluded subtrees. The first match in each
//     branch wins; a matching node is never searched for nested matches.
//   - [FindNearestAncestor] and [FindNearestAncestorOfKind]: upward walk to
//     the nearest node of a kind, starting with the node itself.
//   - [FullMetadataName] and [ResolveMetadataName]: fully-qualified,
//     metadata-style name for a type symbol, e.g. "N.Outer.Pair<Int, String>"
//     or "N.Foo[]".
//   - [RenderNode]: whitespace-normalized source text of a node.
//
// # Adapters
//
// The internal/sitter package adapts tree-sitter trees, internal/gotypes
// adapts go/types objects, and internal/store exposes indexed symbol rows as
// a lazily loaded symbol graph. All three satisfy the interfaces here, so the
// same helpers serve each of them.
//
// # Usage
//
//	tree, err := sitter.Parse(ctx, src, "java")
//	if err != nil { ... }
//	defer tree.Close()
//
//	methods := symkit.FindDescendantsOfKind(tree.Root(), []string{"method_declaration"})
//	class := symkit.FindNearestAncestorOfKind(methods[0], "class_declaration")
//	text, err := symkit.RenderNode(class.(sitter.Node))
//
// All operations are safe for concurrent use provided the adapter's
// structures are safe for concurrent reads.
package symkit
