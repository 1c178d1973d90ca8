package index

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/jward/symkit"
	"github.com/jward/symkit/internal/sitter"
	"github.com/jward/symkit/internal/store"
)

// extraction turns one parsed file into symbol rows.
type extraction struct {
	ds     store.DataStore
	decl   *declarations
	tree   *sitter.Tree
	fileID int64
	logger zerolog.Logger

	all      []string
	excluded symkit.NodeSet

	// ids maps each handled declaration node to the symbol that members
	// declared inside it hang from.
	ids         map[*sitter.Node]int64
	typesByName map[string]*sitter.Node
	global      int64
	fileNS      int64
	count       int
}

// extract writes the declarations of tree to ds and returns how many
// symbols it inserted.
func extract(ds store.DataStore, tree *sitter.Tree, fileID int64, logger zerolog.Logger) (int, error) {
	decl, ok := declarationsFor(tree.Language())
	if !ok {
		return 0, fmt.Errorf("%w: %s", sitter.ErrUnsupportedLanguage, tree.Language())
	}
	x := &extraction{
		ds:          ds,
		decl:        decl,
		tree:        tree,
		fileID:      fileID,
		logger:      logger,
		all:         decl.all(),
		ids:         make(map[*sitter.Node]int64),
		typesByName: make(map[string]*sitter.Node),
	}
	// Only the outermost anonymous functions are needed: the search never
	// enters them, so whatever they contain is unreachable anyway.
	x.excluded = symkit.NewNodeSet(symkit.FindDescendantsOfKind(tree.Root(), decl.anonymous)...)

	global, err := x.insert(&store.Symbol{Kind: store.KindNamespace}, nil)
	if err != nil {
		return 0, err
	}
	x.global, x.fileNS = global, global

	var decls []*sitter.Node
	x.collect(tree.Root(), &decls)
	for _, d := range decls {
		if slices.Contains(decl.types, d.Kind()) {
			if names := declNames(d); len(names) > 0 {
				if _, seen := x.typesByName[names[0]]; !seen {
					x.typesByName[names[0]] = d
				}
			}
		}
	}

	// Methods declared outside their type may precede it in the file, so
	// declarations are inserted once their parent symbol exists.
	pending := decls
	for len(pending) > 0 {
		var next []*sitter.Node
		for _, d := range pending {
			parent, ready := x.parentOf(d)
			if !ready {
				next = append(next, d)
				continue
			}
			if err := x.declare(d, parent); err != nil {
				return x.count, err
			}
		}
		if len(next) == len(pending) {
			// Nothing became ready; attach the rest to the file namespace.
			for _, d := range next {
				if err := x.declare(d, x.fileNS); err != nil {
					return x.count, err
				}
			}
			break
		}
		pending = next
	}
	return x.count, nil
}

// collect appends, in pre-order, the declarations under n. Each child is
// searched with first-match pruning, and the search resumes inside every
// declaration it finds.
func (x *extraction) collect(n symkit.Node, out *[]*sitter.Node) {
	for _, child := range n.Children() {
		for _, d := range symkit.FindDescendantsIn(child, x.all, x.excluded) {
			sn, ok := sitter.AsNode(d)
			if !ok {
				continue
			}
			*out = append(*out, sn)
			x.collect(sn, out)
		}
	}
}

// parentOf returns the symbol a declaration belongs to and whether that
// symbol has been inserted yet.
func (x *extraction) parentOf(d *sitter.Node) (int64, bool) {
	kind := d.Kind()
	if slices.Contains(x.decl.attached, kind) || slices.Contains(x.decl.scopeOnly, kind) {
		if target := x.attachTarget(d); target != nil {
			id, ok := x.ids[target]
			return id, ok
		}
	}
	anc := symkit.FindNearestAncestorOfKind(d.Parent(), x.all...)
	if anc == nil {
		return x.fileNS, true
	}
	sn, _ := sitter.AsNode(anc)
	id, ok := x.ids[sn]
	return id, ok
}

// attachTarget returns the type declaration a method or impl block is
// attached to, when that type is declared in the same file.
func (x *extraction) attachTarget(d *sitter.Node) *sitter.Node {
	if x.decl.attachField == "" {
		return nil
	}
	field := d.Field(x.decl.attachField)
	if field == nil {
		return nil
	}
	idents := symkit.FindDescendantsOfKind(field, []string{"type_identifier"})
	if len(idents) == 0 {
		return nil
	}
	sn, _ := sitter.AsNode(idents[0])
	return x.typesByName[sn.Text()]
}

func (x *extraction) declare(d *sitter.Node, parent int64) error {
	kind := d.Kind()
	x.ids[d] = parent

	switch {
	case slices.Contains(x.decl.packages, kind):
		id, ok, err := x.declareNamespace(d, namespaceNames(d, true), x.global)
		if err != nil || !ok {
			return err
		}
		if d.Field("body") == nil {
			x.fileNS = id
		}

	case slices.Contains(x.decl.namespaces, kind):
		_, _, err := x.declareNamespace(d, namespaceNames(d, false), parent)
		return err

	case slices.Contains(x.decl.types, kind):
		if x.decl.bodyRequired && d.Field("body") == nil {
			return nil
		}
		return x.declareType(d, parent)

	case slices.Contains(x.decl.members, kind), slices.Contains(x.decl.attached, kind):
		for i, name := range declNames(d) {
			id, err := x.insertAt(d, store.KindMember, name, name, 0, parent)
			if err != nil {
				return err
			}
			if i == 0 {
				x.ids[d] = id
			}
		}
	}
	return nil
}

// declareNamespace inserts one namespace symbol per name segment, each under
// the one before, and returns the innermost. ok is false for an unnamed
// namespace.
func (x *extraction) declareNamespace(d *sitter.Node, names []string, parent int64) (id int64, ok bool, err error) {
	if len(names) == 0 {
		return 0, false, nil
	}
	for _, name := range names {
		if parent, err = x.insertAt(d, store.KindNamespace, name, name, 0, parent); err != nil {
			return 0, false, err
		}
	}
	x.ids[d] = parent
	return parent, true, nil
}

func (x *extraction) declareType(d *sitter.Node, parent int64) error {
	names := declNames(d)
	if len(names) == 0 {
		return nil
	}
	name := names[0]
	params := x.typeParams(d)

	metadata := name
	if len(params) > 0 {
		metadata = fmt.Sprintf("%s`%d", name, len(params))
	}
	id, err := x.insertAt(d, store.KindType, name, metadata, len(params), parent)
	if err != nil {
		return err
	}
	x.ids[d] = id

	for i, p := range params {
		pid, err := x.insertAt(p.node, store.KindType, p.name, p.name, 0, x.global)
		if err != nil {
			return err
		}
		if _, err := x.ds.InsertTypeArgument(&store.TypeArgument{SymbolID: id, Ordinal: i, ArgumentSymbolID: pid}); err != nil {
			return fmt.Errorf("type argument %s of %s: %w", p.name, name, err)
		}
	}
	return nil
}

type typeParam struct {
	node *sitter.Node
	name string
}

func (x *extraction) typeParams(d *sitter.Node) []typeParam {
	if x.decl.typeParams == "" {
		return nil
	}
	list := d.Field(x.decl.typeParams)
	if list == nil {
		return nil
	}
	var out []typeParam
	for _, n := range sitter.Nodes(symkit.FindDescendantsOfKind(list, x.decl.typeParamKinds)) {
		if name, ok := paramName(n); ok {
			out = append(out, typeParam{node: n, name: name})
		}
	}
	return out
}

func (x *extraction) insertAt(n *sitter.Node, kind, name, metadata string, arity int, parent int64) (int64, error) {
	sym := &store.Symbol{
		Name:         name,
		MetadataName: metadata,
		Kind:         kind,
		Arity:        arity,
	}
	sym.StartLine, sym.StartCol = n.Start()
	sym.EndLine, sym.EndCol = n.End()
	return x.insert(sym, &parent)
}

func (x *extraction) insert(sym *store.Symbol, parent *int64) (int64, error) {
	sym.FileID = &x.fileID
	sym.ParentSymbolID = parent
	id, err := x.ds.InsertSymbol(sym)
	if err != nil {
		return 0, err
	}
	x.count++
	x.logger.Trace().Str("kind", sym.Kind).Str("name", sym.Name).Int64("id", id).Msg("symbol")
	return id, nil
}
