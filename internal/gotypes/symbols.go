package gotypes

import (
	"fmt"
	"go/types"
	"strings"

	"github.com/jward/symkit"
)

// namespace is a package, or the global namespace when pkg is nil.
type namespace struct {
	u   *Universe
	pkg *types.Package
}

var _ symkit.Namespace = (*namespace)(nil)

func (n *namespace) Kind() symkit.SymbolKind { return symkit.KindNamespace }
func (n *namespace) IsGlobal() bool { return n.pkg == nil }

func (n *namespace) MetadataName() string {
	if n.pkg == nil {
		return ""
	}
	return n.pkg.Path()
}

func (n *namespace) Container() symkit.Symbol {
	if n.pkg == nil {
		return nil
	}
	return n.u.global
}

func (n *namespace) DisplayName() (string, error) { return n.MetadataName(), nil }

// object is a non-type object: a function, method, variable, field,
// constant, label or package name.
type object struct {
	u   *Universe
	obj types.Object
}

func (o *object) Kind() symkit.SymbolKind {
	switch obj := o.obj.(type) {
	case *types.Func, *types.Const:
		return symkit.KindMember
	case *types.Var:
		switch {
		case obj.IsField():
			return symkit.KindMember
		case o.u.params[obj]:
			return symkit.KindParameter
		case obj.Pkg() != nil && obj.Parent() == obj.Pkg().Scope():
			return symkit.KindMember
		default:
			return symkit.KindLocal
		}
	}
	return symkit.KindOther
}

func (o *object) MetadataName() string { return o.obj.Name() }
func (o *object) Container() symkit.Symbol { return o.u.containerOf(o.obj) }

func (o *object) DisplayName() (string, error) {
	switch o.obj.(type) {
	case *types.Label, *types.PkgName, *types.Builtin, *types.Nil:
		return "", fmt.Errorf("%w: %T %s", ErrUnsupportedShape, o.obj, o.obj.Name())
	}
	return o.obj.Name(), nil
}

// funcLit is the anonymous function enclosing a declaration that has no
// named function around it, such as a package-level closure.
type funcLit struct {
	u   *Universe
	pkg *types.Package
}

func (f *funcLit) Kind() symkit.SymbolKind { return symkit.KindMember }
func (f *funcLit) MetadataName() string { return "" }
func (f *funcLit) Container() symkit.Symbol { return &namespace{u: f.u, pkg: f.pkg} }

func (f *funcLit) DisplayName() (string, error) {
	return "", fmt.Errorf("%w: function literal", ErrUnsupportedShape)
}

// namedType is a defined type, possibly generic or instantiated.
type namedType struct {
	u *Universe
	t *types.Named
}

var (
	_ symkit.GenericType = (*namedType)(nil)
	_ symkit.Arity       = (*namedType)(nil)
)

func (n *namedType) Kind() symkit.SymbolKind { return symkit.KindType }

// MetadataName carries the arity suffix for generic types, as in "Pair`2".
func (n *namedType) MetadataName() string {
	name := n.t.Obj().Name()
	if a := n.Arity(); a > 0 {
		return fmt.Sprintf("%s`%d", name, a)
	}
	return name
}

func (n *namedType) Container() symkit.Symbol { return n.u.containerOf(n.t.Obj()) }

func (n *namedType) Arity() int { return n.t.TypeParams().Len() }

// TypeArguments returns the type arguments of an instantiated type, or the
// type parameters of a generic one.
func (n *namedType) TypeArguments() []symkit.Symbol {
	var out []symkit.Symbol
	if args := n.t.TypeArgs(); args.Len() > 0 {
		for i := 0; i < args.Len(); i++ {
			out = append(out, n.u.Type(args.At(i)))
		}
		return out
	}
	params := n.t.TypeParams()
	for i := 0; i < params.Len(); i++ {
		out = append(out, n.u.Type(params.At(i)))
	}
	return out
}

// DisplayName renders the type unqualified with its arguments, "Pair[K, V]".
func (n *namedType) DisplayName() (string, error) {
	name := n.t.Obj().Name()
	args := n.TypeArguments()
	if len(args) == 0 {
		return name, nil
	}
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := a.DisplayName()
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return name + "[" + strings.Join(parts, ", ") + "]", nil
}

// arrayType is a slice or an array. Both render as "Elem[]".
type arrayType struct {
	u    *Universe
	t    types.Type
	elem types.Type
}

var _ symkit.ArrayType = (*arrayType)(nil)

func (a *arrayType) Kind() symkit.SymbolKind { return symkit.KindType }
func (a *arrayType) MetadataName() string { return a.t.String() }
func (a *arrayType) Container() symkit.Symbol { return nil }
func (a *arrayType) Elem() symkit.Symbol { return a.u.Type(a.elem) }

func (a *arrayType) DisplayName() (string, error) {
	return types.TypeString(a.t, unqualified), nil
}

// otherType covers basic types, type parameters and type literals. They
// live in the global namespace under their package-qualified spelling.
type otherType struct {
	u *Universe
	t types.Type
}

func (o *otherType) Kind() symkit.SymbolKind { return symkit.KindType }
func (o *otherType) MetadataName() string { return types.TypeString(o.t, nil) }
func (o *otherType) Container() symkit.Symbol { return o.u.global }

func (o *otherType) DisplayName() (string, error) {
	return types.TypeString(o.t, unqualified), nil
}

func unqualified(*types.Package) string { return "" }
