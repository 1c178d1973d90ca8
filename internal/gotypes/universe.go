// Package gotypes presents go/types objects and types as symkit symbols.
//
// Packages are namespaces directly under a global namespace, named types are
// generic types with an explicit arity, and slices and arrays are array
// types. Type names therefore come out as "example.com/p.Pair<string, int>"
// or "example.com/p.Point[]".
package gotypes

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/jward/symkit"
)

// ErrUnsupportedShape is returned by DisplayName for objects that have no
// renderable name, such as labels, imported package names and anonymous
// functions.
var ErrUnsupportedShape = errors.New("gotypes: unsupported symbol shape")

// Universe resolves the objects of one type-checked package.
type Universe struct {
	pkg  *types.Package
	info *types.Info

	funcScopes map[*types.Scope]*types.Func
	litScopes  map[*types.Scope]bool
	params     map[*types.Var]bool
	fieldOwner map[*types.Var]*types.Named

	global *namespace
}

// NewUniverse indexes the function scopes, parameters and struct fields of
// a type-checked package. files must be the files pkg was checked from and
// info must have Defs, Types and Scopes populated.
func NewUniverse(pkg *types.Package, info *types.Info, files []*ast.File) *Universe {
	u := &Universe{
		pkg:        pkg,
		info:       info,
		funcScopes: make(map[*types.Scope]*types.Func),
		litScopes:  make(map[*types.Scope]bool),
		params:     make(map[*types.Var]bool),
		fieldOwner: make(map[*types.Var]*types.Named),
	}
	u.global = &namespace{u: u}

	for _, f := range files {
		ast.Inspect(f, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.FuncDecl:
				fn, ok := info.Defs[n.Name].(*types.Func)
				if !ok {
					return true
				}
				if scope := info.Scopes[n.Type]; scope != nil {
					u.funcScopes[scope] = fn
				}
				u.addParams(fn.Type())
			case *ast.FuncLit:
				if scope := info.Scopes[n.Type]; scope != nil {
					u.litScopes[scope] = true
				}
				u.addParams(info.TypeOf(n))
			}
			return true
		})
	}

	for _, obj := range info.Defs {
		tn, ok := obj.(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			continue
		}
		for i := 0; i < st.NumFields(); i++ {
			u.fieldOwner[st.Field(i)] = named
		}
	}
	return u
}

func (u *Universe) addParams(t types.Type) {
	sig, ok := t.(*types.Signature)
	if !ok {
		return
	}
	if recv := sig.Recv(); recv != nil {
		u.params[recv] = true
	}
	for _, tuple := range []*types.Tuple{sig.Params(), sig.Results()} {
		for i := 0; i < tuple.Len(); i++ {
			u.params[tuple.At(i)] = true
		}
	}
}

// Package returns the symbol for the package itself.
func (u *Universe) Package() symkit.Symbol {
	return &namespace{u: u, pkg: u.pkg}
}

// Path returns the package import path.
func (u *Universe) Path() string { return u.pkg.Path() }

// Lookup returns the package-level object named name, or nil.
func (u *Universe) Lookup(name string) symkit.Symbol {
	obj := u.pkg.Scope().Lookup(name)
	if obj == nil {
		return nil
	}
	return u.Object(obj)
}

// TypeNames returns the names of the package-level types, sorted.
func (u *Universe) TypeNames() []string {
	var out []string
	for _, name := range u.pkg.Scope().Names() {
		if _, ok := u.pkg.Scope().Lookup(name).(*types.TypeName); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Object wraps obj as a symbol. Type names resolve to their type, so a
// generic type name yields a symkit.GenericType.
func (u *Universe) Object(obj types.Object) symkit.Symbol {
	if obj == nil {
		return nil
	}
	if tn, ok := obj.(*types.TypeName); ok {
		return u.Type(tn.Type())
	}
	return &object{u: u, obj: obj}
}

// Type wraps t as a symbol.
func (u *Universe) Type(t types.Type) symkit.Symbol {
	if t == nil {
		return nil
	}
	switch t := types.Unalias(t).(type) {
	case *types.Named:
		return &namedType{u: u, t: t}
	case *types.Slice:
		return &arrayType{u: u, t: t, elem: t.Elem()}
	case *types.Array:
		return &arrayType{u: u, t: t, elem: t.Elem()}
	default:
		return &otherType{u: u, t: t}
	}
}

// containerOf returns the symbol enclosing obj.
func (u *Universe) containerOf(obj types.Object) symkit.Symbol {
	switch obj := obj.(type) {
	case *types.Func:
		sig, _ := obj.Type().(*types.Signature)
		if sig != nil && sig.Recv() != nil {
			return u.Type(deref(sig.Recv().Type()))
		}
	case *types.Var:
		if obj.IsField() {
			if owner, ok := u.fieldOwner[obj.Origin()]; ok {
				return u.Type(owner)
			}
			return nil
		}
	}
	if obj.Pkg() == nil {
		return u.global
	}
	return u.scopeContainer(obj.Pkg(), obj.Parent())
}

// scopeContainer walks up from scope to the nearest declared function. A
// function literal reached at package level stands in for the missing
// declaration.
func (u *Universe) scopeContainer(pkg *types.Package, scope *types.Scope) symkit.Symbol {
	inLiteral := false
	for s := scope; s != nil; s = s.Parent() {
		if fn, ok := u.funcScopes[s]; ok {
			return u.Object(fn)
		}
		if u.litScopes[s] {
			inLiteral = true
		}
		if s == pkg.Scope() || s == types.Universe {
			break
		}
	}
	if inLiteral {
		return &funcLit{u: u, pkg: pkg}
	}
	return &namespace{u: u, pkg: pkg}
}

func deref(t types.Type) types.Type {
	if p, ok := types.Unalias(t).(*types.Pointer); ok {
		return p.Elem()
	}
	return t
}

// Load loads the packages matching patterns in dir with full syntax and
// type information and returns one Universe per package.
func Load(ctx context.Context, dir string, patterns ...string) ([]*Universe, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
	}
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("gotypes: load: %w", err)
	}

	out := make([]*Universe, 0, len(pkgs))
	for _, p := range pkgs {
		if len(p.Errors) > 0 {
			return nil, fmt.Errorf("gotypes: load %s: %w", p.PkgPath, p.Errors[0])
		}
		if p.Types == nil || p.TypesInfo == nil {
			continue
		}
		out = append(out, NewUniverse(p.Types, p.TypesInfo, p.Syntax))
	}
	return out, nil
}
