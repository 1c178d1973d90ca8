package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jward/symkit"
)

var (
	// ErrSymbolNotFound is reported by DisplayName when a symbol row is
	// missing.
	ErrSymbolNotFound = errors.New("store: symbol not found")
	// ErrUnrepresentable is reported by DisplayName for rows whose kind has
	// no symkit equivalent.
	ErrUnrepresentable = errors.New("store: symbol kind not representable")
)

var kindsByName = map[string]symkit.SymbolKind{
	KindNamespace: symkit.KindNamespace,
	KindType:      symkit.KindType,
	KindMember:    symkit.KindMember,
	KindLocal:     symkit.KindLocal,
	KindParameter: symkit.KindParameter,
}

// Symbol returns the symbol row id as a symkit.Symbol. Containers and type
// arguments are loaded as they are walked. A row that cannot be loaded
// yields a symbol whose DisplayName reports the failure.
func (s *Store) Symbol(id int64) symkit.Symbol {
	row, err := s.SymbolByID(id)
	if err == nil && row == nil {
		err = fmt.Errorf("%w: %d", ErrSymbolNotFound, id)
	}
	if err != nil {
		return &brokenSymbol{err: err}
	}

	base := indexedSymbol{s: s, row: row}
	switch {
	case row.Kind == KindNamespace:
		return &indexedNamespace{base}
	case row.ElementSymbolID != nil:
		return &indexedArray{base}
	case row.Kind == KindType && row.Arity > 0:
		return &indexedGeneric{base}
	default:
		return &base
	}
}

type indexedSymbol struct {
	s   *Store
	row *Symbol
}

func (x *indexedSymbol) Kind() symkit.SymbolKind {
	return kindsByName[x.row.Kind]
}

func (x *indexedSymbol) MetadataName() string { return x.row.MetadataName }

func (x *indexedSymbol) Container() symkit.Symbol {
	if x.row.ParentSymbolID == nil {
		return nil
	}
	return x.s.Symbol(*x.row.ParentSymbolID)
}

func (x *indexedSymbol) DisplayName() (string, error) {
	if _, ok := kindsByName[x.row.Kind]; !ok {
		return "", fmt.Errorf("%w: %s %q", ErrUnrepresentable, x.row.Kind, x.row.Name)
	}
	return x.row.Name, nil
}

// ID returns the symbol's row id.
func (x *indexedSymbol) ID() int64 { return x.row.ID }

type indexedNamespace struct{ indexedSymbol }

// IsGlobal reports whether this is a file's root namespace.
func (n *indexedNamespace) IsGlobal() bool { return n.row.ParentSymbolID == nil }

type indexedArray struct{ indexedSymbol }

func (a *indexedArray) Elem() symkit.Symbol { return a.s.Symbol(*a.row.ElementSymbolID) }

type indexedGeneric struct{ indexedSymbol }

func (g *indexedGeneric) Arity() int { return g.row.Arity }

// TypeArguments loads the type's arguments in order. Arguments that cannot
// be loaded are returned as placeholders that make any name built through
// them incomplete.
func (g *indexedGeneric) TypeArguments() []symkit.Symbol {
	args, err := g.s.TypeArguments(g.row.ID)
	if err != nil {
		err = fmt.Errorf("type arguments of %q: %w", g.row.Name, err)
		out := make([]symkit.Symbol, g.row.Arity)
		for i := range out {
			out[i] = &missingArgument{brokenSymbol{err: err}}
		}
		return out
	}
	out := make([]symkit.Symbol, len(args))
	for i, a := range args {
		sym := g.s.Symbol(a.ArgumentSymbolID)
		if b, ok := sym.(*brokenSymbol); ok {
			sym = &missingArgument{*b}
		}
		out[i] = sym
	}
	return out
}

// DisplayName renders the type with its arguments, "Outer<T>".
func (g *indexedGeneric) DisplayName() (string, error) {
	name, err := g.indexedSymbol.DisplayName()
	if err != nil {
		return "", err
	}
	args := g.TypeArguments()
	if len(args) == 0 {
		return name, nil
	}
	parts := make([]string, len(args))
	for i, a := range args {
		if parts[i], err = a.DisplayName(); err != nil {
			return "", err
		}
	}
	return name + "<" + strings.Join(parts, ", ") + ">", nil
}

// brokenSymbol stands in for a row that could not be loaded.
type brokenSymbol struct {
	err error
}

func (b *brokenSymbol) Kind() symkit.SymbolKind { return symkit.KindOther }
func (b *brokenSymbol) MetadataName() string { return "" }
func (b *brokenSymbol) Container() symkit.Symbol { return nil }
func (b *brokenSymbol) DisplayName() (string, error) { return "", b.err }

// missingArgument is a type argument that could not be loaded. Its container
// fails to display, so qualifying it stops with the load error.
type missingArgument struct {
	brokenSymbol
}

func (m *missingArgument) Kind() symkit.SymbolKind { return symkit.KindType }
func (m *missingArgument) Container() symkit.Symbol { return &m.brokenSymbol }

var (
	_ symkit.Namespace   = (*indexedNamespace)(nil)
	_ symkit.ArrayType   = (*indexedArray)(nil)
	_ symkit.GenericType = (*indexedGeneric)(nil)
	_ symkit.Arity       = (*indexedGeneric)(nil)
)
