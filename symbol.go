package symkit

import (
	"strings"
)

// SymbolKind classifies a symbol for the purpose of name building.
type SymbolKind int

const (
	KindOther SymbolKind = iota
	KindNamespace
	KindType
	KindMember
	KindLocal
	KindParameter
)

var symbolKindNames = [...]string{
	KindOther:     "other",
	KindNamespace: "namespace",
	KindType:      "type",
	KindMember:    "member",
	KindLocal:     "local",
	KindParameter: "parameter",
}

func (k SymbolKind) String() string {
	if k >= 0 && int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "unknown"
}

// Symbol is a named program entity in a semantic graph owned by an adapter.
type Symbol interface {
	Kind() SymbolKind
	// MetadataName is the raw name as the front end records it, which for
	// generic types may carry a backtick arity suffix ("Pair`2").
	MetadataName() string
	// Container returns the enclosing symbol, or nil past the root.
	Container() Symbol
	// DisplayName renders the symbol in minimally-qualified form. It may
	// fail for symbol shapes the adapter cannot render.
	DisplayName() (string, error)
}

// Namespace is implemented by namespace symbols. The global namespace ends a
// containment walk.
type Namespace interface {
	Symbol
	IsGlobal() bool
}

// ArrayType is implemented by array type symbols.
type ArrayType interface {
	Symbol
	Elem() Symbol
}

// GenericType is implemented by named type symbols that may carry type
// arguments.
type GenericType interface {
	Symbol
	TypeArguments() []Symbol
}

// Arity is implemented by symbols that know their generic arity directly.
// When present it replaces the backtick check on the metadata name.
type Arity interface {
	Arity() int
}

// QualifiedName is the outcome of building a metadata name. Complete is
// false when a display name failed somewhere in the walk; Name then holds
// only the part assembled before the failure and Err holds the cause.
type QualifiedName struct {
	Name     string
	Complete bool
	Err      error
}

func (q QualifiedName) String() string { return q.Name }

// FullMetadataName returns the fully-qualified, metadata-style name of s,
// e.g. "N.Outer.Inner", "N.Pair<System.Int32, System.String>" or "N.Foo[]".
// Non-type symbols are named after their nearest enclosing type. Namespaces
// and nil yield "". A display-name failure truncates the result silently;
// use ResolveMetadataName to observe it.
func FullMetadataName(s Symbol) string {
	return ResolveMetadataName(s).Name
}

// ResolveMetadataName is FullMetadataName reporting whether the name is
// complete.
func ResolveMetadataName(s Symbol) QualifiedName {
	if s == nil || s.Kind() == KindNamespace {
		return QualifiedName{Complete: true}
	}

	for s != nil && s.Kind() != KindType {
		s = s.Container()
	}
	if s == nil {
		return QualifiedName{Complete: true}
	}

	q := typeLevelName(s)
	segments := []string{q.Name}

	for c := s.Container(); !isRootNamespace(c); c = c.Container() {
		name, err := c.DisplayName()
		if err != nil {
			q.Complete = false
			if q.Err == nil {
				q.Err = err
			}
			break
		}
		segments = append(segments, name)
	}

	q.Name = joinReversed(segments, ".")
	return q
}

// typeLevelName renders a type symbol without its containers.
func typeLevelName(s Symbol) QualifiedName {
	if arr, ok := s.(ArrayType); ok {
		elem := ResolveMetadataName(arr.Elem())
		elem.Name += "[]"
		return elem
	}

	name := s.MetadataName()
	g, ok := s.(GenericType)
	if !ok {
		return QualifiedName{Name: name, Complete: true}
	}

	base, generic := splitArity(name)
	if a, ok := s.(Arity); ok {
		generic = a.Arity() > 0
	}
	if !generic {
		return QualifiedName{Name: name, Complete: true}
	}

	q := QualifiedName{Complete: true}
	args := g.TypeArguments()
	parts := make([]string, len(args))
	for i, arg := range args {
		aq := ResolveMetadataName(arg)
		parts[i] = aq.Name
		if !aq.Complete {
			q.Complete = false
			if q.Err == nil {
				q.Err = aq.Err
			}
		}
	}
	q.Name = base + "<" + strings.Join(parts, ", ") + ">"
	return q
}

// splitArity splits a metadata name of the form "Name`N" into "Name" and
// reports whether the suffix was present. Only the presence matters; the
// digits are discarded.
func splitArity(name string) (string, bool) {
	base, _, found := strings.Cut(name, "`")
	return base, found
}

func isRootNamespace(s Symbol) bool {
	if s == nil {
		return true
	}
	ns, ok := s.(Namespace)
	return ok && ns.IsGlobal()
}

func joinReversed(segments []string, sep string) string {
	var b strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString(segments[i])
		if i > 0 {
			b.WriteString(sep)
		}
	}
	return b.String()
}
