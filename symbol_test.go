package symkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSymbol is a configurable symbol for name-building tests.
type fakeSymbol struct {
	kind       SymbolKind
	name       string
	container  Symbol
	display    string
	displayErr error
	global     bool
}

func (s *fakeSymbol) Kind() SymbolKind { return s.kind }
func (s *fakeSymbol) MetadataName() string { return s.name }
func (s *fakeSymbol) Container() Symbol { return s.container }
func (s *fakeSymbol) IsGlobal() bool { return s.global }

func (s *fakeSymbol) DisplayName() (string, error) {
	if s.displayErr != nil {
		return "", s.displayErr
	}
	if s.display != "" {
		return s.display, nil
	}
	return s.name, nil
}

type fakeGeneric struct {
	fakeSymbol
	args []Symbol
}

func (s *fakeGeneric) TypeArguments() []Symbol { return s.args }

type fakeGenericWithArity struct {
	fakeGeneric
	arity int
}

func (s *fakeGenericWithArity) Arity() int { return s.arity }

type fakeArray struct {
	fakeSymbol
	elem Symbol
}

func (s *fakeArray) Elem() Symbol { return s.elem }

var global = &fakeSymbol{kind: KindNamespace, name: "", global: true}

func ns(name string, parent Symbol) *fakeSymbol {
	return &fakeSymbol{kind: KindNamespace, name: name, container: parent}
}

func typ(name string, parent Symbol) *fakeSymbol {
	return &fakeSymbol{kind: KindType, name: name, container: parent}
}

func TestFullMetadataName_Nesting(t *testing.T) {
	t.Parallel()
	n := ns("N", global)
	outer := typ("Outer", n)
	inner := typ("Inner", outer)

	assert.Equal(t, "N.Outer.Inner", FullMetadataName(inner))
	assert.Equal(t, "N.Outer", FullMetadataName(outer))
}

func TestFullMetadataName_NestedNamespaces(t *testing.T) {
	t.Parallel()
	sys := ns("System", global)
	coll := ns("Collections", sys)

	assert.Equal(t, "System.Collections.Queue", FullMetadataName(typ("Queue", coll)))
}

func TestFullMetadataName_NamespaceAndNil(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", FullMetadataName(nil))
	assert.Equal(t, "", FullMetadataName(ns("N", global)))
	assert.Equal(t, "", FullMetadataName(global))

	q := ResolveMetadataName(ns("N", global))
	assert.True(t, q.Complete)
	assert.NoError(t, q.Err)
}

func TestFullMetadataName_MemberUsesEnclosingType(t *testing.T) {
	t.Parallel()
	n := ns("N", global)
	outer := typ("Outer", n)
	method := &fakeSymbol{kind: KindMember, name: "Run", container: outer}
	local := &fakeSymbol{kind: KindLocal, name: "x", container: method}

	assert.Equal(t, "N.Outer", FullMetadataName(method))
	assert.Equal(t, "N.Outer", FullMetadataName(local))
}

func TestFullMetadataName_NoEnclosingType(t *testing.T) {
	t.Parallel()
	fn := &fakeSymbol{kind: KindMember, name: "main", container: ns("N", global)}
	orphan := &fakeSymbol{kind: KindLocal, name: "x"}

	// The walk passes through the namespace, which is not a type, and runs
	// off the end of the chain.
	assert.Equal(t, "", FullMetadataName(fn))
	assert.Equal(t, "", FullMetadataName(orphan))
}

func TestFullMetadataName_Generic(t *testing.T) {
	t.Parallel()
	n := ns("N", global)
	pair := &fakeGeneric{
		fakeSymbol: fakeSymbol{kind: KindType, name: "Pair`2", container: n, display: "Pair<Int, String>"},
		args:       []Symbol{typ("Int", global), typ("String", global)},
	}

	assert.Equal(t, "Pair<Int, String>", typeLevelName(pair).Name)
	assert.Equal(t, "N.Pair<Int, String>", FullMetadataName(pair))
}

func TestFullMetadataName_GenericArgumentsAreQualified(t *testing.T) {
	t.Parallel()
	sys := ns("System", global)
	list := &fakeGeneric{
		fakeSymbol: fakeSymbol{kind: KindType, name: "List`1", container: ns("Generic", ns("Collections", sys))},
		args:       []Symbol{typ("Int32", sys)},
	}

	assert.Equal(t, "System.Collections.Generic.List<System.Int32>", FullMetadataName(list))
}

func TestFullMetadataName_NamedTypeWithoutArity(t *testing.T) {
	t.Parallel()
	plain := &fakeGeneric{
		fakeSymbol: fakeSymbol{kind: KindType, name: "Plain", container: global},
		args:       []Symbol{typ("Ignored", global)},
	}

	assert.Equal(t, "Plain", FullMetadataName(plain))
}

func TestFullMetadataName_ArityDigitsIgnored(t *testing.T) {
	t.Parallel()
	// A wrong digit string does not matter; only the suffix's presence and
	// the actual type arguments do.
	odd := &fakeGeneric{
		fakeSymbol: fakeSymbol{kind: KindType, name: "Box`9", container: global},
		args:       []Symbol{typ("T", global)},
	}

	assert.Equal(t, "Box<T>", FullMetadataName(odd))
}

func TestFullMetadataName_ExplicitArity(t *testing.T) {
	t.Parallel()
	// Arity replaces the backtick check when the adapter provides it.
	generic := &fakeGenericWithArity{
		fakeGeneric: fakeGeneric{
			fakeSymbol: fakeSymbol{kind: KindType, name: "Map", container: ns("pkg", global)},
			args:       []Symbol{typ("string", global), typ("int", global)},
		},
		arity: 2,
	}
	assert.Equal(t, "pkg.Map<string, int>", FullMetadataName(generic))

	generic.arity = 0
	assert.Equal(t, "pkg.Map", FullMetadataName(generic))
}

func TestFullMetadataName_Array(t *testing.T) {
	t.Parallel()
	foo := typ("Foo", global)
	arr := &fakeArray{fakeSymbol: fakeSymbol{kind: KindType}, elem: foo}
	jagged := &fakeArray{fakeSymbol: fakeSymbol{kind: KindType}, elem: arr}

	assert.Equal(t, "Foo[]", FullMetadataName(arr))
	assert.Equal(t, "Foo[][]", FullMetadataName(jagged))
}

func TestFullMetadataName_ArrayOfQualifiedGeneric(t *testing.T) {
	t.Parallel()
	n := ns("N", global)
	pair := &fakeGeneric{
		fakeSymbol: fakeSymbol{kind: KindType, name: "Pair`2", container: n},
		args:       []Symbol{typ("A", n), typ("B", n)},
	}
	arr := &fakeArray{fakeSymbol: fakeSymbol{kind: KindType}, elem: pair}

	assert.Equal(t, "N.Pair<N.A, N.B>[]", FullMetadataName(arr))
}

func TestFullMetadataName_DisplayNameOfContainers(t *testing.T) {
	t.Parallel()
	n := ns("N", global)
	outer := &fakeSymbol{kind: KindType, name: "Outer`1", container: n, display: "Outer<T>"}
	inner := typ("Inner", outer)

	assert.Equal(t, "N.Outer<T>.Inner", FullMetadataName(inner))
}

func TestResolveMetadataName_GracefulDegrade(t *testing.T) {
	t.Parallel()
	errShape := errors.New("unsupported symbol shape")
	n := ns("N", global)
	broken := &fakeSymbol{kind: KindType, name: "Broken", container: n, displayErr: errShape}
	inner := typ("Inner", broken)
	leaf := typ("Leaf", inner)

	assert.Equal(t, "Inner.Leaf", FullMetadataName(leaf))

	q := ResolveMetadataName(leaf)
	assert.Equal(t, "Inner.Leaf", q.Name)
	assert.False(t, q.Complete)
	require.ErrorIs(t, q.Err, errShape)
	assert.Equal(t, "Inner.Leaf", q.String())
}

func TestResolveMetadataName_IncompleteTypeArgument(t *testing.T) {
	t.Parallel()
	errShape := errors.New("boom")
	bad := &fakeSymbol{kind: KindNamespace, name: "bad", displayErr: errShape}
	arg := typ("Arg", bad)
	box := &fakeGeneric{
		fakeSymbol: fakeSymbol{kind: KindType, name: "Box`1", container: ns("N", global)},
		args:       []Symbol{arg},
	}

	q := ResolveMetadataName(box)
	assert.Equal(t, "N.Box<Arg>", q.Name)
	assert.False(t, q.Complete)
	assert.ErrorIs(t, q.Err, errShape)
}

func TestResolveMetadataName_Complete(t *testing.T) {
	t.Parallel()
	q := ResolveMetadataName(typ("Inner", typ("Outer", ns("N", global))))
	assert.Equal(t, QualifiedName{Name: "N.Outer.Inner", Complete: true}, q)
}

func TestResolveMetadataName_ChainWithoutGlobal(t *testing.T) {
	t.Parallel()
	// A chain that simply ends (nil container) terminates like the global
	// namespace does.
	n := ns("N", nil)
	assert.Equal(t, "N.T", FullMetadataName(typ("T", n)))
}

func TestSymbolKind_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "namespace", KindNamespace.String())
	assert.Equal(t, "type", KindType.String())
	assert.Equal(t, "unknown", SymbolKind(99).String())
}
