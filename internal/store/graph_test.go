package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/symkit"
)

// graphFixture indexes this shape for one file:
//
//	<global>
//	  Int
//	  N
//	    Outer
//	      Inner
//	        size (member)
//	    Pair`2 <Int, Inner>
//	    Pair[] (element Pair)
//	    weird (macro)
//	      Leaf
type graphFixture struct {
	s                                   *Store
	global, n, outer, inner, size, pair int64
	array, leaf                         int64
}

func newGraphFixture(t *testing.T) *graphFixture {
	t.Helper()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/n.java", "java")

	add := func(name, metadata, kind string, arity int, parent, elem *int64) int64 {
		t.Helper()
		id, err := s.InsertSymbol(&Symbol{
			FileID: &f.ID, Name: name, MetadataName: metadata, Kind: kind, Arity: arity,
			ParentSymbolID: parent, ElementSymbolID: elem,
		})
		require.NoError(t, err)
		return id
	}

	fx := &graphFixture{s: s}
	fx.global = add("", "", KindNamespace, 0, nil, nil)
	intID := add("Int", "Int", KindType, 0, &fx.global, nil)
	fx.n = add("N", "N", KindNamespace, 0, &fx.global, nil)
	fx.outer = add("Outer", "Outer", KindType, 0, &fx.n, nil)
	fx.inner = add("Inner", "Inner", KindType, 0, &fx.outer, nil)
	fx.size = add("size", "size", KindMember, 0, &fx.inner, nil)
	fx.pair = add("Pair", "Pair`2", KindType, 2, &fx.n, nil)
	fx.array = add("Pair[]", "Pair[]", KindType, 0, &fx.n, &fx.pair)
	weird := add("weird", "weird", "macro", 0, &fx.n, nil)
	fx.leaf = add("Leaf", "Leaf", KindType, 0, &weird, nil)

	for i, arg := range []int64{intID, fx.inner} {
		_, err := s.InsertTypeArgument(&TypeArgument{SymbolID: fx.pair, Ordinal: i, ArgumentSymbolID: arg})
		require.NoError(t, err)
	}
	return fx
}

func TestSymbol_FullMetadataName(t *testing.T) {
	t.Parallel()
	fx := newGraphFixture(t)

	tests := []struct {
		name string
		id   int64
		want string
	}{
		{"nested type", fx.inner, "N.Outer.Inner"},
		{"member uses enclosing type", fx.size, "N.Outer.Inner"},
		{"generic", fx.pair, "N.Pair<Int, N.Outer.Inner>"},
		{"array of generic", fx.array, "N.Pair<Int, N.Outer.Inner>[]"},
		{"namespace", fx.n, ""},
		{"global", fx.global, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := symkit.ResolveMetadataName(fx.s.Symbol(tt.id))
			assert.Equal(t, tt.want, q.Name)
			assert.True(t, q.Complete)
		})
	}
}

func TestSymbol_UnrepresentableContainerTruncates(t *testing.T) {
	t.Parallel()
	fx := newGraphFixture(t)

	q := symkit.ResolveMetadataName(fx.s.Symbol(fx.leaf))
	assert.Equal(t, "Leaf", q.Name)
	assert.False(t, q.Complete)
	assert.ErrorIs(t, q.Err, ErrUnrepresentable)
	assert.Equal(t, "Leaf", symkit.FullMetadataName(fx.s.Symbol(fx.leaf)))
}

func TestSymbol_Missing(t *testing.T) {
	t.Parallel()
	fx := newGraphFixture(t)

	sym := fx.s.Symbol(9999)
	assert.Equal(t, symkit.KindOther, sym.Kind())
	assert.Nil(t, sym.Container())
	_, err := sym.DisplayName()
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestSymbol_Shapes(t *testing.T) {
	t.Parallel()
	fx := newGraphFixture(t)

	global, ok := fx.s.Symbol(fx.global).(symkit.Namespace)
	require.True(t, ok)
	assert.True(t, global.IsGlobal())

	n, ok := fx.s.Symbol(fx.n).(symkit.Namespace)
	require.True(t, ok)
	assert.False(t, n.IsGlobal())

	arr, ok := fx.s.Symbol(fx.array).(symkit.ArrayType)
	require.True(t, ok)
	assert.Equal(t, "Pair`2", arr.Elem().MetadataName())

	pair := fx.s.Symbol(fx.pair)
	g, ok := pair.(symkit.GenericType)
	require.True(t, ok)
	assert.Len(t, g.TypeArguments(), 2)
	assert.Equal(t, 2, pair.(symkit.Arity).Arity())
	name, err := pair.DisplayName()
	require.NoError(t, err)
	assert.Equal(t, "Pair<Int, Inner>", name)

	_, isGeneric := fx.s.Symbol(fx.outer).(symkit.GenericType)
	assert.False(t, isGeneric)
	assert.Equal(t, symkit.KindMember, fx.s.Symbol(fx.size).Kind())
}

func TestSymbol_UnloadableTypeArgumentsTruncate(t *testing.T) {
	t.Parallel()
	fx := newGraphFixture(t)
	_, err := fx.s.DB().Exec("DROP TABLE type_arguments")
	require.NoError(t, err)

	pair := fx.s.Symbol(fx.pair)
	args := pair.(symkit.GenericType).TypeArguments()
	require.Len(t, args, 2)

	q := symkit.ResolveMetadataName(pair)
	assert.Equal(t, "N.Pair<, >", q.Name)
	assert.False(t, q.Complete)
	require.Error(t, q.Err)
	assert.Contains(t, q.Err.Error(), "type arguments of \"Pair\"")

	_, err = pair.DisplayName()
	assert.Error(t, err)
}
