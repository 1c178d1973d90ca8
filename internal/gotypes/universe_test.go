package gotypes

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/symkit"
)

const shapesSource = `package shapes

type Point struct {
	X, Y int
}

type Pair[K comparable, V any] struct {
	Key K
	Val V
}

type Grid struct {
	Cells [][]Point
	Index Pair[string, Point]
	Names []string
}

func (p *Point) Scale(f int) int {
	total := p.X * f
	return total
}

func Area(g Grid) int {
	type cell struct{ n int }
	var c cell
loop:
	for {
		break loop
	}
	return c.n + len(g.Names)
}

var hook = func() int {
	type hidden struct{}
	var h hidden
	_ = h
	return 0
}
`

func checkShapes(t *testing.T) (*Universe, *types.Info) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "shapes.go", shapesSource, 0)
	require.NoError(t, err)

	info := &types.Info{
		Defs:   make(map[*ast.Ident]types.Object),
		Types:  make(map[ast.Expr]types.TypeAndValue),
		Scopes: make(map[ast.Node]*types.Scope),
	}
	pkg, err := (&types.Config{}).Check("shapes", fset, []*ast.File{f}, info)
	require.NoError(t, err)
	return NewUniverse(pkg, info, []*ast.File{f}), info
}

// def finds the object declared under a name that occurs once in the source.
func def(t *testing.T, info *types.Info, name string) types.Object {
	t.Helper()
	for id, obj := range info.Defs {
		if id.Name == name && obj != nil {
			return obj
		}
	}
	t.Fatalf("no definition named %q", name)
	return nil
}

func fieldType(t *testing.T, u *Universe, typeName, field string) types.Type {
	t.Helper()
	obj := u.pkg.Scope().Lookup(typeName)
	require.NotNil(t, obj)
	st := obj.Type().Underlying().(*types.Struct)
	for i := 0; i < st.NumFields(); i++ {
		if st.Field(i).Name() == field {
			return st.Field(i).Type()
		}
	}
	t.Fatalf("%s has no field %s", typeName, field)
	return nil
}

func TestUniverse_TypeNames(t *testing.T) {
	t.Parallel()
	u, _ := checkShapes(t)
	if diff := cmp.Diff([]string{"Grid", "Pair", "Point"}, u.TypeNames()); diff != "" {
		t.Errorf("TypeNames mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "shapes", u.Path())
}

func TestFullMetadataName_GoShapes(t *testing.T) {
	t.Parallel()
	u, info := checkShapes(t)

	tests := []struct {
		name string
		sym  symkit.Symbol
		want string
	}{
		{"named type", u.Lookup("Point"), "shapes.Point"},
		{"generic type", u.Lookup("Pair"), "shapes.Pair<K, V>"},
		{"instantiated type", u.Type(fieldType(t, u, "Grid", "Index")), "shapes.Pair<string, shapes.Point>"},
		{"nested slices", u.Type(fieldType(t, u, "Grid", "Cells")), "shapes.Point[][]"},
		{"slice of basic", u.Type(fieldType(t, u, "Grid", "Names")), "string[]"},
		{"field", u.Object(def(t, info, "X")), "shapes.Point"},
		{"method", u.Object(def(t, info, "Scale")), "shapes.Point"},
		{"parameter", u.Object(def(t, info, "f")), "shapes.Point"},
		{"local", u.Object(def(t, info, "total")), "shapes.Point"},
		{"local type", u.Object(def(t, info, "cell")), "shapes.Area.cell"},
		{"package function", u.Lookup("Area"), ""},
		{"package", u.Package(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := symkit.ResolveMetadataName(tt.sym)
			assert.Equal(t, tt.want, q.Name)
			assert.True(t, q.Complete)
		})
	}
}

func TestFullMetadataName_ClosureTruncates(t *testing.T) {
	t.Parallel()
	u, info := checkShapes(t)

	q := symkit.ResolveMetadataName(u.Object(def(t, info, "hidden")))
	assert.Equal(t, "hidden", q.Name)
	assert.False(t, q.Complete)
	assert.ErrorIs(t, q.Err, ErrUnsupportedShape)
}

func TestObject_Kinds(t *testing.T) {
	t.Parallel()
	u, info := checkShapes(t)

	tests := []struct {
		name string
		want symkit.SymbolKind
	}{
		{"Point", symkit.KindType},
		{"Scale", symkit.KindMember},
		{"Key", symkit.KindMember},
		{"hook", symkit.KindMember},
		{"p", symkit.KindParameter},
		{"g", symkit.KindParameter},
		{"total", symkit.KindLocal},
		{"c", symkit.KindLocal},
		{"loop", symkit.KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, u.Object(def(t, info, tt.name)).Kind())
		})
	}
}

func TestGenericType_Arity(t *testing.T) {
	t.Parallel()
	u, _ := checkShapes(t)

	pair := u.Lookup("Pair")
	g, ok := pair.(symkit.GenericType)
	require.True(t, ok)
	assert.Equal(t, "Pair`2", g.MetadataName())
	assert.Equal(t, 2, g.(symkit.Arity).Arity())
	assert.Len(t, g.TypeArguments(), 2)

	name, err := pair.DisplayName()
	require.NoError(t, err)
	assert.Equal(t, "Pair[K, V]", name)

	inst := u.Type(fieldType(t, u, "Grid", "Index"))
	name, err = inst.DisplayName()
	require.NoError(t, err)
	assert.Equal(t, "Pair[string, Point]", name)

	assert.Equal(t, "Point", u.Lookup("Point").MetadataName())
}

func TestDisplayName_UnsupportedShapes(t *testing.T) {
	t.Parallel()
	u, info := checkShapes(t)

	_, err := u.Object(def(t, info, "loop")).DisplayName()
	require.ErrorIs(t, err, ErrUnsupportedShape)

	name, err := u.Object(def(t, info, "total")).DisplayName()
	require.NoError(t, err)
	assert.Equal(t, "total", name)

	assert.Nil(t, u.Object(nil))
	assert.Nil(t, u.Type(nil))
	assert.Nil(t, u.Lookup("Missing"))
}

func TestContainers(t *testing.T) {
	t.Parallel()
	u, info := checkShapes(t)

	pkg := u.Package()
	ns, ok := pkg.(symkit.Namespace)
	require.True(t, ok)
	assert.False(t, ns.IsGlobal())

	global, ok := pkg.Container().(symkit.Namespace)
	require.True(t, ok)
	assert.True(t, global.IsGlobal())
	assert.Nil(t, global.Container())

	assert.Equal(t, "Area", u.Object(def(t, info, "c")).Container().MetadataName())
	assert.Equal(t, "Point", u.Object(def(t, info, "Y")).Container().MetadataName())
}
