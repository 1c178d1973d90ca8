package sitter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/symkit"
)

const goTestSource = `package main

import "fmt"

func Greet(name string) string {
	return fmt.Sprintf("Hello, %s!", name)
}

func Add(a, b int) int {
	return a + b
}

type Server struct {
	Host string
	Port int
}

func (s *Server) Address() string {
	handler := func() string {
		return fmt.Sprint(s.Port)
	}
	return fmt.Sprintf("%s:%s", s.Host, handler())
}
`

// parseGo is a test helper that parses Go source and closes the tree when
// the test ends.
func parseGo(t *testing.T, src string) *Tree {
	t.Helper()
	tree, err := Parse(context.Background(), []byte(src), "go")
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree
}

func nameOf(t *testing.T, n symkit.Node) string {
	t.Helper()
	sn, ok := AsNode(n)
	require.True(t, ok, "expected *sitter.Node, got %T", n)
	name := sn.Field("name")
	require.NotNil(t, name, "node %s has no name field", sn)
	return name.Text()
}

// --- Language detection tests ---

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"main.go", "go", true},
		{"app.ts", "typescript", true},
		{"app.tsx", "typescript", true},
		{"app.js", "javascript", true},
		{"app.mjs", "javascript", true},
		{"script.py", "python", true},
		{"lib.rs", "rust", true},
		{"main.c", "c", true},
		{"util.h", "c", true},
		{"main.cpp", "cpp", true},
		{"util.hpp", "cpp", true},
		{"App.java", "java", true},
		{"index.php", "php", true},
		{"app.rb", "ruby", true},
		{"file.txt", "", false},
		{"Makefile", "", false},
		{"path/to/file.GO", "go", true}, // case insensitive
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, ok := LanguageForFile(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrammarForLanguage(t *testing.T) {
	t.Parallel()

	for _, lang := range Languages() {
		t.Run(lang, func(t *testing.T) {
			t.Parallel()
			l, ok := GrammarForLanguage(lang)
			assert.True(t, ok)
			assert.NotNil(t, l)
		})
	}

	_, ok := GrammarForLanguage("cobol")
	assert.False(t, ok)
	assert.Len(t, Languages(), 10)
}

// --- Parsing ---

func TestParse_UnsupportedLanguage(t *testing.T) {
	t.Parallel()
	_, err := Parse(context.Background(), []byte("x"), "cobol")
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestParseFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte(goTestSource), 0o644))

	tree, err := ParseFile(context.Background(), path)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, "go", tree.Language())
	assert.Equal(t, "source_file", tree.Root().Kind())
	assert.Equal(t, goTestSource, string(tree.Source()))
	assert.Greater(t, tree.Len(), 50)

	_, err = ParseFile(context.Background(), filepath.Join(t.TempDir(), "notes.txt"))
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestNode_Structure(t *testing.T) {
	t.Parallel()
	tree := parseGo(t, goTestSource)
	root := tree.Root()

	assert.Nil(t, root.Parent())
	children := root.Children()
	require.NotEmpty(t, children)
	assert.Equal(t, "package_clause", children[0].Kind())
	for _, c := range children {
		assert.Equal(t, symkit.Node(root), c.Parent())
	}

	line, col := children[0].(*Node).Start()
	assert.Equal(t, 0, line)
	assert.Equal(t, 0, col)
}

func TestTree_WrapIsIdentity(t *testing.T) {
	t.Parallel()
	tree := parseGo(t, goTestSource)

	assert.Same(t, tree.Root(), tree.Wrap(tree.Root().Raw()))
	fn := tree.Root().NamedChildren()[2]
	assert.Same(t, fn, tree.Wrap(fn.Raw()))
	assert.Nil(t, tree.Wrap(nil))
}

// --- Helpers over tree-sitter nodes ---

func TestFindDescendantsOfKind_Go(t *testing.T) {
	t.Parallel()
	tree := parseGo(t, goTestSource)

	funcs := symkit.FindDescendantsOfKind(tree.Root(), []string{"function_declaration"})
	require.Len(t, funcs, 2)
	assert.Equal(t, "Greet", nameOf(t, funcs[0]))
	assert.Equal(t, "Add", nameOf(t, funcs[1]))

	decls := symkit.FindDescendantsOfKind(tree.Root(), []string{"function_declaration", "method_declaration", "type_declaration"})
	assert.Len(t, decls, 4)
}

func TestFindDescendantsOfKind_ExcludesFuncLiteral(t *testing.T) {
	t.Parallel()
	tree := parseGo(t, goTestSource)

	methods := symkit.FindDescendantsOfKind(tree.Root(), []string{"method_declaration"})
	require.Len(t, methods, 1)

	all := symkit.FindDescendantsOfKind(methods[0], []string{"call_expression"})
	// fmt.Sprint inside the literal, then fmt.Sprintf (whose argument
	// handler() is not searched because the outer call already matched).
	assert.Len(t, all, 2)

	lits := symkit.FindDescendantsOfKind(methods[0], []string{"func_literal"})
	require.Len(t, lits, 1)
	outside := symkit.FindDescendantsOfKind(methods[0], []string{"call_expression"}, lits...)
	require.Len(t, outside, 1)
	assert.Contains(t, outside[0].(*Node).Text(), "fmt.Sprintf")
}

func TestFindNearestAncestorOfKind_FromPosition(t *testing.T) {
	t.Parallel()
	tree := parseGo(t, goTestSource)

	// "return a + b" on line 9 (0-based), inside Add.
	n := tree.NodeAt(9, 9)
	require.NotNil(t, n)

	fn := symkit.FindNearestAncestorOfKind(n, "function_declaration", "method_declaration")
	require.NotNil(t, fn)
	assert.Equal(t, "Add", nameOf(t, fn))

	assert.Nil(t, symkit.FindNearestAncestorOfKind(n, "type_declaration"))
	assert.Nil(t, tree.NodeAt(500, 0))
	assert.Nil(t, tree.NodeAt(-1, 0))
}

func TestFindNearestAncestor_Typed(t *testing.T) {
	t.Parallel()
	tree := parseGo(t, goTestSource)

	leaf := tree.NodeAt(9, 9)
	require.NotNil(t, leaf)
	got, ok := symkit.FindNearestAncestor[*Node](leaf)
	require.True(t, ok)
	assert.Same(t, leaf, got)
}

func TestNodes(t *testing.T) {
	t.Parallel()
	tree := parseGo(t, goTestSource)

	in := tree.Root().Children()
	out := Nodes(in)
	assert.Len(t, out, len(in))

	_, ok := AsNode(nil)
	assert.False(t, ok)
}

func TestNode_FieldAll(t *testing.T) {
	t.Parallel()
	tree := parseGo(t, "package p\n\ntype Point struct {\n\tX, Y int\n}\n")

	fields := symkit.FindDescendantsOfKind(tree.Root(), []string{"field_declaration"})
	require.Len(t, fields, 1)
	var names []string
	for _, n := range fields[0].(*Node).FieldAll("name") {
		names = append(names, n.Text())
	}
	assert.Equal(t, []string{"X", "Y"}, names)
	assert.Empty(t, fields[0].(*Node).FieldAll("tag"))
}
