package store

import "time"

type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Symbol kinds as stored in symbols.kind. They match symkit.SymbolKind's
// String values.
const (
	KindNamespace = "namespace"
	KindType      = "type"
	KindMember    = "member"
	KindLocal     = "local"
	KindParameter = "parameter"
)

type Symbol struct {
	ID           int64
	FileID       *int64
	Name         string
	MetadataName string
	Kind         string
	Arity        int
	StartLine    int
	StartCol     int
	EndLine      int
	EndCol       int

	ParentSymbolID *int64
	// ElementSymbolID is set on array types and points at the element type.
	ElementSymbolID *int64
}

// TypeArgument binds the ordinal-th type argument of a generic type symbol
// to another symbol.
type TypeArgument struct {
	ID               int64
	SymbolID         int64
	Ordinal          int
	ArgumentSymbolID int64
}
