package store

// DataStore is the interface for extraction-phase data access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// extraction) implement it.
type DataStore interface {
	InsertSymbol(sym *Symbol) (int64, error)
	InsertTypeArgument(ta *TypeArgument) (int64, error)

	SymbolsByName(name string) ([]*Symbol, error)
	SymbolsByFile(fileID int64) ([]*Symbol, error)
}

var _ DataStore = (*Store)(nil)
