package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, hash, line_count, last_indexed) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("store: insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

const fileCols = "id, path, language, hash, line_count, last_indexed"

// FileByPath returns the file indexed under path, or nil when there is none.
func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path).
		Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: file by path: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("store: files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("store: scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbol(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("store: insert symbol %q: %w", sym.Name, err)
	}
	sym.ID = id
	return id, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertSymbol(db execer, sym *Symbol) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO symbols (file_id, name, metadata_name, kind, arity,
			start_line, start_col, end_line, end_col, parent_symbol_id, element_symbol_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.MetadataName, sym.Kind, sym.Arity,
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
		sym.ParentSymbolID, sym.ElementSymbolID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// symbolCols is the column list scanSymbol expects.
const symbolCols = `id, file_id, name, metadata_name, kind, arity,
	start_line, start_col, end_line, end_col, parent_symbol_id, element_symbol_id`

func scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	err := scanner.Scan(
		&sym.ID, &sym.FileID, &sym.Name, &sym.MetadataName, &sym.Kind, &sym.Arity,
		&sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
		&sym.ParentSymbolID, &sym.ElementSymbolID,
	)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query symbols: %w", err)
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolByID returns the symbol row with the given id, or nil when absent.
func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	sym, err := scanSymbol(s.db.QueryRow("SELECT "+symbolCols+" FROM symbols WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: symbol %d: %w", id, err)
	}
	return sym, nil
}

func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) SymbolsByName(name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE name = ? ORDER BY id", name)
}

func (s *Store) SymbolsByKind(kind string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE kind = ? ORDER BY id", kind)
}

func (s *Store) SymbolChildren(symbolID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+symbolCols+" FROM symbols WHERE parent_symbol_id = ? ORDER BY id", symbolID)
}

// --- Type argument operations ---

func (s *Store) InsertTypeArgument(ta *TypeArgument) (int64, error) {
	id, err := insertTypeArgument(s.db, ta)
	if err != nil {
		return 0, fmt.Errorf("store: insert type argument: %w", err)
	}
	ta.ID = id
	return id, nil
}

func insertTypeArgument(db execer, ta *TypeArgument) (int64, error) {
	res, err := db.Exec(
		"INSERT INTO type_arguments (symbol_id, ordinal, argument_symbol_id) VALUES (?, ?, ?)",
		ta.SymbolID, ta.Ordinal, ta.ArgumentSymbolID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// TypeArguments returns a generic type's arguments ordered by ordinal.
func (s *Store) TypeArguments(symbolID int64) ([]*TypeArgument, error) {
	rows, err := s.db.Query(
		"SELECT id, symbol_id, ordinal, argument_symbol_id FROM type_arguments WHERE symbol_id = ? ORDER BY ordinal",
		symbolID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: type arguments: %w", err)
	}
	defer rows.Close()
	var out []*TypeArgument
	for rows.Next() {
		ta := &TypeArgument{}
		if err := rows.Scan(&ta.ID, &ta.SymbolID, &ta.Ordinal, &ta.ArgumentSymbolID); err != nil {
			return nil, fmt.Errorf("store: scan type argument: %w", err)
		}
		out = append(out, ta)
	}
	return out, rows.Err()
}
