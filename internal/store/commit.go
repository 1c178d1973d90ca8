package store

import (
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// IDs, and every reference within the batch is rewritten through the
// fakeToReal mapping.
//
// Symbols are inserted in buffer order, so a parent or element symbol must
// be buffered before the symbols that point at it. Type arguments go last.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64, len(batch.Symbols))

	for _, sym := range batch.Symbols {
		sym.ParentSymbolID = remap(sym.ParentSymbolID, fakeToReal)
		sym.ElementSymbolID = remap(sym.ElementSymbolID, fakeToReal)
		realID, err := insertSymbol(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	for _, ta := range batch.TypeArguments {
		for _, id := range []*int64{&ta.SymbolID, &ta.ArgumentSymbolID} {
			if *id >= 0 {
				continue
			}
			realID, ok := fakeToReal[*id]
			if !ok {
				return fmt.Errorf("commit batch: type argument refers to unknown symbol %d", *id)
			}
			*id = realID
		}
		if _, err := insertTypeArgument(tx, &ta); err != nil {
			return fmt.Errorf("commit batch: type argument: %w", err)
		}
	}

	return tx.Commit()
}
