package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"
	"github.com/rs/zerolog"

	"github.com/jward/symkit"
	"github.com/jward/symkit/internal/store"
)

// makeQualifiedNameFn creates "qualified_name". A truncated name is still
// returned, and the cause is logged.
//
// qualified_name(symbol_id) → string
func makeQualifiedNameFn(s *store.Store, logger zerolog.Logger) *object.Builtin {
	return object.NewBuiltin("qualified_name", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("qualified_name", 1, len(args))
		}
		id, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("qualified_name: %v", err)
		}

		q := symkit.ResolveMetadataName(s.Symbol(id))
		if !q.Complete {
			logger.Warn().Err(q.Err).Int64("symbol", id).Str("name", q.Name).Msg("qualified name truncated")
		}
		return object.NewString(q.Name)
	})
}

func makeSymbolsByNameFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("symbols_by_name", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbols_by_name", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("symbols_by_name: %v", err)
		}

		syms, queryErr := s.SymbolsByName(name)
		if queryErr != nil {
			return object.Errorf("symbols_by_name: %v", queryErr)
		}
		return symbolsToList(syms)
	})
}

func makeSymbolsByKindFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("symbols_by_kind", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbols_by_kind", 1, len(args))
		}
		kind, err := toString(args[0])
		if err != nil {
			return object.Errorf("symbols_by_kind: %v", err)
		}

		syms, queryErr := s.SymbolsByKind(kind)
		if queryErr != nil {
			return object.Errorf("symbols_by_kind: %v", queryErr)
		}
		return symbolsToList(syms)
	})
}

func makeSymbolChildrenFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("symbol_children", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbol_children", 1, len(args))
		}
		id, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("symbol_children: %v", err)
		}

		syms, queryErr := s.SymbolChildren(id)
		if queryErr != nil {
			return object.Errorf("symbol_children: %v", queryErr)
		}
		return symbolsToList(syms)
	})
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

// symbolsToList converts symbol rows to a Risor list of maps.
func symbolsToList(syms []*store.Symbol) object.Object {
	results := make([]object.Object, 0, len(syms))
	for _, sym := range syms {
		m := map[string]object.Object{
			"id":            object.NewInt(sym.ID),
			"name":          object.NewString(sym.Name),
			"metadata_name": object.NewString(sym.MetadataName),
			"kind":          object.NewString(sym.Kind),
			"arity":         object.NewInt(int64(sym.Arity)),
			"start_line":    object.NewInt(int64(sym.StartLine)),
			"start_col":     object.NewInt(int64(sym.StartCol)),
			"end_line":      object.NewInt(int64(sym.EndLine)),
			"end_col":       object.NewInt(int64(sym.EndCol)),
		}
		if sym.FileID != nil {
			m["file_id"] = object.NewInt(*sym.FileID)
		}
		if sym.ParentSymbolID != nil {
			m["parent_symbol_id"] = object.NewInt(*sym.ParentSymbolID)
		}
		if sym.ElementSymbolID != nil {
			m["element_symbol_id"] = object.NewInt(*sym.ElementSymbolID)
		}
		results = append(results, object.NewMap(m))
	}
	return object.NewList(results)
}
