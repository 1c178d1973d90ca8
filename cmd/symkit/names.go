package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jward/symkit"
	"github.com/jward/symkit/internal/gotypes"
	"github.com/jward/symkit/internal/store"
)

func (a *app) namesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Print fully-qualified names of indexed symbols",
		Long:  "Prints the metadata-style qualified name of each indexed symbol, e.g. \"N.Outer.Inner\" or \"N.Pair<K, V>\". Names whose containers could not be named are flagged as truncated.",
		Args:  cobra.NoArgs,
		RunE:  a.runNames,
	}
	cmd.Flags().String("kind", store.KindType, "symbol kind: namespace|type|member|local|parameter")
	cmd.Flags().String("name", "", "only symbols with this simple name")
	return cmd
}

func (a *app) runNames(cmd *cobra.Command, args []string) error {
	s, err := a.openExistingStore()
	if err != nil {
		return a.outputError("names", err)
	}
	defer s.Close()

	var rows []*store.Symbol
	if name := a.v.GetString("name"); name != "" {
		rows, err = s.SymbolsByName(name)
	} else {
		rows, err = s.SymbolsByKind(a.v.GetString("kind"))
	}
	if err != nil {
		return a.outputError("names", err)
	}

	files, err := s.Files()
	if err != nil {
		return a.outputError("names", err)
	}
	paths := make(map[int64]string, len(files))
	for _, f := range files {
		paths[f.ID] = f.Path
	}

	out := make([]CLIName, 0, len(rows))
	for _, row := range rows {
		n := a.qualify(s.Symbol(row.ID), row.Name, row.Kind)
		n.ID = row.ID
		n.StartLine, n.StartCol = row.StartLine, row.StartCol
		if row.FileID != nil {
			n.File = paths[*row.FileID]
		}
		out = append(out, n)
	}
	return a.outputResult(CLIResult{Command: "names", Results: out})
}

// qualify resolves sym's qualified name, warning when it is truncated.
func (a *app) qualify(sym symkit.Symbol, name, kind string) CLIName {
	q := symkit.ResolveMetadataName(sym)
	n := CLIName{Name: name, Kind: kind, QualifiedName: q.Name}
	if !q.Complete {
		n.Truncated = true
		if q.Err != nil {
			n.Reason = q.Err.Error()
		}
		a.logger.Warn().Err(q.Err).Str("symbol", name).Str("qualified", q.Name).Msg("qualified name truncated")
	}
	return n
}

func (a *app) goNamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gonames [pattern...]",
		Short: "Print qualified names of Go package-level types",
		Long:  "Loads Go packages with full type information and prints the qualified metadata name of every package-level type. Patterns default to ./...",
		RunE:  a.runGoNames,
	}
	cmd.Flags().String("dir", ".", "directory the patterns are resolved in")
	return cmd
}

func (a *app) runGoNames(cmd *cobra.Command, args []string) error {
	universes, err := gotypes.Load(context.Background(), a.v.GetString("dir"), args...)
	if err != nil {
		return a.outputError("gonames", err)
	}

	var out []CLIName
	for _, u := range universes {
		a.logger.Debug().Str("package", u.Path()).Msg("loaded")
		for _, name := range u.TypeNames() {
			sym := u.Lookup(name)
			if sym == nil {
				continue
			}
			out = append(out, a.qualify(sym, name, sym.Kind().String()))
		}
	}
	if out == nil {
		out = []CLIName{}
	}
	return a.outputResult(CLIResult{Command: "gonames", Results: out})
}
