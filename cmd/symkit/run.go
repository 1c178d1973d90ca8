package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/symkit/internal/runtime"
	"github.com/jward/symkit/internal/store"
)

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.risor> [file]",
		Short: "Run a Risor script with the tree and symbol helpers",
		Long: "Runs a Risor script. The script sees the global \"file\" (the optional second argument) and the " +
			"helpers parse, find_descendants, find_ancestor, render_node and emit. When an index exists, " +
			"qualified_name and symbols_by_name are available too. Emitted values are printed as the result.",
		Args: cobra.RangeArgs(1, 2),
		RunE: a.runScript,
	}
}

func (a *app) runScript(cmd *cobra.Command, args []string) error {
	script, err := filepath.Abs(args[0])
	if err != nil {
		return a.outputError("run", err)
	}

	var s *store.Store
	if st, err := a.openExistingStore(); err == nil {
		s = st
		defer s.Close()
	} else {
		a.logger.Debug().Err(err).Msg("running without an index")
	}

	globals := map[string]any{"file": ""}
	if len(args) == 2 {
		file, err := filepath.Abs(args[1])
		if err != nil {
			return a.outputError("run", err)
		}
		if _, err := os.Stat(file); err != nil {
			return a.outputError("run", err)
		}
		globals["file"] = file
	}

	rt := runtime.NewRuntime(s, filepath.Dir(script), runtime.WithRuntimeLogger(a.logger))
	if err := rt.RunScript(context.Background(), script, globals); err != nil {
		return a.outputError("run", err)
	}

	results := rt.Results()
	if results == nil {
		results = []any{}
	}
	return a.outputResult(CLIResult{Command: "run", Results: results})
}
