package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatNamesText formats CLIName results as aligned columns. Truncated
// names are marked with a trailing "…".
func formatNamesText(w io.Writer, names []CLIName) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tQUALIFIED\tFILE\tLINE")
	for _, n := range names {
		qualified := n.QualifiedName
		if n.Truncated {
			qualified += " …"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", n.Kind, n.Name, qualified, n.File, n.StartLine)
	}
	tw.Flush()
}

// formatNodesText prints each node as a "file:line:col kind" header followed
// by its normalized text.
func formatNodesText(w io.Writer, nodes []CLINode) {
	for i, n := range nodes {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s:%d:%d %s\n", n.File, n.StartLine, n.StartCol, n.Kind)
		fmt.Fprintln(w, n.Text)
	}
}

func formatIndexStatsText(w io.Writer, s CLIIndexStats) {
	fmt.Fprintf(w, "Indexed %s in %s\n", s.Root, s.Duration)
	fmt.Fprintf(w, "  files: %d indexed, %d unchanged, %d failed\n", s.Indexed, s.Unchanged, s.Failed)
	fmt.Fprintf(w, "  symbols: %d\n", s.Symbols)
	fmt.Fprintf(w, "Database: %s\n", s.Database)
}

// outputResult writes result to stdout in the selected format.
func (a *app) outputResult(result CLIResult) error {
	if a.format() == "text" {
		return a.outputResultText(result)
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func (a *app) outputError(command string, err error) error {
	a.errorHandled = true
	if a.format() == "text" {
		fmt.Fprintf(a.stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

func (a *app) outputResultText(result CLIResult) error {
	w := a.stdout
	switch v := result.Results.(type) {
	case []CLIName:
		formatNamesText(w, v)
	case []CLINode:
		formatNodesText(w, v)
	case *CLINode:
		if v != nil {
			formatNodesText(w, []CLINode{*v})
		}
	case CLIIndexStats:
		formatIndexStatsText(w, v)
	case string:
		fmt.Fprintln(w, v)
	case []any:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
