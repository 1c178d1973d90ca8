package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/symkit"
	"github.com/jward/symkit/internal/sitter"
)

func (a *app) findCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <file> <kind>...",
		Short: "List the outermost nodes of the given kinds",
		Long: "Searches the file's syntax tree for nodes of the given kinds. A match is not searched further, " +
			"and subtrees rooted at an --exclude kind are skipped. All line and column numbers are 0-based.",
		Args: cobra.MinimumNArgs(2),
		RunE: a.runFind,
	}
	cmd.Flags().StringSlice("exclude", nil, "node kinds whose subtrees are skipped")
	return cmd
}

func (a *app) runFind(cmd *cobra.Command, args []string) error {
	tree, file, err := a.parseFileArg(args[0])
	if err != nil {
		return a.outputError("find", err)
	}
	defer tree.Close()

	var excluded []symkit.Node
	if kinds := splitList(a.v.GetStringSlice("exclude")); len(kinds) > 0 {
		excluded = symkit.FindDescendantsOfKind(tree.Root(), kinds)
	}
	matches := symkit.FindDescendantsOfKind(tree.Root(), args[1:], excluded...)

	out := make([]CLINode, 0, len(matches))
	for _, n := range sitter.Nodes(matches) {
		cn, err := toCLINode(file, n)
		if err != nil {
			return a.outputError("find", err)
		}
		out = append(out, cn)
	}
	return a.outputResult(CLIResult{Command: "find", Results: out})
}

func (a *app) ancestorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ancestor <file> <line> <col> <kind>...",
		Short: "Print the nearest node of the given kinds enclosing a position",
		Long:  "Finds the smallest named node at the 0-based position and walks up to the nearest node of one of the kinds, the node itself included.",
		Args:  cobra.MinimumNArgs(4),
		RunE:  a.runAncestor,
	}
}

func (a *app) runAncestor(cmd *cobra.Command, args []string) error {
	tree, file, err := a.parseFileArg(args[0])
	if err != nil {
		return a.outputError("ancestor", err)
	}
	defer tree.Close()

	at, err := nodeAtArgs(tree, args[1], args[2])
	if err != nil {
		return a.outputError("ancestor", err)
	}

	anc := symkit.FindNearestAncestorOfKind(at, args[3:]...)
	if anc == nil {
		return a.outputResult(CLIResult{Command: "ancestor", Results: (*CLINode)(nil)})
	}
	sn, _ := sitter.AsNode(anc)
	cn, err := toCLINode(file, sn)
	if err != nil {
		return a.outputError("ancestor", err)
	}
	return a.outputResult(CLIResult{Command: "ancestor", Results: &cn})
}

func (a *app) renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <file> [line col]",
		Short: "Print the normalized text of a file or of the node at a position",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("accepts <file> or <file> <line> <col>, received %d arg(s)", len(args))
			}
			return nil
		},
		RunE: a.runRender,
	}
}

func (a *app) runRender(cmd *cobra.Command, args []string) error {
	tree, file, err := a.parseFileArg(args[0])
	if err != nil {
		return a.outputError("render", err)
	}
	defer tree.Close()

	n := tree.Root()
	if len(args) == 3 {
		if n, err = nodeAtArgs(tree, args[1], args[2]); err != nil {
			return a.outputError("render", err)
		}
	}

	cn, err := toCLINode(file, n)
	if err != nil {
		return a.outputError("render", err)
	}
	if a.format() == "text" {
		return a.outputResult(CLIResult{Command: "render", Results: cn.Text})
	}
	return a.outputResult(CLIResult{Command: "render", Results: &cn})
}

// parseFileArg parses the file named by a command argument.
func (a *app) parseFileArg(arg string) (*sitter.Tree, string, error) {
	file, err := filepath.Abs(arg)
	if err != nil {
		return nil, "", fmt.Errorf("resolving file path %q: %w", arg, err)
	}
	tree, err := sitter.ParseFile(context.Background(), file)
	if err != nil {
		return nil, "", err
	}
	a.logger.Debug().Str("file", file).Str("language", tree.Language()).Int("nodes", tree.Len()).Msg("parsed")
	return tree, file, nil
}

// nodeAtArgs returns the node at the line and column given as arguments.
func nodeAtArgs(tree *sitter.Tree, lineArg, colArg string) (*sitter.Node, error) {
	line, err := parseIntArg(lineArg, "line")
	if err != nil {
		return nil, err
	}
	col, err := parseIntArg(colArg, "col")
	if err != nil {
		return nil, err
	}
	n := tree.NodeAt(line, col)
	if n == nil {
		return nil, fmt.Errorf("no node at %d:%d", line, col)
	}
	return n, nil
}

func toCLINode(file string, n *sitter.Node) (CLINode, error) {
	text, err := symkit.RenderNode(n)
	if err != nil {
		return CLINode{}, fmt.Errorf("rendering %s: %w", n, err)
	}
	cn := CLINode{Kind: n.Kind(), File: file, Text: text}
	cn.StartLine, cn.StartCol = n.Start()
	cn.EndLine, cn.EndCol = n.End()
	return cn, nil
}

// parseIntArg parses a positional argument as a non-negative integer.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}
