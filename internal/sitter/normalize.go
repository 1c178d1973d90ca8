package sitter

import (
	"bytes"
	"io"
	"strings"
)

// blockKinds lists, per language, the node kinds whose contents are indented
// one level deeper when the language's layout is not bracket driven.
var blockKinds = map[string]map[string]bool{
	"python": {"block": true},
	"ruby":   {"body_statement": true, "then": true, "else": true, "do": true, "block_body": true},
}

// atomicMarkers identify nodes whose text is emitted verbatim. Several
// grammars leave string contents outside any child token, so the whitespace
// inside them must not be touched.
var atomicMarkers = []string{"string", "comment", "char", "rune", "heredoc", "regex"}

func isAtomic(kind string) bool {
	for _, m := range atomicMarkers {
		if strings.Contains(kind, m) {
			return true
		}
	}
	return false
}

// token is a leaf or atomic node together with its source range.
type token struct {
	node       *Node
	start, end uint32
}

func (n *Node) tokens() []token {
	var out []token
	var walk func(*Node)
	walk = func(c *Node) {
		if c.IsLeaf() || isAtomic(c.Kind()) {
			// Newline terminators are tokens in some grammars; they are
			// treated as gaps like any other whitespace.
			start, end := c.raw.StartByte(), c.raw.EndByte()
			if end > start && len(bytes.TrimSpace(n.tree.src[start:end])) > 0 {
				out = append(out, token{node: c, start: start, end: end})
			}
			return
		}
		for _, child := range c.children {
			walk(child)
		}
	}
	walk(n)
	return out
}

// WriteNormalized writes the node's text with whitespace normalized:
//   - a gap containing a line break becomes a single newline;
//   - any other whitespace gap becomes a single space;
//   - each line is indented with tabs by its nesting level;
//   - CRLF becomes LF and trailing whitespace is dropped.
//
// Applying it to the parse of its own output yields the same text.
func (n *Node) WriteNormalized(w io.Writer) error {
	_, err := io.WriteString(w, n.normalized())
	return err
}

func (n *Node) normalized() string {
	toks := n.tokens()
	if len(toks) == 0 {
		return ""
	}
	src := n.tree.src

	// Split tokens into lines first; indentation needs a whole line's
	// leading closers before it can be decided.
	var lines [][]token
	var seps [][]string // separator preceding each token on its line
	cur := []token{toks[0]}
	curSeps := []string{""}
	for i := 1; i < len(toks); i++ {
		gap := string(src[toks[i-1].end:toks[i].start])
		switch {
		case strings.TrimSpace(gap) != "":
			// Text no token covers; keep it as written.
			curSeps = append(curSeps, normalizeNewlines(gap))
		case strings.ContainsAny(gap, "\n\r"):
			lines = append(lines, cur)
			seps = append(seps, curSeps)
			cur, curSeps = nil, []string{""}
		case gap != "":
			curSeps = append(curSeps, " ")
		default:
			curSeps = append(curSeps, "")
		}
		cur = append(cur, toks[i])
	}
	lines = append(lines, cur)
	seps = append(seps, curSeps)

	blocks := blockKinds[n.tree.lang]
	ind := &indenter{}
	var b strings.Builder
	for li, line := range lines {
		level, skip := ind.beginLine(line)
		if blocks != nil {
			level += n.blockDepth(line[0].node, blocks)
		}
		if li > 0 {
			b.WriteByte('\n')
		}
		var lb strings.Builder
		for range level {
			lb.WriteByte('\t')
		}
		for ti, tok := range line {
			lb.WriteString(seps[li][ti])
			lb.WriteString(normalizeNewlines(string(src[tok.start:tok.end])))
			if ti >= skip {
				ind.consume(tok)
			}
		}
		b.WriteString(trimLines(lb.String()))
	}
	return b.String()
}

// blockDepth counts the block-like ancestors of tok strictly below n.
func (n *Node) blockDepth(tok *Node, blocks map[string]bool) int {
	depth := 0
	for p := tok.parent; p != nil && p != n; p = p.parent {
		if blocks[p.Kind()] {
			depth++
		}
	}
	return depth
}

// indenter tracks bracket nesting. At most one unclosed opener per line adds
// a level, so "f({" indents its body once and "f() {" indents it once too.
type indenter struct {
	stack      []bool // whether each open bracket added a level
	level      int
	openedLine bool
}

func isOpener(s string) bool { return s == "{" || s == "(" || s == "[" }
func isCloser(s string) bool { return s == "}" || s == ")" || s == "]" }

// beginLine pops the line's leading closers and returns the line's
// indentation level along with how many tokens it consumed.
func (ind *indenter) beginLine(line []token) (level, consumed int) {
	ind.openedLine = false
	for _, tok := range line {
		if !tok.node.IsLeaf() || !isCloser(tok.node.Text()) {
			break
		}
		ind.pop()
		consumed++
	}
	return ind.level, consumed
}

func (ind *indenter) consume(tok token) {
	if !tok.node.IsLeaf() {
		return
	}
	text := tok.node.Text()
	switch {
	case isOpener(text):
		adds := !ind.openedLine
		ind.stack = append(ind.stack, adds)
		if adds {
			ind.level++
			ind.openedLine = true
		}
	case isCloser(text):
		if ind.pop() {
			// The line's indenting bracket is closed again, as in "f() {".
			ind.openedLine = false
		}
	}
}

// pop closes the innermost bracket and reports whether it had added a level.
func (ind *indenter) pop() bool {
	if len(ind.stack) == 0 {
		return false
	}
	top := ind.stack[len(ind.stack)-1]
	ind.stack = ind.stack[:len(ind.stack)-1]
	if top {
		ind.level--
	}
	return top
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func trimLines(s string) string {
	if !strings.Contains(s, "\n") {
		return strings.TrimRight(s, " \t")
	}
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, " \t")
	}
	return strings.Join(parts, "\n")
}
