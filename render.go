package symkit

import (
	"io"
	"strings"
)

// Renderable is a node that can write its whitespace-normalized source text.
// The adapter's formatter owns the normalization rules.
type Renderable interface {
	WriteNormalized(w io.Writer) error
}

// RenderNode returns the whitespace-normalized source text of n.
func RenderNode(n Renderable) (string, error) {
	var b strings.Builder
	if err := n.WriteNormalized(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}
