package format

import (
	"io"
	"strings"

	"github.com/dhamidi/earley/earley"
)

const (
	ansiReset       = "\x1b[0m"
	ansiProduction  = "\x1b[1;34m"
	ansiLeaf        = "\x1b[32m"
	textIndentation = "  "
)

// TextEncoder writes trees as indented outlines: each internal node shows
// the production it expands, each leaf its token literal. Trees are
// separated by a blank line.
type TextEncoder struct {
	w     io.Writer
	color bool
	trees []*earley.Node
}

func NewTextEncoder(w io.Writer, color bool) *TextEncoder {
	return &TextEncoder{w: w, color: color}
}

func (e *TextEncoder) Encode(trees []*earley.Node) error {
	e.trees = trees
	return write(e.w, e)
}

func (e *TextEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for i, tree := range e.trees {
		if i > 0 {
			sb.WriteByte('\n')
		}
		e.writeNode(&sb, tree, 0)
	}
	return []byte(sb.String()), nil
}

func (e *TextEncoder) writeNode(sb *strings.Builder, n *earley.Node, depth int) {
	sb.WriteString(strings.Repeat(textIndentation, depth))
	if n.IsTerminal() {
		e.paint(sb, ansiLeaf, n.Token.Literal)
		sb.WriteByte('\n')
		return
	}
	e.paint(sb, ansiProduction, n.Production.String())
	sb.WriteByte('\n')
	for _, c := range n.Children {
		e.writeNode(sb, c, depth+1)
	}
}

func (e *TextEncoder) paint(sb *strings.Builder, code, s string) {
	if !e.color {
		sb.WriteString(s)
		return
	}
	sb.WriteString(code)
	sb.WriteString(s)
	sb.WriteString(ansiReset)
}
