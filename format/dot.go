package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/earley/earley"
)

// DOTEncoder writes each tree as a Graphviz digraph. Nodes are numbered in
// post-order starting at 1 and edges point from parent to child.
type DOTEncoder struct {
	w     io.Writer
	trees []*earley.Node
}

func NewDOTEncoder(w io.Writer) *DOTEncoder {
	return &DOTEncoder{w: w}
}

func (e *DOTEncoder) Encode(trees []*earley.Node) error {
	e.trees = trees
	return write(e.w, e)
}

func (e *DOTEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	for _, tree := range e.trees {
		WriteDOT(&sb, tree)
	}
	return []byte(sb.String()), nil
}

// WriteDOT writes a single tree as a digraph named G.
func WriteDOT(sb *strings.Builder, root *earley.Node) {
	sb.WriteString("digraph G{\n")
	id := 0
	writeSubtree(sb, root, &id)
	sb.WriteString("}\n")
}

func writeSubtree(sb *strings.Builder, n *earley.Node, id *int) int {
	children := make([]int, len(n.Children))
	for i, c := range n.Children {
		children[i] = writeSubtree(sb, c, id)
	}
	*id++

	fmt.Fprintf(sb, "%d [label=%s]\n", *id, dotQuote(label(n)))
	for _, child := range children {
		fmt.Fprintf(sb, "%d -> %d\n", *id, child)
	}
	return *id
}

func label(n *earley.Node) string {
	if n.IsTerminal() {
		return n.Token.Literal
	}
	return n.Symbol.Name
}

func dotQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
