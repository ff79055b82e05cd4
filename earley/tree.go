package earley

import (
	"strings"

	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/lex"
)

// Node is a parse tree node. Leaves carry the matched Token; internal nodes
// carry the Production they expand and one child per right-hand side symbol.
// Start and End are the token span covered by the node.
//
// Trees yielded by one Forest may share subtrees, so nodes must be treated
// as read-only.
type Node struct {
	Symbol     grammar.Symbol
	Production *grammar.Production
	Token      *lex.Token
	Children   []*Node
	Start      int
	End        int
}

// IsTerminal returns true if this is a leaf node (token).
func (n *Node) IsTerminal() bool {
	return n.Token != nil
}

// Leaves returns the tokens at the leaves from left to right.
func (n *Node) Leaves() []lex.Token {
	var leaves []lex.Token
	n.Walk(func(m *Node) bool {
		if m.IsTerminal() {
			leaves = append(leaves, *m.Token)
		}
		return true
	})
	return leaves
}

// Yield returns the concatenated literals of the leaves.
func (n *Node) Yield() string {
	return lex.Text(n.Leaves())
}

// Walk visits n and its descendants depth-first, left to right. Returning
// false from fn skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Equal reports whether two trees have the same shape, productions and leaves.
func (n *Node) Equal(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil || n.Symbol != o.Symbol || n.IsTerminal() != o.IsTerminal() {
		return false
	}
	if n.IsTerminal() {
		return n.Token.Literal == o.Token.Literal
	}
	if n.Production.ID != o.Production.ID || len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// String renders the tree in bracketed form, e.g. "(EXP (EXP n) + (EXP n))".
func (n *Node) String() string {
	var sb strings.Builder
	n.writeTo(&sb)
	return sb.String()
}

func (n *Node) writeTo(sb *strings.Builder) {
	if n.IsTerminal() {
		sb.WriteString(n.Token.Literal)
		return
	}
	sb.WriteByte('(')
	sb.WriteString(n.Symbol.Name)
	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.writeTo(sb)
	}
	sb.WriteByte(')')
}
