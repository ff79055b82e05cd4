// Package grammar models context-free grammars: symbols, productions and a
// start symbol. A Grammar is built once and never mutated afterwards, so a
// single value can back any number of concurrent parses.
package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// Kind distinguishes terminals from nonterminals.
type Kind int

const (
	Terminal Kind = iota
	Nonterminal
)

func (k Kind) String() string {
	if k == Nonterminal {
		return "nonterminal"
	}
	return "terminal"
}

// Symbol is a grammar symbol. Terminals match input tokens directly;
// nonterminals are defined by one or more productions.
type Symbol struct {
	Name string
	Kind Kind
}

// T returns a terminal symbol.
func T(name string) Symbol {
	return Symbol{Name: name, Kind: Terminal}
}

// NT returns a nonterminal symbol.
func NT(name string) Symbol {
	return Symbol{Name: name, Kind: Nonterminal}
}

func (s Symbol) IsTerminal() bool {
	return s.Kind == Terminal
}

func (s Symbol) String() string {
	return s.Name
}

// Rule is the input form of a production, before the grammar assigns it an ID.
type Rule struct {
	LHS string
	RHS []Symbol
}

// Production is a rule owned by a Grammar. ID is its index in declaration
// order and is stable for the lifetime of the grammar.
type Production struct {
	ID  int
	LHS Symbol
	RHS []Symbol
}

// Len returns the number of right-hand side symbols.
func (p *Production) Len() int {
	return len(p.RHS)
}

func (p *Production) String() string {
	var sb strings.Builder
	sb.WriteString(p.LHS.Name)
	sb.WriteString(" ->")
	for _, sym := range p.RHS {
		sb.WriteByte(' ')
		sb.WriteString(sym.Name)
	}
	return sb.String()
}

// Grammar is an immutable context-free grammar.
type Grammar struct {
	start       Symbol
	productions []*Production
	byLHS       map[string][]*Production
	terminals   []string
	nullable    map[string]bool
}

// New builds a grammar from rules. It fails with an *Error when the start
// symbol is undefined, a rule is malformed, or a right-hand side refers to
// a nonterminal that has no productions.
func New(start string, rules []Rule) (*Grammar, error) {
	if start == "" {
		return nil, &Error{Msg: "missing start symbol"}
	}

	g := &Grammar{
		start:    NT(start),
		byLHS:    make(map[string][]*Production),
		nullable: make(map[string]bool),
	}

	seen := make(map[string]bool)
	for i, r := range rules {
		if r.LHS == "" {
			return nil, &Error{Msg: fmt.Sprintf("rule %d: empty left-hand side", i+1)}
		}
		rhs := make([]Symbol, len(r.RHS))
		for j, sym := range r.RHS {
			if sym.Name == "" {
				return nil, &Error{Msg: fmt.Sprintf("rule %d (%s): symbol %d has no name", i+1, r.LHS, j+1)}
			}
			rhs[j] = sym
		}
		p := &Production{ID: len(g.productions), LHS: NT(r.LHS), RHS: rhs}
		// A repeated rule is the same production, not a second derivation.
		key := ruleKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		g.productions = append(g.productions, p)
		g.byLHS[r.LHS] = append(g.byLHS[r.LHS], p)
	}

	if len(g.byLHS[start]) == 0 {
		return nil, &Error{Msg: fmt.Sprintf("start symbol %q has no productions", start)}
	}

	terminals := make(map[string]bool)
	for _, p := range g.productions {
		for _, sym := range p.RHS {
			_, defined := g.byLHS[sym.Name]
			switch {
			case sym.Kind == Nonterminal && !defined:
				return nil, &Error{Msg: fmt.Sprintf("production %q: nonterminal %q has no productions", p, sym.Name)}
			case sym.Kind == Terminal && defined:
				return nil, &Error{Msg: fmt.Sprintf("production %q: %q is used as a terminal but has productions", p, sym.Name)}
			case sym.Kind == Terminal:
				terminals[sym.Name] = true
			}
		}
	}
	for name := range terminals {
		g.terminals = append(g.terminals, name)
	}
	sort.Strings(g.terminals)

	g.computeNullable()
	return g, nil
}

func ruleKey(p *Production) string {
	var sb strings.Builder
	sb.WriteString(p.LHS.Name)
	for _, sym := range p.RHS {
		fmt.Fprintf(&sb, "\x00%d%s", sym.Kind, sym.Name)
	}
	return sb.String()
}

// MustNew is like New but panics on error. It is meant for grammars that
// are fixed at compile time.
func MustNew(start string, rules []Rule) *Grammar {
	g, err := New(start, rules)
	if err != nil {
		panic(err)
	}
	return g
}

// computeNullable iterates to a fixpoint: a nonterminal is nullable when one
// of its productions consists only of nullable nonterminals.
func (g *Grammar) computeNullable() {
	for changed := true; changed; {
		changed = false
		for _, p := range g.productions {
			if g.nullable[p.LHS.Name] {
				continue
			}
			all := true
			for _, sym := range p.RHS {
				if sym.IsTerminal() || !g.nullable[sym.Name] {
					all = false
					break
				}
			}
			if all {
				g.nullable[p.LHS.Name] = true
				changed = true
			}
		}
	}
}

// Start returns the start symbol.
func (g *Grammar) Start() Symbol {
	return g.start
}

// Productions returns all productions in declaration order.
func (g *Grammar) Productions() []*Production {
	return g.productions
}

// Production returns the production with the given ID, or nil.
func (g *Grammar) Production(id int) *Production {
	if id < 0 || id >= len(g.productions) {
		return nil
	}
	return g.productions[id]
}

// ProductionsFor returns the alternatives of a nonterminal in declaration order.
func (g *Grammar) ProductionsFor(name string) []*Production {
	return g.byLHS[name]
}

// IsNonterminal reports whether name has at least one production.
func (g *Grammar) IsNonterminal(name string) bool {
	_, ok := g.byLHS[name]
	return ok
}

// Nullable reports whether the nonterminal can derive the empty string.
func (g *Grammar) Nullable(name string) bool {
	return g.nullable[name]
}

// Nonterminals returns the nonterminal names in order of first definition.
func (g *Grammar) Nonterminals() []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range g.productions {
		if !seen[p.LHS.Name] {
			seen[p.LHS.Name] = true
			names = append(names, p.LHS.Name)
		}
	}
	return names
}

// Terminals returns the sorted terminal names.
func (g *Grammar) Terminals() []string {
	return g.terminals
}

// Unreachable returns the nonterminals that cannot be derived from the start
// symbol, in order of first definition.
func (g *Grammar) Unreachable() []string {
	reached := map[string]bool{g.start.Name: true}
	queue := []string{g.start.Name}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, p := range g.byLHS[name] {
			for _, sym := range p.RHS {
				if sym.Kind == Nonterminal && !reached[sym.Name] {
					reached[sym.Name] = true
					queue = append(queue, sym.Name)
				}
			}
		}
	}

	var unreachable []string
	for _, name := range g.Nonterminals() {
		if !reached[name] {
			unreachable = append(unreachable, name)
		}
	}
	return unreachable
}

func (g *Grammar) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Nonterminals: %s\n", strings.Join(g.Nonterminals(), ", "))
	fmt.Fprintf(&sb, "Terminals: %s\n", strings.Join(g.terminals, ", "))
	sb.WriteString("Rules:\n")
	for _, p := range g.productions {
		sb.WriteString(p.String())
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "Start: %s", g.start.Name)
	return sb.String()
}
