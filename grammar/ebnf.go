package grammar

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// FromEBNF converts an EBNF grammar into plain productions rooted at start.
//
// Lexical productions (names with an upper-case initial) are not expanded;
// references to them become terminals matching tokens of that kind, as
// produced by the lex package. Token literals become terminals matching the
// token text. Groups, options, repetitions and ranges are replaced by fresh
// nonterminals named "<owner>~<kind><n>".
func FromEBNF(g ebnf.Grammar, start string) (*Grammar, error) {
	if _, ok := g[start]; !ok {
		return nil, &Error{Msg: fmt.Sprintf("missing start production %q", start)}
	}
	if isLexical(start) {
		return nil, &Error{Msg: fmt.Sprintf("start production %q is lexical", start)}
	}
	g, err := reachable(g, start)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(g))
	for name := range g {
		if name != start && !isLexical(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	names = append([]string{start}, names...)

	c := &ebnfConverter{counters: make(map[string]int)}
	for _, name := range names {
		alts, err := c.alternatives(name, g[name].Expr)
		if err != nil {
			return nil, err
		}
		for _, rhs := range alts {
			c.rules = append(c.rules, Rule{LHS: name, RHS: rhs})
		}
	}
	return New(start, c.rules)
}

// LoadEBNF reads an EBNF grammar file and converts it with FromEBNF.
func LoadEBNF(filename, start string) (*Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	eg, err := ebnf.Parse(filename, f)
	if err != nil {
		return nil, &Error{File: filename, Msg: fmt.Sprintf("parse: %v", err)}
	}
	g, err := FromEBNF(eg, start)
	if gerr, ok := err.(*Error); ok {
		gerr.File = filename
	}
	return g, err
}

type ebnfConverter struct {
	rules    []Rule
	counters map[string]int
}

func (c *ebnfConverter) fresh(owner, kind string) string {
	key := owner + "~" + kind
	c.counters[key]++
	return fmt.Sprintf("%s%d", key, c.counters[key])
}

// alternatives flattens expr into the right-hand sides of its alternatives.
func (c *ebnfConverter) alternatives(owner string, expr ebnf.Expression) ([][]Symbol, error) {
	switch e := expr.(type) {
	case nil:
		return [][]Symbol{{}}, nil
	case ebnf.Alternative:
		var alts [][]Symbol
		for _, alt := range e {
			sub, err := c.alternatives(owner, alt)
			if err != nil {
				return nil, err
			}
			alts = append(alts, sub...)
		}
		return alts, nil
	case ebnf.Sequence:
		rhs := make([]Symbol, 0, len(e))
		for _, elem := range e {
			sym, err := c.symbol(owner, elem)
			if err != nil {
				return nil, err
			}
			rhs = append(rhs, sym)
		}
		return [][]Symbol{rhs}, nil
	default:
		sym, err := c.symbol(owner, expr)
		if err != nil {
			return nil, err
		}
		return [][]Symbol{{sym}}, nil
	}
}

// symbol converts a single sequence element, introducing a helper
// nonterminal when the element is not a plain name or token.
func (c *ebnfConverter) symbol(owner string, expr ebnf.Expression) (Symbol, error) {
	switch e := expr.(type) {
	case *ebnf.Name:
		if isLexical(e.String) {
			return T(e.String), nil
		}
		return NT(e.String), nil

	case *ebnf.Token:
		return T(e.String), nil

	case *ebnf.Range:
		lo, hi := e.Begin.String, e.End.String
		if len(lo) != 1 || len(hi) != 1 {
			return Symbol{}, &Error{Msg: fmt.Sprintf("%s: only single-byte ranges are supported, got %q … %q", owner, lo, hi)}
		}
		name := c.fresh(owner, "rng")
		for ch := int(lo[0]); ch <= int(hi[0]); ch++ {
			c.rules = append(c.rules, Rule{LHS: name, RHS: []Symbol{T(string(rune(ch)))}})
		}
		return NT(name), nil

	case *ebnf.Group:
		return c.helper(owner, "grp", e.Body, false, false)

	case *ebnf.Option:
		return c.helper(owner, "opt", e.Body, true, false)

	case *ebnf.Repetition:
		return c.helper(owner, "rep", e.Body, true, true)

	case ebnf.Sequence, ebnf.Alternative:
		return c.helper(owner, "grp", e, false, false)
	}
	return Symbol{}, &Error{Msg: fmt.Sprintf("%s: unsupported expression %T", owner, expr)}
}

func (c *ebnfConverter) helper(owner, kind string, body ebnf.Expression, empty, repeat bool) (Symbol, error) {
	name := c.fresh(owner, kind)
	alts, err := c.alternatives(owner, body)
	if err != nil {
		return Symbol{}, err
	}
	for _, rhs := range alts {
		if repeat {
			rhs = append([]Symbol{NT(name)}, rhs...)
		}
		c.rules = append(c.rules, Rule{LHS: name, RHS: rhs})
	}
	if empty {
		c.rules = append(c.rules, Rule{LHS: name})
	}
	return NT(name), nil
}

// reachable returns the syntactic productions reachable from start. Token
// kinds are terminals, so their bodies and the lexical helpers they use are
// left to the lexer.
//
// ebnf.Verify is not used: it treats lower-case names as lexical, the
// opposite of the token kind convention shared with the lex package.
func reachable(g ebnf.Grammar, start string) (ebnf.Grammar, error) {
	sub := make(ebnf.Grammar)
	var errs []string
	var walk func(ebnf.Expression)
	visit := func(name string) {
		if _, done := sub[name]; done {
			return
		}
		prod, ok := g[name]
		if !ok {
			errs = append(errs, name)
			return
		}
		if isLexical(name) {
			return
		}
		sub[name] = prod
		walk(prod.Expr)
	}
	walk = func(expr ebnf.Expression) {
		switch e := expr.(type) {
		case ebnf.Alternative:
			for _, x := range e {
				walk(x)
			}
		case ebnf.Sequence:
			for _, x := range e {
				walk(x)
			}
		case *ebnf.Group:
			walk(e.Body)
		case *ebnf.Option:
			walk(e.Body)
		case *ebnf.Repetition:
			walk(e.Body)
		case *ebnf.Name:
			visit(e.String)
		}
	}
	visit(start)
	if len(errs) > 0 {
		sort.Strings(errs)
		return nil, &Error{Msg: fmt.Sprintf("missing production %s", strings.Join(errs, ", "))}
	}
	return sub, nil
}

func isLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsLower(ch)
}
