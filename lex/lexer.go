package lex

import (
	"fmt"
	"io"
	"os"
	"sort"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// Token kinds produced by the Lexer besides the grammar's own.
const (
	EOF   = "EOF"
	Error = "ERROR"
)

// noMatch is the match length of an expression that fails. Zero is a
// successful empty match, as produced by an option or repetition that
// matches nothing.
const noMatch = -1

type matchKey struct {
	name   string
	offset int
}

// Lexer tokenizes input based on an EBNF grammar. Every production whose
// name starts with an upper-case letter is a token kind; at each position
// the longest non-empty match wins, ties going to the alphabetically first
// kind.
type Lexer struct {
	grammar ebnf.Grammar
	kinds   []string
	input   []byte
	at      Position

	// Per-kind match state, reset before each kind is tried.
	lengths map[matchKey]int
	active  map[matchKey]bool
}

// NewLexer creates a lexer for the given grammar and input.
func NewLexer(grammar ebnf.Grammar, input []byte, filename string) *Lexer {
	var kinds []string
	for name, prod := range grammar {
		if prod.Expr == nil || !isKind(name) {
			continue
		}
		kinds = append(kinds, name)
	}
	sort.Strings(kinds)

	return &Lexer{
		grammar: grammar,
		kinds:   kinds,
		input:   input,
		at:      Position{Filename: filename, Line: 1, Column: 1},
	}
}

func isKind(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	grammar, err := ebnf.Parse(filename, f)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	return grammar, nil
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return l.at
}

// consume moves past the next n bytes and returns them.
func (l *Lexer) consume(n int) string {
	lit := string(l.input[l.at.Offset : l.at.Offset+n])
	for _, r := range lit {
		l.at = advance(l.at, r)
	}
	return lit
}

// NextToken returns the next token from the input, or an EOF token together
// with io.EOF once the input is exhausted. A rune no token kind matches is
// returned on its own as an ERROR token.
func (l *Lexer) NextToken() (Token, error) {
	start := l.at
	if start.Offset >= len(l.input) {
		return Token{Kind: EOF, Position: start}, io.EOF
	}

	kind, n := "", 0
	for _, name := range l.kinds {
		l.lengths = make(map[matchKey]int)
		l.active = make(map[matchKey]bool)
		if m := l.match(l.grammar[name].Expr, start.Offset); m > n {
			kind, n = name, m
		}
	}

	if n == 0 {
		_, size := utf8.DecodeRune(l.input[start.Offset:])
		return Token{Kind: Error, Literal: l.consume(size), Position: start}, nil
	}
	return Token{Kind: kind, Literal: l.consume(n), Position: start}, nil
}

// match returns the length of the longest match of expr at offset, or
// noMatch. Alternatives are not backtracked into: a sequence continues
// after the longest match of each item.
func (l *Lexer) match(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case nil:
		return 0

	case *ebnf.Token:
		if !hasPrefixAt(l.input, offset, e.String) {
			return noMatch
		}
		return len(e.String)

	case *ebnf.Range:
		if len(e.Begin.String) != 1 || len(e.End.String) != 1 || offset >= len(l.input) {
			return noMatch
		}
		if ch := l.input[offset]; ch < e.Begin.String[0] || ch > e.End.String[0] {
			return noMatch
		}
		return 1

	case ebnf.Sequence:
		total := 0
		for _, item := range e {
			n := l.match(item, offset+total)
			if n == noMatch {
				return noMatch
			}
			total += n
		}
		return total

	case ebnf.Alternative:
		best := noMatch
		for _, alt := range e {
			best = max(best, l.match(alt, offset))
		}
		return best

	case *ebnf.Repetition:
		total := 0
		for {
			// An empty iteration would repeat forever.
			n := l.match(e.Body, offset+total)
			if n <= 0 {
				return total
			}
			total += n
		}

	case *ebnf.Option:
		return max(0, l.match(e.Body, offset))

	case *ebnf.Group:
		return l.match(e.Body, offset)

	case *ebnf.Name:
		return l.matchName(e.String, offset)
	}
	return noMatch
}

// matchName matches a named production, caching the result. Re-entering a
// production at the same offset (left recursion) fails the inner match.
func (l *Lexer) matchName(name string, offset int) int {
	key := matchKey{name: name, offset: offset}
	if n, ok := l.lengths[key]; ok {
		return n
	}
	if l.active[key] {
		return noMatch
	}

	prod, ok := l.grammar[name]
	if !ok {
		l.lengths[key] = noMatch
		return noMatch
	}

	l.active[key] = true
	n := l.match(prod.Expr, offset)
	delete(l.active, key)

	l.lengths[key] = n
	return n
}

func hasPrefixAt(input []byte, offset int, s string) bool {
	return offset+len(s) <= len(input) && string(input[offset:offset+len(s)]) == s
}

// Tokenize reads all tokens from input, ending with an EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		tokens = append(tokens, tok)
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
	}
}
