// Package lex turns input text into the token sequences consumed by the
// earley parser. Tokens carry a kind and a literal; a grammar terminal
// matches a token when it names either of them.
package lex

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Position represents a location in source code.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token represents a lexical token with its position.
type Token struct {
	Kind     string
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

// Matches reports whether a terminal named name accepts this token.
func (t Token) Matches(name string) bool {
	return t.Kind == name || t.Literal == name
}

// Chars splits s into one token per rune. Kind and Literal are both the
// rune itself, which is what single-character grammars expect.
func Chars(s string) []Token {
	tokens := make([]Token, 0, utf8.RuneCountInString(s))
	pos := Position{Line: 1, Column: 1}
	for _, r := range s {
		lit := string(r)
		tokens = append(tokens, Token{Kind: lit, Literal: lit, Position: pos})
		pos = advance(pos, r)
	}
	return tokens
}

// Fields splits s around runs of white space. Each word becomes a token
// whose Kind and Literal are the word.
func Fields(s string) []Token {
	var tokens []Token
	pos := Position{Line: 1, Column: 1}
	var start Position
	word := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if word >= 0 {
				lit := s[word:i]
				tokens = append(tokens, Token{Kind: lit, Literal: lit, Position: start})
				word = -1
			}
		} else if word < 0 {
			word = i
			start = pos
		}
		pos = advance(pos, r)
	}
	if word >= 0 {
		lit := s[word:]
		tokens = append(tokens, Token{Kind: lit, Literal: lit, Position: start})
	}
	return tokens
}

// Filter drops EOF tokens and tokens of the given kinds.
func Filter(tokens []Token, skipKinds ...string) []Token {
	skip := make(map[string]bool, len(skipKinds))
	for _, k := range skipKinds {
		skip[k] = true
	}
	filtered := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == EOF || skip[tok.Kind] {
			continue
		}
		filtered = append(filtered, tok)
	}
	return filtered
}

// Text concatenates token literals.
func Text(tokens []Token) string {
	n := 0
	for _, tok := range tokens {
		n += len(tok.Literal)
	}
	buf := make([]byte, 0, n)
	for _, tok := range tokens {
		buf = append(buf, tok.Literal...)
	}
	return string(buf)
}

func advance(pos Position, r rune) Position {
	pos.Offset += utf8.RuneLen(r)
	if r == '\n' {
		pos.Line++
		pos.Column = 1
	} else {
		pos.Column++
	}
	return pos
}
