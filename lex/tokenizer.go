package lex

import (
	"fmt"

	"golang.org/x/exp/ebnf"
)

// Tokenizer splits input text into tokens.
type Tokenizer func(input string) ([]Token, error)

// Tokenizer names accepted by NewTokenizer.
const (
	CharsTokenizer  = "chars"
	FieldsTokenizer = "fields"
	EBNFTokenizer   = "ebnf"
)

// SkipKinds are the token kinds the EBNF tokenizer drops before parsing.
var SkipKinds = []string{"WhiteSpace", "Comment"}

// NewTokenizer returns the tokenizer called name. The "ebnf" tokenizer
// needs a lexicon; it drops SkipKinds and fails on bytes no kind matches.
// An empty name selects "chars".
func NewTokenizer(name string, lexicon ebnf.Grammar) (Tokenizer, error) {
	switch name {
	case "", CharsTokenizer:
		return func(s string) ([]Token, error) { return Chars(s), nil }, nil
	case FieldsTokenizer:
		return func(s string) ([]Token, error) { return Fields(s), nil }, nil
	case EBNFTokenizer:
		if lexicon == nil {
			return nil, fmt.Errorf("tokenizer %q needs a lexicon", name)
		}
		return func(s string) ([]Token, error) {
			tokens, err := NewLexer(lexicon, []byte(s), "").Tokenize()
			if err != nil {
				return nil, err
			}
			for _, tok := range tokens {
				if tok.Kind == Error {
					return nil, fmt.Errorf("%s: unexpected character %q", tok.Position, tok.Literal)
				}
			}
			return Filter(tokens, SkipKinds...), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown tokenizer: %s", name)
}
