package earley

import (
	"context"

	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/lex"
)

// Parse recognizes tokens and returns their parse trees, in no particular
// order. A rejected input yields no trees and no error; the error reports an
// exhausted budget, with any trees found before it.
func Parse(ctx context.Context, g *grammar.Grammar, tokens []lex.Token, opts ...Option) ([]*Node, error) {
	cfg := newConfig(opts)
	chart, err := Recognize(ctx, g, tokens, opts...)
	if err != nil {
		return nil, err
	}
	return NewForest(chart, opts...).Collect(ctx, cfg.limit)
}

// ParseString parses s one character per token, for grammars whose
// terminals are single characters.
func ParseString(ctx context.Context, g *grammar.Grammar, s string, opts ...Option) ([]*Node, error) {
	return Parse(ctx, g, lex.Chars(s), opts...)
}
