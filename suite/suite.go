// Package suite runs YAML expectation files against a grammar. A suite
// names a grammar and lists inputs with the number of parse trees each one
// must have; zero trees means the input must be rejected.
//
//	grammar: |
//	  EXP
//	  EXP -> EXP + EXP
//	  EXP -> n
//	cases:
//	  - input: n+n+n
//	    trees: 2
//	  - input: n+
//	    trees: 0
package suite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/earley/earley"
	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/lex"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

var log = commonlog.GetLogger("earley.suite")

// Suite is a decoded expectation file.
type Suite struct {
	// Path is the file the suite was loaded from. Relative grammar and
	// lexicon paths are resolved against its directory.
	Path string `yaml:"-"`

	// Grammar is either grammar text (when it spans several lines) or the
	// path of a grammar file. Files ending in .ebnf are converted with
	// grammar.LoadEBNF from Start.
	Grammar string `yaml:"grammar"`
	Start   string `yaml:"start,omitempty"`

	// Tokenizer is chars, fields or ebnf; ebnf reads its token kinds from
	// Lexicon.
	Tokenizer string `yaml:"tokenizer,omitempty"`
	Lexicon   string `yaml:"lexicon,omitempty"`

	Cases []Case `yaml:"cases"`
}

type Case struct {
	Name  string `yaml:"name,omitempty"`
	Input string `yaml:"input"`
	Trees int    `yaml:"trees"`
}

func (c Case) String() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%q", c.Input)
}

type Result struct {
	Case Case
	Got  int
	Err  error
}

// Passed reports whether the case ran to completion with the expected
// number of trees.
func (r Result) Passed() bool {
	return r.Err == nil && r.Got == r.Case.Trees
}

// Load reads the suite at path.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite: %w", err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Path = path
	return s, nil
}

// Decode parses a suite from YAML.
func Decode(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode suite: %w", err)
	}
	if strings.TrimSpace(s.Grammar) == "" {
		return nil, fmt.Errorf("decode suite: missing grammar")
	}
	return &s, nil
}

func (s *Suite) resolve(name string) string {
	if filepath.IsAbs(name) || s.Path == "" {
		return name
	}
	return filepath.Join(filepath.Dir(s.Path), name)
}

// LoadGrammar returns the grammar the suite runs against.
func (s *Suite) LoadGrammar() (*grammar.Grammar, error) {
	text := strings.TrimSpace(s.Grammar)
	if strings.Contains(text, "\n") {
		return grammar.Parse(s.Path, strings.NewReader(s.Grammar))
	}
	path := s.resolve(text)
	if filepath.Ext(path) == ".ebnf" {
		if s.Start == "" {
			return nil, fmt.Errorf("%s: ebnf grammar needs a start production", path)
		}
		return grammar.LoadEBNF(path, s.Start)
	}
	return grammar.Load(path)
}

func (s *Suite) tokenizer() (lex.Tokenizer, error) {
	if s.Tokenizer != lex.EBNFTokenizer {
		return lex.NewTokenizer(s.Tokenizer, nil)
	}
	if s.Lexicon == "" {
		return nil, fmt.Errorf("tokenizer %q needs a lexicon", s.Tokenizer)
	}
	lexicon, err := lex.LoadGrammar(s.resolve(s.Lexicon))
	if err != nil {
		return nil, err
	}
	return lex.NewTokenizer(s.Tokenizer, lexicon)
}

// Run parses every case and counts its trees. Counting stops one tree past
// the expectation, so a grammar with unboundedly many derivations still
// fails fast. The error reports a suite that could not be set up; case
// failures are in the results.
func (s *Suite) Run(ctx context.Context, opts ...earley.Option) ([]Result, error) {
	g, err := s.LoadGrammar()
	if err != nil {
		return nil, err
	}
	tokenize, err := s.tokenizer()
	if err != nil {
		return nil, err
	}

	opts = append([]earley.Option{earley.WithLogger(log)}, opts...)
	results := make([]Result, 0, len(s.Cases))
	for _, c := range s.Cases {
		r := Result{Case: c}
		r.Got, r.Err = count(ctx, g, tokenize, c, opts)
		if !r.Passed() {
			log.Debugf("%s: case %s: want %d trees, got %d (err: %v)", s.Path, c, c.Trees, r.Got, r.Err)
		}
		results = append(results, r)
	}
	return results, nil
}

func count(ctx context.Context, g *grammar.Grammar, tokenize lex.Tokenizer, c Case, opts []earley.Option) (int, error) {
	tokens, err := tokenize(c.Input)
	if err != nil {
		return 0, err
	}
	chart, err := earley.Recognize(ctx, g, tokens, opts...)
	if err != nil {
		return 0, err
	}
	return earley.NewForest(chart, opts...).Count(ctx, c.Trees+1)
}
