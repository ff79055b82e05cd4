package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhamidi/earley/earley"
	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/lex"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"
)

// grammarFlags select and load the grammar.
type grammarFlags struct {
	start string
}

func (f *grammarFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "start production of an .ebnf grammar")
}

// load reads a textual grammar, or an EBNF grammar when the file ends in
// .ebnf.
func (f *grammarFlags) load(filename string) (*grammar.Grammar, error) {
	if filepath.Ext(filename) != ".ebnf" {
		return grammar.Load(filename)
	}
	if f.start == "" {
		return nil, fmt.Errorf("%s: --start is required for EBNF grammars", filename)
	}
	return grammar.LoadEBNF(filename, f.start)
}

// parseFlags control tokenizing and the parse budget. Flags left unset
// take their value from the configuration file.
type parseFlags struct {
	tokenizer string
	lexicon   string
	limit     int
	maxSteps  int
	timeout   time.Duration
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.tokenizer, "tokenizer", "t", "chars", "how to split the input (chars, fields, ebnf)")
	cmd.Flags().StringVar(&f.lexicon, "lexicon", "", "EBNF file defining token kinds for the ebnf tokenizer")
	f.registerBudget(cmd)
}

func (f *parseFlags) registerBudget(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 0, "stop after this many trees (0 for all)")
	cmd.Flags().IntVar(&f.maxSteps, "max-steps", 0, "step budget per phase (0 for unlimited)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "give up after this long (0 for no limit)")
}

func (f *parseFlags) applyConfig(cmd *cobra.Command, s *settings) {
	cfg := s.config
	if !cmd.Flags().Changed("tokenizer") && cfg.Tokenizer != "" {
		f.tokenizer = cfg.Tokenizer
	}
	if !cmd.Flags().Changed("lexicon") && cfg.Lexicon != "" {
		f.lexicon = cfg.Lexicon
	}
	if !cmd.Flags().Changed("limit") {
		f.limit = cfg.Limit
	}
	if !cmd.Flags().Changed("max-steps") {
		f.maxSteps = cfg.MaxSteps
	}
	if !cmd.Flags().Changed("timeout") {
		f.timeout = cfg.Timeout.Duration
	}
}

func (f *parseFlags) options() []earley.Option {
	return []earley.Option{earley.WithMaxSteps(f.maxSteps)}
}

func (f *parseFlags) context(parent context.Context) (context.Context, context.CancelFunc) {
	if f.timeout > 0 {
		return context.WithTimeout(parent, f.timeout)
	}
	return context.WithCancel(parent)
}

// tokenize splits input with the selected tokenizer. The ebnf tokenizer
// reads its lexicon from --lexicon, or from the grammar itself when that is
// an EBNF file.
func (f *parseFlags) tokenize(grammarFile, input string) ([]lex.Token, error) {
	var lexicon ebnf.Grammar
	if f.tokenizer == lex.EBNFTokenizer {
		path := f.lexicon
		if path == "" && filepath.Ext(grammarFile) == ".ebnf" {
			path = grammarFile
		}
		if path == "" {
			return nil, fmt.Errorf("the ebnf tokenizer needs --lexicon")
		}
		var err error
		if lexicon, err = lex.LoadGrammar(path); err != nil {
			return nil, err
		}
	}
	tokenize, err := lex.NewTokenizer(f.tokenizer, lexicon)
	if err != nil {
		return nil, err
	}
	return tokenize(input)
}

// readInput returns the input argument, or standard input without its
// final newline when there is none.
func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// useColor resolves --color: "auto" colors only when w is a terminal.
func useColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())), nil
	}
	return false, fmt.Errorf("invalid --color %q, want auto, always or never", mode)
}
