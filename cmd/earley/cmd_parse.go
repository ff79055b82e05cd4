package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/earley/earley"
	"github.com/dhamidi/earley/format"
	"github.com/spf13/cobra"
)

func newParseCmd(s *settings) *cobra.Command {
	var gf grammarFlags
	var pf parseFlags
	var outputFormat string
	var color string

	cmd := &cobra.Command{
		Use:   "parse <grammar> [input]",
		Short: "Print every parse tree of the input",
		Long: `Parse the input against the grammar and print every parse tree.

The input is read from standard input when it is not given as an argument.
The command fails when the input is not in the grammar's language.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf.applyConfig(cmd, s)
			if !cmd.Flags().Changed("format") && s.config.Format != "" {
				outputFormat = s.config.Format
			}

			out := cmd.OutOrStdout()
			colored, err := useColor(color, out)
			if err != nil {
				return err
			}
			encoder, err := format.New(outputFormat, out, colored)
			if err != nil {
				return err
			}

			g, err := gf.load(args[0])
			if err != nil {
				return err
			}
			input, err := readInput(args[1:], cmd.InOrStdin())
			if err != nil {
				return err
			}
			tokens, err := pf.tokenize(args[0], input)
			if err != nil {
				return err
			}

			ctx, cancel := pf.context(cmd.Context())
			defer cancel()

			chart, err := earley.Recognize(ctx, g, tokens, pf.options()...)
			if err != nil {
				return err
			}
			if !chart.Accepted() {
				return rejection(chart)
			}

			trees, err := earley.NewForest(chart, pf.options()...).Collect(ctx, pf.limit)
			if encErr := encoder.Encode(trees); encErr != nil {
				return fmt.Errorf("encode: %w", encErr)
			}
			if err != nil {
				return fmt.Errorf("after %d trees: %w", len(trees), err)
			}
			log.Infof("%d trees", len(trees))
			return nil
		},
	}

	gf.register(cmd)
	pf.register(cmd)
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format ("+strings.Join(format.Names, ", ")+")")
	cmd.Flags().StringVar(&color, "color", "auto", "color text output (auto, always, never)")

	return cmd
}

// rejection describes where a rejected input stopped making sense.
func rejection(chart *earley.Chart) error {
	tokens := chart.Tokens()
	k := chart.Furthest()
	if k < len(tokens) {
		tok := tokens[k]
		return fmt.Errorf("input rejected: unexpected %q at %s (token %d)", tok.Literal, tok.Position, k+1)
	}
	return fmt.Errorf("input rejected: unexpected end of input after %d tokens", len(tokens))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
