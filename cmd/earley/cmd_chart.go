package main

import (
	"fmt"

	"github.com/dhamidi/earley/earley"
	"github.com/spf13/cobra"
)

func newChartCmd(s *settings) *cobra.Command {
	var gf grammarFlags
	var pf parseFlags

	cmd := &cobra.Command{
		Use:   "chart <grammar> [input]",
		Short: "Dump the Earley chart built for the input",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pf.applyConfig(cmd, s)

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
			out := cmd.OutOrStdout()
			fmt.Fprint(out, chart)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "steps: %d\naccepted: %t\n", chart.Steps(), chart.Accepted())
			return nil
		},
	}

	gf.register(cmd)
	pf.register(cmd)

	return cmd
}
