package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(s *settings) *cobra.Command {
	var gf grammarFlags

	cmd := &cobra.Command{
		Use:   "check <grammar>",
		Short: "Load a grammar and print its productions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gf.load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, g)

			var nullable []string
			for _, name := range g.Nonterminals() {
				if g.Nullable(name) {
					nullable = append(nullable, name)
				}
			}
			if len(nullable) > 0 {
				fmt.Fprintln(out, "Nullable:")
				if err := writeLines(out, nullable); err != nil {
					return err
				}
			}

			for _, name := range g.Unreachable() {
				log.Warningf("%s: nonterminal %s is unreachable from %s", args[0], name, g.Start())
			}
			return nil
		},
	}

	gf.register(cmd)

	return cmd
}
