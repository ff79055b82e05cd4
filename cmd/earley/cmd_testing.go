package main

import (
	"fmt"

	"github.com/dhamidi/earley/earley"
	"github.com/dhamidi/earley/suite"
	"github.com/spf13/cobra"
)

func newTestCmd(s *settings) *cobra.Command {
	var maxSteps int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "test <suite.yaml>...",
		Short: "Check tree counts listed in YAML suites",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("max-steps") {
				maxSteps = s.config.MaxSteps
			}
			out := cmd.OutOrStdout()

			var passed, failed int
			for _, path := range args {
				st, err := suite.Load(path)
				if err != nil {
					return err
				}
				results, err := st.Run(cmd.Context(), earley.WithMaxSteps(maxSteps))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				for _, r := range results {
					switch {
					case r.Passed():
						passed++
						if verbose {
							fmt.Fprintf(out, "ok   %s: %s\n", path, r.Case)
						}
					case r.Err != nil:
						failed++
						fmt.Fprintf(out, "FAIL %s: %s: %v\n", path, r.Case, r.Err)
					default:
						failed++
						fmt.Fprintf(out, "FAIL %s: %s: want %d trees, got %d\n", path, r.Case, r.Case.Trees, r.Got)
					}
				}
			}

			fmt.Fprintf(out, "%d passed, %d failed\n", passed, failed)
			if failed > 0 {
				return fmt.Errorf("%d cases failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step budget per phase (0 for unlimited)")
	cmd.Flags().BoolVar(&verbose, "verbose-cases", false, "also list passing cases")

	return cmd
}
