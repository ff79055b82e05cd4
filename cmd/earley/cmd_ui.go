package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dhamidi/earley/ui"
	"github.com/spf13/cobra"
)

func newUICmd(s *settings) *cobra.Command {
	var addr string
	var pf parseFlags

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the web playground",
		RunE: func(cmd *cobra.Command, args []string) error {
			pf.applyConfig(cmd, s)
			if !cmd.Flags().Changed("addr") && s.config.Addr != "" {
				addr = s.config.Addr
			}

			server, err := ui.NewServer(ui.Options{
				Limit:    pf.limit,
				MaxSteps: pf.maxSteps,
				Timeout:  pf.timeout,
			})
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			displayAddr := addr
			if strings.HasPrefix(addr, ":") {
				displayAddr = "localhost" + addr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Starting server at http://%s\n", displayAddr)
			return http.ListenAndServe(addr, server)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "address to listen on")
	pf.registerBudget(cmd)

	return cmd
}
