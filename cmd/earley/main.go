package main

import (
	"os"

	"github.com/dhamidi/earley/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("earley.cmd")

// settings holds the persistent flags and the configuration they select.
type settings struct {
	configFile string
	logFile    string
	verbose    int
	config     config.Config
}

func main() {
	var s settings

	rootCmd := &cobra.Command{
		Use:          "earley",
		Short:        "Parse input against a context-free grammar and print every parse tree",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if s.logFile != "" {
				commonlog.Configure(s.verbose-1, &s.logFile)
			} else {
				commonlog.Configure(s.verbose-1, nil)
			}

			cfg, err := config.Load(s.configFile, !cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			s.config = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&s.configFile, "config", config.DefaultFile, "TOML file with default settings")
	rootCmd.PersistentFlags().StringVar(&s.logFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().CountVarP(&s.verbose, "verbose", "v", "log more; repeat for debug output")

	rootCmd.AddCommand(newParseCmd(&s))
	rootCmd.AddCommand(newCheckCmd(&s))
	rootCmd.AddCommand(newChartCmd(&s))
	rootCmd.AddCommand(newTestCmd(&s))
	rootCmd.AddCommand(newLSPCmd())
	rootCmd.AddCommand(newUICmd(&s))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
