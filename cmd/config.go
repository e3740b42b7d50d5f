package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagConfigOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Show prints the configuration after defaults, the config file,
HTMLCLEANER_* environment variables and flags have been merged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := cfgManager.ConfigFileUsed(); used != "" {
			fmt.Fprintf(os.Stderr, "# config file: %s\n", used)
		}
		return printValue(os.Stdout, flagConfigOutput, cfgManager.Get())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configShowCmd.Flags().StringVarP(&flagConfigOutput, "output", "o", "yaml", "Print format: yaml or json")
}
