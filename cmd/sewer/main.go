package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	configFile  string
	envFile     string
	systemsFile string

	rootCmd = &cobra.Command{
		Use:   "sewer",
		Short: "Run pipeline systems defined in YAML",
		Long: `sewer builds pipeline systems from a YAML file of named stages and
pumps values through them, from the command line or over HTTP.

Settings come from sewer.yaml (or --config), a .env file (or --env) and
SEWER_* environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "settings file (default ./sewer.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file (default ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&systemsFile, "systems", "", "systems file, overriding the settings")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
}
