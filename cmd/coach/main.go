package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Commit Coach and Crypto Radar",
	Long: `coach serves the crypto radar agent, the goal coaching agents and the
PowerSense admin reports over HTTP, and talks to a running server from the CLI.

Examples:
  coach start
  coach ask "Price of AVAX"
  coach goal intake --resolution "Run a 10k" --weeks 8 --motivation "feel stronger"
  coach admin summary`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", os.Getenv("COACH_SESSION"), "session id used to track your latest goal")

	rootCmd.AddCommand(startCmd, stopCmd, statusCmd)
	rootCmd.AddCommand(askCmd, alertsCmd)
	rootCmd.AddCommand(goalCmd, adminCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
