package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "TelHawk audit-event security analyzer",
	Long: `analyzer ingests collected cloud-tenant audit events and runs them
through a concurrent, rule-based security-analysis pipeline producing
findings, risk scores, and alerts.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
