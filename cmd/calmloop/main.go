// Package main is the calmloop CLI: a serve command that runs the
// session service, and a chat command for talking to a session from the
// terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags)
var Version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:     "calmloop",
	Short:   "Therapeutic session orchestrator",
	Version: Version,
	Long: `calmloop runs guided therapeutic conversation sessions: a live
conversation channel when one is configured, an empathetic fallback
responder otherwise, and a journal entry derived from every session.`,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("CALMLOOP_CONFIG"), "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
