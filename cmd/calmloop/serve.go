package main

import (
	"github.com/spf13/cobra"

	"github.com/calmloop-dev/calmloop"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the session service",
	Long: `Run the session service: the registry, the idle-session reaper and
the observability server, until SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return calmloop.Run(configFile)
	},
}
