package cmd

import (
	"github.com/spf13/cobra"

	"github.com/finsight/marketcal/pkg/cmd/server"
)

// serveAPICmd represents the serve api command
var serveAPICmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the dashboard API instance",
	Run:   server.RunServeAPI(c),
}

func init() {
	serveCmd.AddCommand(serveAPICmd)
}
