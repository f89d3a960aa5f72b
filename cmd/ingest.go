package cmd

import (
	"github.com/spf13/cobra"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one reconciliation cycle and exit",
	Run:   cmdHandler.Ingest.Run,
}

func init() {
	ingestCmd.Flags().StringVar(&cmdHandler.Ingest.Ticker, "ticker", "",
		"limit the run to a single ticker")
	RootCmd.AddCommand(ingestCmd)
}
