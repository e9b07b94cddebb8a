package cmd

import (
	"CadenceFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the CadenceFM server",
	Long:  `Start the HTTP server serving the event catalog API, the upload endpoints and the bucket object proxy.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
