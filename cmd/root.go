package cmd

import (
	"fmt"
	"os"

	"CadenceFM/config"
	"CadenceFM/logger"
	"CadenceFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cadencefm",
	Short: "CadenceFM curates a catalog of scheduled audio events.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogPath,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Running without a subcommand starts the server.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
