package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"MusicFlow/server"
)

var rootCmd = &cobra.Command{
	Use:   "musicflow",
	Short: "MusicFlow is a personal music library server.",
	Run: func(cmd *cobra.Command, args []string) {
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
