package cmd

import (
	"github.com/spf13/cobra"

	"MusicFlow/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动MusicFlow服务器",
	Long:  `启动MusicFlow音乐系统的HTTP服务器，提供扫描API和曲库浏览接口`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
