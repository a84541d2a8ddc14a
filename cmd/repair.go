package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"MusicFlow/logger"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "修复扫描，只补缺失数据",
	Long:  `对比磁盘文件与数据库记录，重新摄取缺少歌曲、专辑链接或歌词的文件。`,
	Run: func(cmd *cobra.Command, args []string) {
		orch, cleanup, err := bootstrapScan()
		if err != nil {
			logger.Fatal("Failed to initialize repair", logger.ErrorField(err))
		}
		defer cleanup()

		summary, err := orch.Repair(context.Background())
		if err != nil {
			logger.Fatal("Repair failed", logger.ErrorField(err))
		}
		logger.Info("Repair complete",
			logger.Int("lost", summary.Total),
			logger.Int("repaired", summary.Completed),
			logger.Int("failed", summary.Failed),
			logger.Duration("elapsed", summary.Elapsed))
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
