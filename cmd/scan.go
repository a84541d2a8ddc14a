package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"MusicFlow/cache"
	"MusicFlow/config"
	"MusicFlow/core/scan"
	"MusicFlow/db"
	"MusicFlow/logger"
	"MusicFlow/model"
	"MusicFlow/repository"
	"MusicFlow/storage"
)

var scanWorkers int

// bootstrapScan 为离线扫描命令准备数据库和编排器
func bootstrapScan() (*scan.Orchestrator, func(), error) {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := db.ConnectDB(cfg); err != nil {
		return nil, nil, err
	}
	if err := db.ConnectGormDB(cfg); err != nil {
		db.CloseDB()
		return nil, nil, err
	}
	if err := db.AutoMigrateModels(
		&model.Song{}, &model.Album{}, &model.AlbumSong{},
		&model.Artist{}, &model.ArtistSong{},
		&model.Cover{}, &model.Lyric{},
	); err != nil {
		db.CloseGormDB()
		db.CloseDB()
		return nil, nil, err
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, scan progress cache disabled", logger.ErrorField(err))
	}

	var blobs scan.CoverBlobStore
	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			logger.Warn("MinIO unavailable, original cover upload disabled", logger.ErrorField(err))
		} else {
			blobs = storage.NewCoverStore(cfg.MinioBucket)
		}
	}

	repos := scan.Repositories{
		Songs:   repository.NewMySQLSongRepository(),
		Albums:  repository.NewMySQLAlbumRepository(),
		Artists: repository.NewMySQLArtistRepository(),
		Covers:  repository.NewMySQLCoverRepository(),
		Lyrics:  repository.NewMySQLLyricRepository(),
	}

	workers := cfg.ScanWorkers
	if scanWorkers > 0 {
		workers = scanWorkers
	}
	orch := scan.NewOrchestrator(cfg.MusicDir, workers,
		scan.NewReconciler(repos, blobs), repos)

	cleanup := func() {
		cache.CloseRedis()
		db.CloseGormDB()
		db.CloseDB()
		logger.Sync()
	}
	return orch, cleanup, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "全量扫描音乐目录",
	Long:  `遍历音乐目录，解析标签、封面和歌词并写入数据库。重复执行会收敛到相同结果。`,
	Run: func(cmd *cobra.Command, args []string) {
		orch, cleanup, err := bootstrapScan()
		if err != nil {
			logger.Fatal("Failed to initialize scan", logger.ErrorField(err))
		}
		defer cleanup()

		summary, err := orch.FullScan(context.Background())
		if err != nil {
			logger.Fatal("Scan failed", logger.ErrorField(err))
		}
		logger.Info("Scan complete",
			logger.Int("total", summary.Total),
			logger.Int("completed", summary.Completed),
			logger.Int("failed", summary.Failed),
			logger.Duration("elapsed", summary.Elapsed))
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "扫描协程数量，默认取SCAN_WORKERS")
}
