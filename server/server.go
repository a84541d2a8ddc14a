package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"MusicFlow/cache"
	"MusicFlow/config"
	"MusicFlow/core/scan"
	"MusicFlow/db"
	"MusicFlow/logger"
	"MusicFlow/model"
	"MusicFlow/repository"
	"MusicFlow/storage"
)

// Start initializes the infrastructure, launches the startup repair scan
// and serves the HTTP API until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	defer logger.Sync()

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Connect to the database
	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	// GORM 只负责建表迁移
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(
		&model.Song{}, &model.Album{}, &model.AlbumSong{},
		&model.Artist{}, &model.ArtistSong{},
		&model.Cover{}, &model.Lyric{},
	); err != nil {
		logger.Fatal("Failed to migrate models", logger.ErrorField(err))
	}

	// Redis不可用时扫描进度缓存自动降级为no-op
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis unavailable, scan progress cache disabled", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

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
	reconciler := scan.NewReconciler(repos, blobs)
	orchestrator := scan.NewOrchestrator(cfg.MusicDir, cfg.ScanWorkers, reconciler, repos)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// 启动时后台补一次缺失数据
	go func() {
		summary, err := orchestrator.Repair(rootCtx)
		if err != nil {
			logger.Error("Startup repair scan failed", logger.ErrorField(err))
			return
		}
		logger.Info("Startup repair scan done",
			logger.Int("repaired", summary.Completed), logger.Int("failed", summary.Failed))
	}()

	if cfg.WatchMusic {
		watcher, err := scan.NewWatcher(cfg.MusicDir, orchestrator)
		if err != nil {
			logger.Error("Failed to start music directory watcher", logger.ErrorField(err))
		} else {
			go watcher.Run(rootCtx)
		}
	}

	apiHandler := NewAPIHandler(repos, orchestrator, cfg)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 扫描相关的API端点
	router.HandleFunc("/api/scan", apiHandler.TriggerScanHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/scan/progress", apiHandler.ScanProgressHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/repair", apiHandler.TriggerRepairHandler).Methods(http.MethodPost)

	// 曲库浏览API端点
	router.HandleFunc("/api/list", apiHandler.ListSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/single/{songID}", apiHandler.GetSongHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/cover/{size}/{albumID}", apiHandler.GetCoverHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/lyrics/{songID}", apiHandler.GetLyricsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/albums", apiHandler.ListAlbumsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/artists", apiHandler.ListArtistsHandler).Methods(http.MethodGet)

	// Frontend UI serving
	uiFileServer := http.FileServer(http.Dir(cfg.WebAppDir))
	router.PathPrefix("/").Handler(uiFileServer)

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("Shutting down server...")
	cancelRoot()

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
