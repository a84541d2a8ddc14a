package server

import (
	"encoding/json"
	"net/http"

	"MusicFlow/config"
	"MusicFlow/core/scan"
	"MusicFlow/logger"
	"MusicFlow/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	songRepo   repository.SongRepository
	albumRepo  repository.AlbumRepository
	artistRepo repository.ArtistRepository
	coverRepo  repository.CoverRepository
	lyricRepo  repository.LyricRepository
	orch       *scan.Orchestrator
	cfg        *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(repos scan.Repositories, orch *scan.Orchestrator, cfg *config.Config) *APIHandler {
	return &APIHandler{
		songRepo:   repos.Songs,
		albumRepo:  repos.Albums,
		artistRepo: repos.Artists,
		coverRepo:  repos.Covers,
		lyricRepo:  repos.Lyrics,
		orch:       orch,
		cfg:        cfg,
	}
}

// writeJSON serializes v and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
