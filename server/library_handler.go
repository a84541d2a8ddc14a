package server

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"MusicFlow/model"
)

// ListSongsHandler 返回整个曲库
func (h *APIHandler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list songs")
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetSongHandler 返回单曲详情，附带专辑链接信息
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["songID"]

	song, err := h.songRepo.GetSongByID(songID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load song")
		return
	}
	if song == nil {
		writeError(w, http.StatusNotFound, "song not found")
		return
	}

	link, err := h.albumRepo.GetAlbumSongBySongID(songID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load album link")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"song":  song,
		"album": link,
	})
}

// GetCoverHandler 以webp原始字节返回指定尺寸的专辑封面
func (h *APIHandler) GetCoverHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	size := vars["size"]

	if size != model.CoverSizeSmall && size != model.CoverSizeMedium {
		writeError(w, http.StatusBadRequest, "unknown cover size")
		return
	}

	albumID, err := strconv.ParseInt(vars["albumID"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid album id")
		return
	}

	cover, err := h.coverRepo.GetCover(model.CoverTypeAlbum, albumID, size)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cover")
		return
	}
	if cover == nil {
		writeError(w, http.StatusNotFound, "cover not found")
		return
	}

	data, err := base64.StdEncoding.DecodeString(cover.Base64)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stored cover is corrupt")
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=31536000") // 缓存一年
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetLyricsHandler 返回一首歌的全部歌词行
func (h *APIHandler) GetLyricsHandler(w http.ResponseWriter, r *http.Request) {
	songID := mux.Vars(r)["songID"]

	lyrics, err := h.lyricRepo.GetLyricsBySongID(songID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load lyrics")
		return
	}
	writeJSON(w, http.StatusOK, lyrics)
}

// ListAlbumsHandler 返回全部专辑
func (h *APIHandler) ListAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albumRepo.GetAllAlbums()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list albums")
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// ListArtistsHandler 返回全部艺术家
func (h *APIHandler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	artists, err := h.artistRepo.GetAllArtists()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list artists")
		return
	}
	writeJSON(w, http.StatusOK, artists)
}
