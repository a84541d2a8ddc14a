package scan

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"MusicFlow/core/cover"
	"MusicFlow/core/lyric"
	"MusicFlow/core/meta"
	"MusicFlow/logger"
	"MusicFlow/model"
	"MusicFlow/repository"
)

// Repositories groups the persistence interfaces the reconciler needs.
type Repositories struct {
	Songs   repository.SongRepository
	Albums  repository.AlbumRepository
	Artists repository.ArtistRepository
	Covers  repository.CoverRepository
	Lyrics  repository.LyricRepository
}

// CoverSource lazily yields the raw embedded cover image of a file.
// It is only invoked when the database is actually missing derivatives,
// so files whose covers are already ingested never pay for extraction.
type CoverSource func() ([]byte, error)

// CoverBlobStore uploads original cover images to object storage.
type CoverBlobStore interface {
	UploadCoverOriginal(ctx context.Context, coverType string, linkID int64, format string, data []byte) error
}

// Result reports what one reconciliation actually created.
type Result struct {
	SongID         string
	SongCreated    bool
	SongMoved      bool
	AlbumCreated   bool
	ArtistsCreated int
	CoversCreated  int
	LyricsCreated  int
}

// Reconciler folds normalized bundles into the database idempotently.
// Repeated runs over the same file converge to the same rows.
type Reconciler struct {
	repos Repositories
	blobs CoverBlobStore // optional, nil disables original-cover upload
}

// NewReconciler creates a reconciler. blobs may be nil.
func NewReconciler(repos Repositories, blobs CoverBlobStore) *Reconciler {
	return &Reconciler{repos: repos, blobs: blobs}
}

// Reconcile runs the five ingestion steps for one file. Each step commits
// independently; a failure aborts this file only and an idempotent re-scan
// finishes the remaining steps later.
func (r *Reconciler) Reconcile(ctx context.Context, bundle *meta.Bundle, coverSrc CoverSource) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{}

	song, err := r.reconcileSong(bundle, res)
	if err != nil {
		return nil, err
	}
	res.SongID = song.ID

	album, err := r.reconcileAlbum(bundle, song, res)
	if err != nil {
		return nil, err
	}

	if err := r.reconcileArtists(bundle, song, res); err != nil {
		return nil, err
	}

	if album != nil {
		if err := r.reconcileCovers(ctx, bundle, album, coverSrc, res); err != nil {
			return nil, err
		}
	}

	if err := r.reconcileLyrics(bundle, song, res); err != nil {
		return nil, err
	}

	logger.Info("File reconciled",
		logger.String("songId", song.ID),
		logger.String("title", song.Title),
		logger.String("artist", song.Artist),
		logger.Int("coversCreated", res.CoversCreated),
		logger.Int("lyricsCreated", res.LyricsCreated),
		logger.Duration("elapsed", time.Since(start)))

	return res, nil
}

// reconcileSong resolves the song row by its (title, artist) natural key.
// A known song found at a new path has its location updated in place; the
// id never changes once assigned.
func (r *Reconciler) reconcileSong(bundle *meta.Bundle, res *Result) (*model.Song, error) {
	candidate := bundle.Song

	existing, err := r.repos.Songs.GetSongByTitleArtist(candidate.Title, candidate.Artist)
	if err != nil {
		return nil, fmt.Errorf("song lookup failed: %w", err)
	}

	if existing == nil {
		if err := r.repos.Songs.CreateSong(candidate); err != nil {
			if !repository.IsDuplicateEntry(err) {
				return nil, fmt.Errorf("song insert failed: %w", err)
			}
			// 并发worker先插入了同一首歌，重读后继续
			existing, err = r.repos.Songs.GetSongByTitleArtist(candidate.Title, candidate.Artist)
			if err != nil || existing == nil {
				return nil, fmt.Errorf("song re-read after duplicate failed: %w", err)
			}
		} else {
			res.SongCreated = true
			return candidate, nil
		}
	}

	if existing.FilePath != candidate.FilePath {
		if _, err := r.repos.Songs.UpdateSongLocation(existing.ID,
			candidate.FileName, candidate.FilePath, candidate.FileURL); err != nil {
			return nil, fmt.Errorf("song location update failed: %w", err)
		}
		existing.FileName = candidate.FileName
		existing.FilePath = candidate.FilePath
		existing.FileURL = candidate.FileURL
		res.SongMoved = true
		logger.Info("Song file moved, location updated",
			logger.String("songId", existing.ID), logger.String("path", candidate.FilePath))
	}

	return existing, nil
}

// reconcileAlbum resolves the album and its link row. Files without an
// album tag are left unlinked.
func (r *Reconciler) reconcileAlbum(bundle *meta.Bundle, song *model.Song, res *Result) (*model.Album, error) {
	if bundle.Song.Album == "" {
		return nil, nil
	}

	album, err := r.repos.Albums.GetAlbumByName(bundle.Song.Album)
	if err != nil {
		return nil, fmt.Errorf("album lookup failed: %w", err)
	}

	if album == nil {
		albumArtist := ""
		if len(bundle.Artists) > 0 {
			albumArtist = bundle.Artists[0]
		}
		album = &model.Album{
			Name:   bundle.Song.Album,
			Year:   song.Year,
			Artist: albumArtist,
		}
		if _, err := r.repos.Albums.CreateAlbum(album); err != nil {
			if !repository.IsDuplicateEntry(err) {
				return nil, fmt.Errorf("album insert failed: %w", err)
			}
			album, err = r.repos.Albums.GetAlbumByName(bundle.Song.Album)
			if err != nil || album == nil {
				return nil, fmt.Errorf("album re-read after duplicate failed: %w", err)
			}
		} else {
			res.AlbumCreated = true
		}
	}

	link, err := r.repos.Albums.GetAlbumSong(album.ID, song.ID)
	if err != nil {
		return nil, fmt.Errorf("album link lookup failed: %w", err)
	}
	if link == nil {
		albumArtist := album.Artist
		err := r.repos.Albums.CreateAlbumSong(&model.AlbumSong{
			AlbumID:     album.ID,
			SongID:      song.ID,
			AlbumName:   album.Name,
			SongTitle:   song.Title,
			AlbumArtist: albumArtist,
		})
		if err != nil && !repository.IsDuplicateEntry(err) {
			return nil, fmt.Errorf("album link insert failed: %w", err)
		}
	}

	return album, nil
}

// reconcileArtists resolves each split artist name and fills in any
// missing artist-song links.
func (r *Reconciler) reconcileArtists(bundle *meta.Bundle, song *model.Song, res *Result) error {
	wantIDs := make([]int64, 0, len(bundle.Artists))
	seen := make(map[string]bool, len(bundle.Artists))

	for _, name := range bundle.Artists {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		artist, err := r.repos.Artists.GetArtistByName(name)
		if err != nil {
			return fmt.Errorf("artist lookup failed for %q: %w", name, err)
		}
		if artist == nil {
			artist = &model.Artist{Name: name}
			if _, err := r.repos.Artists.CreateArtist(artist); err != nil {
				if !repository.IsDuplicateEntry(err) {
					return fmt.Errorf("artist insert failed for %q: %w", name, err)
				}
				artist, err = r.repos.Artists.GetArtistByName(name)
				if err != nil || artist == nil {
					return fmt.Errorf("artist re-read after duplicate failed for %q: %w", name, err)
				}
			} else {
				res.ArtistsCreated++
			}
		}
		wantIDs = append(wantIDs, artist.ID)
	}

	existingLinks, err := r.repos.Artists.GetArtistSongsBySongID(song.ID)
	if err != nil {
		return fmt.Errorf("artist link lookup failed: %w", err)
	}
	linked := make(map[int64]bool, len(existingLinks))
	for _, link := range existingLinks {
		linked[link.ArtistID] = true
	}

	missing := make([]*model.ArtistSong, 0)
	for _, id := range wantIDs {
		if !linked[id] {
			missing = append(missing, &model.ArtistSong{ArtistID: id, SongID: song.ID})
		}
	}
	if len(missing) > 0 {
		if err := r.repos.Artists.CreateArtistSongs(missing); err != nil && !repository.IsDuplicateEntry(err) {
			return fmt.Errorf("artist link insert failed: %w", err)
		}
	}

	return nil
}

// sniffImageFormat looks at magic bytes; embedded art is jpeg or png in
// practice.
func sniffImageFormat(data []byte) string {
	if len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}) {
		return "png"
	}
	return "jpeg"
}

// reconcileCovers ingests the album cover derivatives. When every wanted
// size already exists, neither extraction nor transcoding runs at all.
func (r *Reconciler) reconcileCovers(ctx context.Context, bundle *meta.Bundle, album *model.Album, coverSrc CoverSource, res *Result) error {
	if coverSrc == nil && bundle.Cover == nil {
		return nil
	}

	missing := make([]cover.SizeSpec, 0, len(cover.DefaultSizeSpecs))
	for _, spec := range cover.DefaultSizeSpecs {
		existing, err := r.repos.Covers.GetCover(model.CoverTypeAlbum, album.ID, spec.Label)
		if err != nil {
			return fmt.Errorf("cover lookup failed: %w", err)
		}
		if existing == nil {
			missing = append(missing, spec)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	raw := bundle.Cover
	if raw == nil {
		var err error
		raw, err = coverSrc()
		if err != nil || len(raw) == 0 {
			// 文件本身没有内嵌封面是常态，不算错误
			return nil
		}
	}

	derivatives, err := cover.Transcode(raw, missing)
	if err != nil {
		return fmt.Errorf("cover transcode failed: %w", err)
	}
	if len(derivatives) == 0 {
		return nil
	}

	rows := make([]*model.Cover, 0, len(derivatives))
	for _, d := range derivatives {
		rows = append(rows, &model.Cover{
			Type:   model.CoverTypeAlbum,
			LinkID: album.ID,
			Format: d.Format,
			Size:   d.Label,
			Length: len(d.Data),
			Width:  d.Width,
			Height: d.Height,
			Base64: base64.StdEncoding.EncodeToString(d.Data),
		})
	}
	if err := r.repos.Covers.CreateCovers(rows); err != nil {
		if !repository.IsDuplicateEntry(err) {
			return fmt.Errorf("cover insert failed: %w", err)
		}
		return nil
	}
	res.CoversCreated = len(rows)

	if r.blobs != nil {
		format := sniffImageFormat(raw)
		if err := r.blobs.UploadCoverOriginal(ctx, model.CoverTypeAlbum, album.ID, format, raw); err != nil {
			logger.Warn("Original cover upload failed",
				logger.Int64("albumId", album.ID), logger.ErrorField(err))
		}
	}

	return nil
}

// reconcileLyrics batch-inserts the parsed lyric lines unless the song
// already has any. A song either has a full set of rows or none.
func (r *Reconciler) reconcileLyrics(bundle *meta.Bundle, song *model.Song, res *Result) error {
	if len(bundle.Lyrics) == 0 {
		return nil
	}

	existing, err := r.repos.Lyrics.GetLyricsBySongID(song.ID)
	if err != nil {
		return fmt.Errorf("lyric lookup failed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	rows := make([]*model.Lyric, 0, len(bundle.Lyrics))
	for _, line := range bundle.Lyrics {
		rows = append(rows, &model.Lyric{
			SongID:   song.ID,
			Time:     line.Time,
			Text:     line.Text,
			Language: song.Language,
		})
	}
	if err := r.repos.Lyrics.CreateLyrics(rows); err != nil {
		return fmt.Errorf("lyric insert failed: %w", err)
	}
	res.LyricsCreated = len(rows)

	return nil
}

// RegenerateLyrics drops the stored lyric rows of a song and re-ingests
// them from the source file's embedded tags.
func (r *Reconciler) RegenerateLyrics(ctx context.Context, songID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	song, err := r.repos.Songs.GetSongByID(songID)
	if err != nil {
		return fmt.Errorf("song lookup failed: %w", err)
	}
	if song == nil {
		return fmt.Errorf("song %s not found", songID)
	}

	dec, err := meta.ReadMetadata(song.FilePath, false)
	if err != nil {
		return fmt.Errorf("failed to re-read %s: %w", song.FilePath, err)
	}

	if err := r.repos.Lyrics.DeleteLyricsBySongID(songID); err != nil {
		return err
	}

	bundle := &meta.Bundle{Song: song}
	if dec.Lyrics != "" {
		bundle.Lyrics = lyric.Parse(dec.Lyrics)
	}

	res := &Result{}
	if err := r.reconcileLyrics(bundle, song, res); err != nil {
		return err
	}
	logger.Info("Lyrics regenerated",
		logger.String("songId", songID), logger.Int("lines", res.LyricsCreated))
	return nil
}
