package meta

import (
	"errors"
	"math/rand"
	"path/filepath"
	"strings"

	"MusicFlow/core/lyric"
	"MusicFlow/model"
)

// ErrEmptyTitle marks files whose tags carry no title. Such files cannot
// be deduplicated and are skipped rather than ingested under a guess.
var ErrEmptyTitle = errors.New("title is empty")

// Bundle is the fully normalized form of one audio file, ready for
// reconciliation into the database.
type Bundle struct {
	Song    *model.Song
	Artists []string     // individual artist names, split from the raw tag
	Lyrics  []lyric.Line // parsed embedded LRC, may be empty
	Cover   []byte       // raw embedded image, may be nil
}

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomID generates a short random song id. Collisions fall to the
// primary key; with 62^9 values they are not a practical concern.
func randomID(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}

// SplitArtists splits a raw artist tag on "/" into individual names.
// Segments are trimmed and empty ones dropped; if nothing survives the
// raw string itself is the single artist.
func SplitArtists(raw string) []string {
	parts := strings.Split(raw, "/")
	artists := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			artists = append(artists, name)
		}
	}
	if len(artists) == 0 {
		return []string{raw}
	}
	return artists
}

// buildGenre augments the tag genre with ancestor directory names.
// Directory levels whose name already appears in the music root path are
// taken to be library structure rather than classification and excluded.
func buildGenre(tagGenre, filePath, musicDir string) string {
	dir := filepath.Dir(filePath)
	parts := strings.FieldsFunc(filepath.ToSlash(dir), func(r rune) bool {
		return r == '/'
	})

	rootSlash := filepath.ToSlash(musicDir)
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || strings.Contains(rootSlash, part) {
			continue
		}
		tags = append(tags, part)
	}

	if len(tags) == 0 {
		return tagGenre
	}
	dirGenre := strings.Join(tags, ",")
	if tagGenre == "" {
		return dirGenre
	}
	return tagGenre + "," + dirGenre
}

// fileURL derives the serving path of a file: the path relative to the
// music root, slash-separated, with a leading "/".
func fileURL(filePath, musicDir string) string {
	rel := strings.TrimPrefix(filepath.ToSlash(filePath), filepath.ToSlash(musicDir))
	rel = strings.ReplaceAll(rel, "\\", "/")
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// Normalize converts decoded tags into a reconciliation-ready bundle.
// Pure transformation: no IO, no database. The generated song id is
// provisional and discarded if reconciliation finds an existing row.
func Normalize(dec *Decoded, filePath, musicDir string) (*Bundle, error) {
	if strings.TrimSpace(dec.Title) == "" {
		return nil, ErrEmptyTitle
	}

	song := &model.Song{
		ID:         randomID(9),
		FileName:   filepath.Base(filePath),
		FilePath:   filePath,
		FileURL:    fileURL(filePath, musicDir),
		Title:      dec.Title,
		Artist:     dec.Artist,
		Album:      dec.Album,
		Year:       dec.Year,
		Duration:   dec.Duration,
		Bitrate:    dec.Bitrate,
		Samplerate: dec.Samplerate,
		Language:   dec.Language,
		Genre:      buildGenre(dec.Genre, filePath, musicDir),
		Track:      dec.Track,
		Disc:       dec.Disc,
		Comment:    dec.Comment,
	}

	bundle := &Bundle{
		Song:    song,
		Artists: SplitArtists(dec.Artist),
		Cover:   dec.Cover,
	}
	if dec.Lyrics != "" {
		bundle.Lyrics = lyric.Parse(dec.Lyrics)
	}

	return bundle, nil
}
