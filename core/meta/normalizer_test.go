package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitArtists(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"single", "Queen", []string{"Queen"}},
		{"multiple", "Freddie Mercury/David Bowie", []string{"Freddie Mercury", "David Bowie"}},
		{"padded segments", " A / B ", []string{"A", "B"}},
		{"empty segments dropped", "A//B/", []string{"A", "B"}},
		{"only separators falls back to raw", "//", []string{"//"}},
		{"empty string falls back to raw", "", []string{""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SplitArtists(tc.raw))
		})
	}
}

func TestBuildGenre(t *testing.T) {
	musicDir := "/srv/music"

	cases := []struct {
		name     string
		tagGenre string
		filePath string
		want     string
	}{
		{"dirs appended to tag genre", "Rock", "/srv/music/Metal/Classic/song.flac", "Rock,Metal,Classic"},
		{"dirs become genre when tag empty", "", "/srv/music/Jazz/song.mp3", "Jazz"},
		{"file at root keeps tag genre", "Pop", "/srv/music/song.mp3", "Pop"},
		{"root components excluded", "", "/srv/music/music/song.mp3", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, buildGenre(tc.tagGenre, tc.filePath, musicDir))
		})
	}
}

func TestFileURL(t *testing.T) {
	assert.Equal(t, "/Rock/song.flac", fileURL("/srv/music/Rock/song.flac", "/srv/music"))
	assert.Equal(t, "/song.mp3", fileURL("/srv/music/song.mp3", "/srv/music"))
}

func TestRandomIDShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := randomID(9)
		require.Len(t, id, 9)
		for _, r := range id {
			assert.Contains(t, idAlphabet, string(r))
		}
		seen[id] = true
	}
	// ids are random enough that 100 draws should not all collide
	assert.Greater(t, len(seen), 90)
}

func TestNormalizeRejectsEmptyTitle(t *testing.T) {
	_, err := Normalize(&Decoded{Title: "   "}, "/srv/music/a.mp3", "/srv/music")
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestNormalizeBuildsBundle(t *testing.T) {
	dec := &Decoded{
		Title:    "Bohemian Rhapsody",
		Artist:   "Queen/Freddie Mercury",
		Album:    "A Night at the Opera",
		Year:     "1975",
		Genre:    "Rock",
		Duration: 354.947,
		Bitrate:  "320",
		Lyrics:   "[00:01.00]Is this the real life",
	}

	bundle, err := Normalize(dec, "/srv/music/Classic/opera.flac", "/srv/music")
	require.NoError(t, err)

	assert.Len(t, bundle.Song.ID, 9)
	assert.Equal(t, "opera.flac", bundle.Song.FileName)
	assert.Equal(t, "/srv/music/Classic/opera.flac", bundle.Song.FilePath)
	assert.Equal(t, "/Classic/opera.flac", bundle.Song.FileURL)
	assert.Equal(t, "Queen/Freddie Mercury", bundle.Song.Artist)
	assert.Equal(t, "Rock,Classic", bundle.Song.Genre)
	assert.Equal(t, []string{"Queen", "Freddie Mercury"}, bundle.Artists)
	require.Len(t, bundle.Lyrics, 1)
	assert.Equal(t, "Is this the real life", bundle.Lyrics[0].Text)
}
